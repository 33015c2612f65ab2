package gen

import (
	"go/types"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName | packages.NeedTypes | packages.NeedImports | packages.NeedDeps

// Target is an interface to generate an advised wrapper for.
type Target struct {
	// Name is the interface name; it is also the target advice is registered for.
	Name    string
	Wrapper string
	Named   *types.Named
	Iface   *types.Interface
}

// Load type-checks the package matching pattern.
func Load(pattern string) (*types.Package, error) {
	pkgs, err := packages.Load(&packages.Config{Mode: loadMode}, pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "load '%s'", pattern)
	}
	if len(pkgs) != 1 {
		return nil, errors.Errorf("pattern '%s' matched %d packages, want 1", pattern, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, errors.Wrapf(pkg.Errors[0], "load '%s'", pattern)
	}
	return pkg.Types, nil
}

// ParseOptions parses "Iface" and "Iface->Wrapper" arguments.
func ParseOptions(options []string) map[string]string {
	names := make(map[string]string, len(options))
	for _, option := range options {
		ifaceName, wrapperName, _ := strings.Cut(option, "->")
		names[strings.TrimSpace(ifaceName)] = strings.TrimSpace(wrapperName)
	}
	return names
}

// FindTargets selects the interfaces named by options, or every non-generic
// named interface of pkg when options is empty. Wrapper names default to
// "<Iface>Advised".
func FindTargets(pkg *types.Package, options map[string]string) ([]Target, error) {
	ifaces := findNamedInterfaces(pkg)
	var targets []Target
	if len(options) == 0 {
		for name, named := range ifaces {
			if !wrappable(named) {
				continue
			}
			targets = append(targets, newTarget(name, "", named))
		}
	} else {
		for name, wrapper := range options {
			named, found := ifaces[name]
			if !found {
				return nil, errors.Errorf("interface '%s' not found", name)
			}
			if !wrappable(named) {
				return nil, errors.Errorf("interface '%s' is generic or a constraint", name)
			}
			targets = append(targets, newTarget(name, wrapper, named))
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].Name < targets[j].Name
	})
	return targets, nil
}

func wrappable(named *types.Named) bool {
	return named.TypeParams().Len() == 0 && named.Underlying().(*types.Interface).IsMethodSet()
}

func newTarget(name string, wrapper string, named *types.Named) Target {
	if wrapper == "" {
		wrapper = name + "Advised"
	}
	return Target{
		Name:    name,
		Wrapper: wrapper,
		Named:   named,
		Iface:   named.Underlying().(*types.Interface),
	}
}

func findNamedInterfaces(pkg *types.Package) map[string]*types.Named {
	items := map[string]*types.Named{}
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		obj, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !obj.Exported() || obj.IsAlias() {
			continue
		}
		named, ok := obj.Type().(*types.Named)
		if !ok {
			continue
		}
		if _, ok = named.Underlying().(*types.Interface); !ok {
			continue
		}
		items[name] = named
	}
	return items
}
