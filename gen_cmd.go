package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/CherkashinEvgeny/goadvice/advice"
	"github.com/CherkashinEvgeny/goadvice/gen"
	"github.com/CherkashinEvgeny/goadvice/manifest"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/tools/go/packages"
)

const genUsage = `gen [source package] [interfaces]...

  [source package] - package whose interfaces are wrapped, "." when omitted.
  [interfaces]     - "Iface" or "Iface->Wrapper" names. Every interface of
                     the package is wrapped when the list is empty; wrapper
                     names default to "<Iface>Advised".`

func (a *app) newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   genUsage,
		Short: "Generate advised wrappers for interfaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "."
			if len(args) > 0 {
				source = args[0]
				args = args[1:]
			}
			return a.generate(cmd.OutOrStdout(), source, args)
		},
	}
	flags := cmd.Flags()
	flags.String("out", "", "output file, stdout when empty")
	flags.String("pkg", "", "package name of generated code, source package name when empty")
	flags.String("path", "", "package path of generated code, resolved from --out when empty")
	flags.String("manifest", "", "advice manifest; only advised methods are intercepted")
	for _, name := range []string{"out", "pkg", "path", "manifest"} {
		_ = a.config.BindPFlag("gen."+name, flags.Lookup(name))
	}
	return cmd
}

func (a *app) generate(stdout io.Writer, source string, options []string) error {
	srcPkg, err := gen.Load(source)
	if err != nil {
		return errors.Wrap(err, "parse source package")
	}
	targets, err := gen.FindTargets(srcPkg, gen.ParseOptions(options))
	if err != nil {
		return err
	}

	out := a.config.GetString("gen.out")
	cfg := gen.Config{
		PkgName: a.config.GetString("gen.pkg"),
		PkgPath: a.config.GetString("gen.path"),
		Targets: targets,
	}
	if cfg.PkgPath == "" {
		cfg.PkgPath = srcPkg.Path()
		if out != "" {
			path, name, err := resolvePackage(filepath.Dir(out))
			if err != nil {
				a.logger.Warn().Err(err).Str("path", cfg.PkgPath).Msg("failed to resolve destination package, using source package")
			} else {
				cfg.PkgPath = path
				if cfg.PkgName == "" {
					cfg.PkgName = name
				}
			}
		}
	}
	if cfg.PkgName == "" {
		cfg.PkgName = srcPkg.Name()
	}
	if path := a.config.GetString("gen.manifest"); path != "" {
		m, err := manifest.Load(path)
		if err != nil {
			return err
		}
		registry := advice.NewRegistry()
		if err = m.Apply(registry); err != nil {
			return err
		}
		cfg.Only = gen.OnlyAdvised(registry.All())
	}

	code, err := gen.Generate(cfg)
	if err != nil {
		return errors.Wrap(err, "generate code")
	}
	for _, target := range targets {
		a.logger.Info().Str("interface", target.Name).Str("wrapper", target.Wrapper).Msg("generated")
	}

	if out == "" {
		_, err = stdout.Write(code)
		return errors.Wrap(err, "write code")
	}
	err = os.WriteFile(out, code, 0644)
	return errors.Wrapf(err, "write %s", out)
}

// resolvePackage returns the import path and name of the package in dir. A
// directory without Go files still has an import path; its name is empty.
func resolvePackage(dir string) (path string, name string, err error) {
	pkgs, err := packages.Load(&packages.Config{Mode: packages.NeedName, Dir: dir}, ".")
	if err != nil {
		return "", "", err
	}
	if len(pkgs) != 1 || pkgs[0].PkgPath == "" {
		return "", "", errors.Errorf("no package in '%s'", dir)
	}
	return pkgs[0].PkgPath, pkgs[0].Name, nil
}
