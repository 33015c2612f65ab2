// Package manifest declares advice in a file instead of code.
//
// A manifest binds plugin ids to target methods and names the Lua scripts
// implementing those plugins:
//
//	plugins:
//	  - id: audit
//	    script: plugins/audit.lua
//	advice:
//	  - id: audit-charge
//	    phase: before
//	    target: Billing@Charge
//	    plugin: audit
//	    priority: 20
//
// YAML, JSON and TOML manifests are accepted.
package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/CherkashinEvgeny/goadvice/advice"
	"github.com/CherkashinEvgeny/goadvice/luaplugin"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
	TOML Format = "toml"
)

var ErrUnknownFormat = errors.New("unknown manifest format")

type Manifest struct {
	Plugins []PluginSpec `yaml:"plugins" toml:"plugins"`
	Advice  []AdviceSpec `yaml:"advice" toml:"advice"`

	// Dir is the directory plugin scripts are resolved against.
	Dir string `yaml:"-" toml:"-"`
}

type PluginSpec struct {
	ID     string `yaml:"id" toml:"id"`
	Script string `yaml:"script" toml:"script"`
}

type AdviceSpec struct {
	ID       string `yaml:"id" toml:"id"`
	Phase    string `yaml:"phase" toml:"phase"`
	Target   string `yaml:"target" toml:"target"`
	Plugin   string `yaml:"plugin" toml:"plugin"`
	Priority *int   `yaml:"priority" toml:"priority"`
}

func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	case ".toml":
		return TOML, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "'%s'", path)
}

func Load(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// Parse validates data against the manifest schema and decodes it.
func Parse(data []byte, format Format) (*Manifest, error) {
	result, err := Validate(data, format)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &ValidationError{Issues: result.Issues}
	}
	m := &Manifest{}
	switch format {
	case YAML, JSON:
		err = yaml.Unmarshal(data, m)
	case TOML:
		err = toml.Unmarshal(data, m)
	default:
		err = errors.Wrapf(ErrUnknownFormat, "'%s'", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s manifest", format)
	}
	return m, nil
}

func decodeGeneric(data []byte, format Format) (any, error) {
	var raw any
	var err error
	switch format {
	case YAML, JSON:
		err = yaml.Unmarshal(data, &raw)
	case TOML:
		table := map[string]any{}
		err = toml.Unmarshal(data, &table)
		raw = table
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "'%s'", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s manifest", format)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// Apply registers every advice entry of the manifest.
func (m *Manifest) Apply(registry *advice.Registry) error {
	for i, spec := range m.Advice {
		phase, err := advice.ParsePhase(spec.Phase)
		if err != nil {
			return errors.Wrapf(err, "advice #%d", i)
		}
		var opts []advice.Option
		if spec.Priority != nil {
			opts = append(opts, advice.WithPriority(*spec.Priority))
		}
		err = registry.Register(spec.ID, phase, spec.Target, advice.Plugin(spec.Plugin), opts...)
		if err != nil {
			return errors.Wrapf(err, "advice #%d", i)
		}
	}
	return nil
}

// Resolver loads every plugin script of the manifest, relative to Dir.
func (m *Manifest) Resolver() (*luaplugin.Resolver, error) {
	resolver := luaplugin.NewResolver()
	for _, spec := range m.Plugins {
		path := spec.Script
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.Dir, path)
		}
		if err := resolver.LoadFile(spec.ID, path); err != nil {
			resolver.Close()
			return nil, err
		}
	}
	return resolver, nil
}

// Targets lists the distinct target types the manifest advises, in order of
// first appearance.
func (m *Manifest) Targets() []string {
	seen := map[string]bool{}
	var targets []string
	for _, spec := range m.Advice {
		typ, _, ok := advice.ParseTarget(spec.Target)
		if !ok || seen[typ] {
			continue
		}
		seen[typ] = true
		targets = append(targets, typ)
	}
	return targets
}
