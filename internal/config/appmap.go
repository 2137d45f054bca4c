// Package config loads the application map: the declarative description
// mapping output names to source entry specifications plus global source and
// target roots. The map is read once per build or watch session and is
// immutable after load.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "assetforge/internal/errors"
)

// AppMap is the root configuration.
type AppMap struct {
	Source  string               `yaml:"source"`
	Target  string               `yaml:"target"`
	Entries map[string]EntrySpec `yaml:"entries"`
}

// EntrySpec is one output's source declaration. On disk it is a tagged union:
// a single path, a list of paths, or an object with source/external/format.
// After decoding, all three shapes collapse to this canonical form.
type EntrySpec struct {
	// Sources holds the declared source paths in order, still relative to
	// the map's source root.
	Sources []string
	// External paths are excluded from reference discovery.
	External []string
	// Format is an optional backend-specific output format hint.
	Format string
}

// UnmarshalYAML decodes the EntrySpec union. Malformed shapes are rejected
// here, at map-load time, never lazily during a build.
func (e *EntrySpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		e.Sources = []string{single}
		return nil
	case yaml.SequenceNode:
		return node.Decode(&e.Sources)
	case yaml.MappingNode:
		var obj struct {
			Source   yaml.Node `yaml:"source"`
			External []string  `yaml:"external"`
			Format   string    `yaml:"format"`
		}
		if err := node.Decode(&obj); err != nil {
			return err
		}
		switch obj.Source.Kind {
		case yaml.ScalarNode:
			var single string
			if err := obj.Source.Decode(&single); err != nil {
				return err
			}
			e.Sources = []string{single}
		case yaml.SequenceNode:
			if err := obj.Source.Decode(&e.Sources); err != nil {
				return err
			}
		default:
			return ferrors.Config("entry object requires a source string or list")
		}
		e.External = obj.External
		e.Format = obj.Format
		return nil
	default:
		return ferrors.Config(fmt.Sprintf("entry must be a string, list, or object (line %d)", node.Line))
	}
}

// Load reads and validates an application map from the named file.
func Load(mapPath string) (*AppMap, error) {
	// Load .env next to the map file if present; never fatal.
	loadEnvFile(mapPath)

	data, err := os.ReadFile(mapPath)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.CategoryConfig, "read application map").WithContext("path", mapPath)
	}
	return Parse(data)
}

// Parse decodes an in-memory application map description.
func Parse(data []byte) (*AppMap, error) {
	expanded := os.ExpandEnv(string(data))

	var m AppMap
	if err := yaml.Unmarshal([]byte(expanded), &m); err != nil {
		return nil, ferrors.Wrap(err, ferrors.CategoryConfig, "parse application map")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks structural requirements. An entries mapping is required;
// its absence is a configuration error reported before any entry is processed.
func (m *AppMap) Validate() error {
	if m.Entries == nil {
		return ferrors.Config("application map has no entries mapping")
	}
	for name, spec := range m.Entries {
		if len(spec.Sources) == 0 {
			return ferrors.Config("entry has no sources").WithContext("output", name)
		}
		for _, s := range spec.Sources {
			if s == "" {
				return ferrors.Config("entry has an empty source path").WithContext("output", name)
			}
		}
	}
	return nil
}
