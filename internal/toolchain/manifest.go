// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// FormatTOML selects the TOML decoder.
	FormatTOML Format = "toml"
	// FormatYAML selects the YAML decoder.
	FormatYAML Format = "yaml"
	// FormatJSON selects the JSON decoder.
	FormatJSON Format = "json"

	// KindNPM marks dependencies resolved from the npm registry. Other kinds
	// are ignored by the binder.
	KindNPM = "npm"
)

var (
	// ErrUnknownFormat is returned for manifest files with an unrecognized extension.
	ErrUnknownFormat = errors.New("unknown manifest format")
	// ErrEmptyManifest is returned when the manifest payload is blank.
	ErrEmptyManifest = errors.New("manifest is empty")
)

type (
	// Format is a manifest serialization format.
	Format string

	// Manifest is the toolchain's description of the build.
	Manifest struct {
		// Plugins lists the applied toolchain plugins ("multiplatform", "js").
		Plugins []string `toml:"plugins" yaml:"plugins" json:"plugins"`
		// Targets lists the configured targets.
		Targets []Target `toml:"targets" yaml:"targets" json:"targets"`
		// Configurations maps configuration names to their declared dependencies.
		Configurations map[string][]Dependency `toml:"configurations" yaml:"configurations" json:"configurations"`
	}

	// Target is one toolchain target.
	Target struct {
		Name         string        `toml:"name" yaml:"name" json:"name"`
		Platform     string        `toml:"platform" yaml:"platform" json:"platform"`
		Compilations []Compilation `toml:"compilations" yaml:"compilations" json:"compilations"`
	}

	// Compilation is one compilation of a target.
	Compilation struct {
		Name                  string   `toml:"name" yaml:"name" json:"name"`
		CompileTask           string   `toml:"compile_task" yaml:"compile_task" json:"compile_task"`
		OutputFile            string   `toml:"output_file" yaml:"output_file" json:"output_file"`
		ProcessResourcesTask  string   `toml:"process_resources_task" yaml:"process_resources_task" json:"process_resources_task"`
		ResourcesDir          string   `toml:"resources_dir" yaml:"resources_dir" json:"resources_dir"`
		NodeModulesDir        string   `toml:"node_modules_dir" yaml:"node_modules_dir" json:"node_modules_dir"`
		RelatedConfigurations []string `toml:"related_configurations" yaml:"related_configurations" json:"related_configurations"`
	}

	// Dependency is one declared dependency of a configuration.
	Dependency struct {
		Kind    string `toml:"kind" yaml:"kind" json:"kind"`
		Name    string `toml:"name" yaml:"name" json:"name"`
		Version string `toml:"version" yaml:"version" json:"version"`
		Scope   string `toml:"scope" yaml:"scope" json:"scope"`
	}
)

// FormatOf returns the manifest format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// ParseManifest decodes data in the given format.
func ParseManifest(data []byte, format Format) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyManifest
	}
	var m Manifest
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s manifest: %w", format, err)
	}
	return &m, nil
}

// LoadManifest reads the manifest at path. Relative file paths inside the
// manifest are resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.ResolvePaths(filepath.Dir(path))
	return m, nil
}

// ResolvePaths makes every relative compilation path absolute against dir.
func (m *Manifest) ResolvePaths(dir string) {
	for i := range m.Targets {
		for j := range m.Targets[i].Compilations {
			c := &m.Targets[i].Compilations[j]
			c.OutputFile = resolve(dir, c.OutputFile)
			c.ResourcesDir = resolve(dir, c.ResourcesDir)
			c.NodeModulesDir = resolve(dir, c.NodeModulesDir)
		}
	}
}

// HasPlugin reports whether the named toolchain plugin is applied.
func (m *Manifest) HasPlugin(name string) bool {
	for _, p := range m.Plugins {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// MainCompilation returns the first compilation whose name contains "main",
// compared case-insensitively.
func (t Target) MainCompilation() (Compilation, bool) {
	for _, c := range t.Compilations {
		if strings.Contains(strings.ToLower(c.Name), "main") {
			return c, true
		}
	}
	return Compilation{}, false
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
