// SPDX-License-Identifier: MPL-2.0

package packagejson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// FileName is the descriptor file name npm looks for in a package directory.
const FileName = "package.json"

// knownKeys lists the recognized top-level keys in the order they are written.
var knownKeys = []string{
	"name", "version", "description", "keywords", "homepage", "bugs", "license",
	"author", "contributors", "files", "main", "browser", "bin", "man",
	"directories", "repository", "scripts", "config", "dependencies",
	"devDependencies", "peerDependencies", "bundledDependencies",
	"optionalDependencies", "engines", "os", "cpu", "private", "publishConfig",
}

type (
	// Bugs is the [bugs] field.
	//
	// [bugs]: https://docs.npmjs.com/cli/configuring-npm/package-json#bugs
	Bugs struct {
		URL   string `json:"url,omitempty"`
		Email string `json:"email,omitempty"`
	}

	// Person is used for author and contributors.
	Person struct {
		Name  string `json:"name,omitempty"`
		Email string `json:"email,omitempty"`
		URL   string `json:"url,omitempty"`
	}

	// Directories is the [directories] field.
	//
	// [directories]: https://docs.npmjs.com/cli/configuring-npm/package-json#directories
	Directories struct {
		Lib     string `json:"lib,omitempty"`
		Bin     string `json:"bin,omitempty"`
		Man     string `json:"man,omitempty"`
		Doc     string `json:"doc,omitempty"`
		Example string `json:"example,omitempty"`
		Test    string `json:"test,omitempty"`
	}

	// Repository is the [repository] field.
	//
	// [repository]: https://docs.npmjs.com/cli/configuring-npm/package-json#repository
	Repository struct {
		Type      string `json:"type,omitempty"`
		URL       string `json:"url,omitempty"`
		Directory string `json:"directory,omitempty"`
	}

	// PublishConfig is the [publishConfig] field.
	//
	// [publishConfig]: https://docs.npmjs.com/cli/configuring-npm/package-json#publishconfig
	PublishConfig struct {
		Registry string `json:"registry,omitempty"`
		Access   string `json:"access,omitempty"`
		Tag      string `json:"tag,omitempty"`
	}

	// PackageJSON is an npm package descriptor. Zero-valued fields are omitted
	// when encoding.
	PackageJSON struct {
		Name                 string            `json:"name,omitempty"`
		Version              string            `json:"version,omitempty"`
		Description          string            `json:"description,omitempty"`
		Keywords             []string          `json:"keywords,omitempty"`
		Homepage             string            `json:"homepage,omitempty"`
		Bugs                 *Bugs             `json:"bugs,omitempty"`
		License              string            `json:"license,omitempty"`
		Author               *Person           `json:"author,omitempty"`
		Contributors         []Person          `json:"contributors,omitempty"`
		Files                []string          `json:"files,omitempty"`
		Main                 string            `json:"main,omitempty"`
		Browser              string            `json:"browser,omitempty"`
		Bin                  map[string]string `json:"bin,omitempty"`
		Man                  []string          `json:"man,omitempty"`
		Directories          *Directories      `json:"directories,omitempty"`
		Repository           *Repository       `json:"repository,omitempty"`
		Scripts              map[string]string `json:"scripts,omitempty"`
		Config               map[string]any    `json:"config,omitempty"`
		Dependencies         map[string]string `json:"dependencies,omitempty"`
		DevDependencies      map[string]string `json:"devDependencies,omitempty"`
		PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
		BundledDependencies  []string          `json:"bundledDependencies,omitempty"`
		OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
		Engines              map[string]string `json:"engines,omitempty"`
		OS                   []string          `json:"os,omitempty"`
		CPU                  []string          `json:"cpu,omitempty"`
		Private              *bool             `json:"private,omitempty"`
		PublishConfig        *PublishConfig    `json:"publishConfig,omitempty"`

		// Extra holds keys outside the recognized schema. Entries whose key
		// collides with a recognized key are ignored when encoding.
		Extra map[string]any `json:"-"`
	}

	// fields is PackageJSON without its JSON methods.
	fields PackageJSON
)

// ScopedName returns the npm package name for module, prefixed with
// "@scope/" when scope is non-empty.
func ScopedName(scope, module string) string {
	if scope == "" {
		return module
	}
	return "@" + scope + "/" + module
}

// IsKnownKey reports whether key is a recognized top-level descriptor key.
func IsKnownKey(key string) bool {
	return slices.Contains(knownKeys, key)
}

// MarshalJSON encodes the recognized fields in schema order followed by the
// extra keys in lexical order.
func (p PackageJSON) MarshalJSON() ([]byte, error) {
	known, err := encodeCompact(fields(p))
	if err != nil {
		return nil, err
	}
	extraKeys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		if !IsKnownKey(k) {
			extraKeys = append(extraKeys, k)
		}
	}
	if len(extraKeys) == 0 {
		return known, nil
	}
	slices.Sort(extraKeys)

	var buf bytes.Buffer
	buf.Write(known[:len(known)-1])
	first := len(known) == 2
	for _, k := range extraKeys {
		key, err := encodeCompact(k)
		if err != nil {
			return nil, err
		}
		value, err := encodeCompact(p.Extra[k])
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes recognized keys into typed fields and every other key
// into Extra.
func (p *PackageJSON) UnmarshalJSON(data []byte) error {
	var typed fields
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PackageJSON(typed)
	p.Extra = nil
	for k, v := range raw {
		if IsKnownKey(k) {
			continue
		}
		var value any
		if err := json.Unmarshal(v, &value); err != nil {
			return fmt.Errorf("decode %q: %w", k, err)
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = value
	}
	return nil
}

// Encode returns the pretty-printed descriptor.
func (p *PackageJSON) Encode() ([]byte, error) {
	compact, err := encodeCompact(p)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// WriteFile writes the descriptor to path, creating parent directories.
func (p *PackageJSON) WriteFile(path string) error {
	data, err := p.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile parses the descriptor stored at path.
func ReadFile(path string) (*PackageJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var p PackageJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &p, nil
}

// Merge overlays every non-zero field of o onto p. Map fields are merged key
// by key; slices and nested objects are replaced.
func (p *PackageJSON) Merge(o *PackageJSON) {
	if o == nil {
		return
	}
	mergeString(&p.Name, o.Name)
	mergeString(&p.Version, o.Version)
	mergeString(&p.Description, o.Description)
	mergeSlice(&p.Keywords, o.Keywords)
	mergeString(&p.Homepage, o.Homepage)
	if o.Bugs != nil {
		p.Bugs = clonePtr(o.Bugs)
	}
	mergeString(&p.License, o.License)
	if o.Author != nil {
		p.Author = clonePtr(o.Author)
	}
	mergeSlice(&p.Contributors, o.Contributors)
	mergeSlice(&p.Files, o.Files)
	mergeString(&p.Main, o.Main)
	mergeString(&p.Browser, o.Browser)
	p.Bin = mergeMap(p.Bin, o.Bin)
	mergeSlice(&p.Man, o.Man)
	if o.Directories != nil {
		p.Directories = clonePtr(o.Directories)
	}
	if o.Repository != nil {
		p.Repository = clonePtr(o.Repository)
	}
	p.Scripts = mergeMap(p.Scripts, o.Scripts)
	p.Config = mergeMap(p.Config, o.Config)
	p.Dependencies = mergeMap(p.Dependencies, o.Dependencies)
	p.DevDependencies = mergeMap(p.DevDependencies, o.DevDependencies)
	p.PeerDependencies = mergeMap(p.PeerDependencies, o.PeerDependencies)
	mergeSlice(&p.BundledDependencies, o.BundledDependencies)
	p.OptionalDependencies = mergeMap(p.OptionalDependencies, o.OptionalDependencies)
	p.Engines = mergeMap(p.Engines, o.Engines)
	mergeSlice(&p.OS, o.OS)
	mergeSlice(&p.CPU, o.CPU)
	if o.Private != nil {
		p.Private = clonePtr(o.Private)
	}
	if o.PublishConfig != nil {
		p.PublishConfig = clonePtr(o.PublishConfig)
	}
	p.Extra = mergeMap(p.Extra, o.Extra)
}

// Clone returns a deep copy of p. Nothing reachable from the copy is shared
// with p.
func (p *PackageJSON) Clone() *PackageJSON {
	if p == nil {
		return nil
	}
	c := *p
	c.Keywords = slices.Clone(p.Keywords)
	c.Bugs = clonePtr(p.Bugs)
	c.Author = clonePtr(p.Author)
	c.Contributors = slices.Clone(p.Contributors)
	c.Files = slices.Clone(p.Files)
	c.Bin = maps.Clone(p.Bin)
	c.Man = slices.Clone(p.Man)
	c.Directories = clonePtr(p.Directories)
	c.Repository = clonePtr(p.Repository)
	c.Scripts = maps.Clone(p.Scripts)
	c.Config = cloneObject(p.Config)
	c.Dependencies = maps.Clone(p.Dependencies)
	c.DevDependencies = maps.Clone(p.DevDependencies)
	c.PeerDependencies = maps.Clone(p.PeerDependencies)
	c.BundledDependencies = slices.Clone(p.BundledDependencies)
	c.OptionalDependencies = maps.Clone(p.OptionalDependencies)
	c.Engines = maps.Clone(p.Engines)
	c.OS = slices.Clone(p.OS)
	c.CPU = slices.Clone(p.CPU)
	c.Private = clonePtr(p.Private)
	c.PublishConfig = clonePtr(p.PublishConfig)
	c.Extra = cloneObject(p.Extra)
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// cloneObject deep-copies a decoded JSON object.
func cloneObject(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneObject(v)
	case []any:
		c := make([]any, len(v))
		for i, e := range v {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}

// encodeCompact marshals v without escaping HTML characters, which npm
// descriptors routinely contain in URLs and scripts.
func encodeCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergeSlice[T any](dst *[]T, src []T) {
	if len(src) > 0 {
		*dst = slices.Clone(src)
	}
}

func mergeMap[V any](dst, src map[string]V) map[string]V {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]V, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
