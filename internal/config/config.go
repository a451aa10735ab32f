// Package config loads sample definition files for the slamgen CLI and HTTP
// surface. Files are JSON or YAML and describe one sample inline, a list of
// samples, or both.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-slamgen/pkg/sample"
)

// File is one sample definition document:
//
//	engine: native
//	output_dir: out
//	name: LiMn2O4
//	center: [-10.5, 20.338]
//	diameter: 10
//	samples:
//	  - name: NMC-A
//	    rows: 3
type File struct {
	Engine         string `json:"engine" yaml:"engine"`
	OutputDir      string `json:"output_dir" yaml:"output_dir"`
	sample.Options `yaml:",inline"`
	Samples        []sample.Options `json:"samples" yaml:"samples"`

	// Source is the path the file was read from.
	Source string `json:"-" yaml:"-"`
}

// SampleList returns the inline sample (when named) followed by the listed
// ones.
func (f File) SampleList() []sample.Options {
	out := make([]sample.Options, 0, len(f.Samples)+1)
	if strings.TrimSpace(f.Options.Name) != "" {
		out = append(out, f.Options)
	}
	return append(out, f.Samples...)
}

// Load reads and parses a definition file from disk.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a definition, trying JSON first and YAML second, and checks
// that it names at least one sample and no sample twice.
func Parse(data []byte, source string) (File, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return File{}, fmt.Errorf("config: file %s is empty", source)
	}

	var doc File
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = File{}
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return File{}, fmt.Errorf("config: parse %s: invalid JSON or YAML: %w", source, yerr)
		}
	}
	doc.Source = source

	samples := doc.SampleList()
	if len(samples) == 0 {
		return File{}, fmt.Errorf("config: file %s defines no named sample", source)
	}
	seen := make(map[string]struct{}, len(samples))
	for idx, s := range samples {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return File{}, fmt.Errorf("config: file %s sample %d has no name", source, idx)
		}
		if _, exists := seen[name]; exists {
			return File{}, fmt.Errorf("config: file %s defines sample %q twice", source, name)
		}
		seen[name] = struct{}{}
	}
	return doc, nil
}

// LoadFS parses every .json, .yaml and .yml file under fsys, in lexical
// order. Sample names must be unique across files.
func LoadFS(fsys fs.FS) ([]File, error) {
	if fsys == nil {
		return nil, errors.New("config: filesystem is nil")
	}

	var files []File
	owners := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		doc, err := Parse(data, path)
		if err != nil {
			return err
		}
		for _, s := range doc.SampleList() {
			name := strings.TrimSpace(s.Name)
			if owner, exists := owners[name]; exists {
				return fmt.Errorf("config: sample %q defined in both %s and %s", name, owner, path)
			}
			owners[name] = path
		}
		files = append(files, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
