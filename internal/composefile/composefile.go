// Package composefile provides compose file parsing and validation for stackctl.
//
// It is not a compose implementation. It reads just enough of the file to
// list the declared services and to catch common mistakes (services with
// neither image nor build, malformed port mappings, dangling depends_on)
// before docker compose is invoked.
//
// Supports both YAML (.yaml, .yml) and JSON (.json) compose files.
package composefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File represents the parts of a compose file stackctl inspects
type File struct {
	Name     string             `yaml:"name,omitempty" json:"name,omitempty"`
	Services map[string]Service `yaml:"services" json:"services"`
	Volumes  map[string]any     `yaml:"volumes,omitempty" json:"volumes,omitempty"`
	Networks map[string]any     `yaml:"networks,omitempty" json:"networks,omitempty"`

	// path the file was loaded from
	path string
}

// Service represents a single compose service.
// Fields with several accepted shapes are kept as raw values.
type Service struct {
	Image         string   `yaml:"image,omitempty" json:"image,omitempty"`
	Build         any      `yaml:"build,omitempty" json:"build,omitempty"`
	ContainerName string   `yaml:"container_name,omitempty" json:"container_name,omitempty"`
	Ports         []any    `yaml:"ports,omitempty" json:"ports,omitempty"`
	EnvFile       any      `yaml:"env_file,omitempty" json:"env_file,omitempty"`
	DependsOn     any      `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Profiles      []string `yaml:"profiles,omitempty" json:"profiles,omitempty"`
}

// Load loads and parses a compose file (supports .yaml, .yml, and .json)
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}

	var f File

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse compose JSON %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse compose YAML %s: %w", path, err)
		}
	default:
		// compose accepts any name; YAML is the only format it documents
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse compose file (unknown extension %s, tried YAML): %w", ext, err)
		}
	}

	f.path = path
	return &f, nil
}

// ServiceNames returns the declared services, sorted.
func (f *File) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvFiles returns the env_file paths a service references, resolved
// against the compose file's directory.
func (f *File) EnvFiles(service string) []string {
	svc, ok := f.Services[service]
	if !ok {
		return nil
	}

	var raw []string
	switch v := svc.EnvFile.(type) {
	case string:
		raw = append(raw, v)
	case []any:
		for _, item := range v {
			switch e := item.(type) {
			case string:
				raw = append(raw, e)
			case map[string]any:
				if p, ok := e["path"].(string); ok {
					raw = append(raw, p)
				}
			}
		}
	}

	base := filepath.Dir(f.path)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		out = append(out, p)
	}
	return out
}

// dependencies returns the service names listed in depends_on, which is
// either a list or a map keyed by service name.
func (s Service) dependencies() []string {
	var deps []string
	switch v := s.DependsOn.(type) {
	case []any:
		for _, item := range v {
			if name, ok := item.(string); ok {
				deps = append(deps, name)
			}
		}
	case map[string]any:
		for name := range v {
			deps = append(deps, name)
		}
	}
	sort.Strings(deps)
	return deps
}
