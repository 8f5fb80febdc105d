package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrConfigLoad wraps every failure to read, decode or validate the config file.
var ErrConfigLoad = errors.New("config load failed")

// Load reads the config file at path, decoding it by extension (.toml,
// .yaml/.yml, anything else as JSON), applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrConfigLoad, path, err)
	}

	var cfg Config
	if err := decode(path, data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrConfigLoad, path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: environment overrides: %w", ErrConfigLoad, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigLoad, path, err)
	}
	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.NetgroupSource.Type == "" {
		c.NetgroupSource.Type = SourceNIS
	}
	if c.NetgroupSource.Map == "" {
		c.NetgroupSource.Map = DefaultNetgroupMap
	}
	if c.NetgroupSource.Ypcat == "" {
		c.NetgroupSource.Ypcat = DefaultYpcatBin
	}
	if c.NetgroupSource.Path == "" {
		c.NetgroupSource.Path = DefaultNetgroupFile
	}
	if c.Lookup.Family == "" {
		c.Lookup.Family = FamilyIPv4
	}
	if c.Lookup.Concurrency == 0 {
		c.Lookup.Concurrency = 1
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Hostname == "" {
		errs = append(errs, errors.New("hostname is required"))
	}
	if c.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	switch c.NetgroupSource.Type {
	case SourceNIS, SourceFile:
	default:
		errs = append(errs, fmt.Errorf("netgroup_source.type must be %q or %q, got %q", SourceNIS, SourceFile, c.NetgroupSource.Type))
	}
	switch c.Lookup.Family {
	case FamilyIPv4, FamilyIPv6, FamilyAny:
	default:
		errs = append(errs, fmt.Errorf("lookup.family must be one of %s, %s, %s, got %q", FamilyIPv4, FamilyIPv6, FamilyAny, c.Lookup.Family))
	}
	if c.Lookup.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("lookup.concurrency must be >= 1, got %d", c.Lookup.Concurrency))
	}
	if len(c.ExportMap) == 0 {
		errs = append(errs, errors.New("export_map must contain at least one export"))
	}
	for _, path := range c.ExportPaths() {
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, fmt.Errorf("export path %q must be absolute", path))
		}
	}
	return errors.Join(errs...)
}

// ExportPaths returns the configured export paths in sorted order.
func (c *Config) ExportPaths() []string {
	return SortedPaths(c.ExportMap)
}

func SortedPaths(exports map[string]ExportRestriction) []string {
	paths := make([]string, 0, len(exports))
	for p := range exports {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// The legacy config format maps each export to a flat list of netgroup
// names. Every decoder below accepts both shapes.

type plainRestriction ExportRestriction

func (r *ExportRestriction) UnmarshalJSON(data []byte) error {
	var legacy []string
	if err := json.Unmarshal(data, &legacy); err == nil {
		*r = ExportRestriction{Netgroups: legacy}
		return nil
	}
	var p plainRestriction
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ExportRestriction(p)
	return nil
}

func (r *ExportRestriction) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var legacy []string
		if err := node.Decode(&legacy); err != nil {
			return err
		}
		*r = ExportRestriction{Netgroups: legacy}
		return nil
	}
	var p plainRestriction
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = ExportRestriction(p)
	return nil
}

func (r *ExportRestriction) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case []any:
		names, err := tomlStrings(v)
		if err != nil {
			return err
		}
		*r = ExportRestriction{Netgroups: names}
	case map[string]any:
		var out ExportRestriction
		for key, val := range v {
			list, ok := val.([]any)
			if !ok {
				return fmt.Errorf("%s: expected a list of strings", key)
			}
			names, err := tomlStrings(list)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			switch key {
			case "netgroups":
				out.Netgroups = names
			case "hosts":
				out.Hosts = names
			default:
				return fmt.Errorf("unknown key %q", key)
			}
		}
		*r = out
	default:
		return fmt.Errorf("unsupported export restriction type %T", data)
	}
	return nil
}

func tomlStrings(list []any) ([]string, error) {
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}
