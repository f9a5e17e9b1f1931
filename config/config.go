// Package config loads and validates the wasmforge TOML configuration.
//
// A configuration names the modules the server exposes, where each module
// is fetched from, optional per-tool metadata overrides, and cache and
// security settings. A missing configuration file is created with defaults
// on first run.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
	"github.com/wasmforge-dev/wasmforge/infrastructure/modcache"
)

// validate is shared across calls. Validator caches struct metadata, so a
// single instance is cheaper than constructing one per validation.
var validate = validator.New()

// Config is the root of the wasmforge configuration file.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" toml:"server"`
	Modules  []ModuleConfig `mapstructure:"modules" toml:"modules,omitempty"`
	Cache    CacheConfig    `mapstructure:"cache" toml:"cache"`
	Security SecurityConfig `mapstructure:"security" toml:"security"`
}

// ServerConfig describes the server identity and its default TCP endpoint.
// DefaultPort zero means stdio unless a port is given on the command line.
type ServerConfig struct {
	Name        string `mapstructure:"name" toml:"name" validate:"required"`
	Version     string `mapstructure:"version" toml:"version" validate:"required"`
	DefaultPort int    `mapstructure:"default_port" toml:"default_port,omitempty" validate:"omitempty,min=1,max=65535"`
	DefaultHost string `mapstructure:"default_host" toml:"default_host" validate:"required"`
}

// ModuleConfig describes one WebAssembly module entry. Disabled entries are
// kept in the file but never resolved or served.
type ModuleConfig struct {
	Name        string            `mapstructure:"name" toml:"name" validate:"required"`
	Version     string            `mapstructure:"version" toml:"version,omitempty"`
	Description string            `mapstructure:"description" toml:"description,omitempty"`
	Source      SourceConfig      `mapstructure:"source" toml:"source"`
	Enabled     bool              `mapstructure:"enabled" toml:"enabled"`
	Tools       []ToolConfig      `mapstructure:"tools" toml:"tools,omitempty"`
	Metadata    map[string]string `mapstructure:"metadata" toml:"metadata,omitempty"`
}

// SourceConfig is the tagged union of module origins. Type selects the
// variant; the remaining fields belong to exactly one variant each.
type SourceConfig struct {
	Type string `mapstructure:"type" toml:"type" validate:"required,oneof=local http registry"`

	// Path is the local variant: a file path, absolute or relative to the
	// configuration directory (then the working directory).
	Path string `mapstructure:"path" toml:"path,omitempty" validate:"required_if=Type local"`

	// URL and Checksum are the http variant. Checksum is an optional
	// SHA-256 hex digest the downloaded bytes must match.
	URL      string `mapstructure:"url" toml:"url,omitempty" validate:"required_if=Type http,omitempty,url"`
	Checksum string `mapstructure:"checksum" toml:"checksum,omitempty" validate:"omitempty,len=64,hexadecimal"`

	// Name and Version are the registry variant.
	Name    string `mapstructure:"name" toml:"name,omitempty" validate:"required_if=Type registry"`
	Version string `mapstructure:"version" toml:"version,omitempty"`
}

// ToolConfig overrides generated tool metadata for one exported function.
// Name is informational; dispatch always uses FunctionName.
type ToolConfig struct {
	Name         string              `mapstructure:"name" toml:"name" validate:"required"`
	Description  string              `mapstructure:"description" toml:"description,omitempty"`
	FunctionName string              `mapstructure:"function_name" toml:"function_name" validate:"required"`
	Parameters   map[string]any      `mapstructure:"parameters" toml:"parameters,omitempty"`
	Security     *ToolSecurityConfig `mapstructure:"security" toml:"security,omitempty"`
}

// ToolSecurityConfig carries the tool-level security overrides.
type ToolSecurityConfig struct {
	AllowedCommands []string `mapstructure:"allowed_commands" toml:"allowed_commands,omitempty"`
}

// CacheConfig controls the on-disk module cache.
type CacheConfig struct {
	Directory string `mapstructure:"directory" toml:"directory" validate:"required"`
	MaxSizeMB int64  `mapstructure:"max_size_mb" toml:"max_size_mb" validate:"min=0"`
	TTLHours  int    `mapstructure:"ttl_hours" toml:"ttl_hours" validate:"min=0"`
}

// SecurityConfig holds the global security settings. AllowedCommands
// replaces the built-in shell allow-list but stays below tool-level and
// module-level lists in precedence.
type SecurityConfig struct {
	AllowedCommands []string `mapstructure:"allowed_commands" toml:"allowed_commands,omitempty"`
	AllowedHosts    []string `mapstructure:"allowed_hosts" toml:"allowed_hosts,omitempty"`
	ReadPatterns    []string `mapstructure:"read_patterns" toml:"read_patterns,omitempty"`
	WritePatterns   []string `mapstructure:"write_patterns" toml:"write_patterns,omitempty"`
}

// Default returns the configuration written on first run: one local test
// module with curated tool metadata, and user-level cache defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:        "wasmforge",
			Version:     "0.1.0",
			DefaultHost: "127.0.0.1",
		},
		Modules: []ModuleConfig{
			{
				Name:        "test-module",
				Version:     "0.1.0",
				Description: "Test WebAssembly module with basic functions",
				Source: SourceConfig{
					Type: string(entities.SourceLocal),
					Path: "test-modules/test_module.wasm",
				},
				Enabled: true,
				Tools: []ToolConfig{
					{
						Name:         "add",
						Description:  "Add two numbers",
						FunctionName: "add",
						Parameters: map[string]any{
							"type": "object",
							"properties": map[string]any{
								"a": map[string]any{"type": "number"},
								"b": map[string]any{"type": "number"},
							},
							"required": []string{"a", "b"},
						},
					},
					{
						Name:         "validate_url",
						Description:  "Validate URL format",
						FunctionName: "validate_url",
						Parameters: map[string]any{
							"type": "object",
							"properties": map[string]any{
								"url": map[string]any{"type": "string"},
							},
							"required": []string{"url"},
						},
					},
				},
			},
		},
		Cache: CacheConfig{
			Directory: modcache.DefaultDir(),
			MaxSizeMB: 100,
			TTLHours:  24,
		},
	}
}

// Validate checks the configuration shape, the per-variant source fields,
// and that the cache directory is usable (creating it if absent). It does
// not require local module files to exist; missing modules are skipped at
// startup instead of failing it.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if err := os.MkdirAll(c.Cache.Directory, 0o755); err != nil {
		return fmt.Errorf("cache directory %s not usable: %w", c.Cache.Directory, err)
	}
	for i := range c.Modules {
		if err := c.Modules[i].Source.check(); err != nil {
			return fmt.Errorf("module %s: %w", c.Modules[i].Name, err)
		}
	}
	return nil
}

func validateStruct(c *Config) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// check enforces the semantic rules struct tags cannot express.
func (s *SourceConfig) check() error {
	if entities.SourceKind(s.Type) == entities.SourceRemote {
		if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
			return fmt.Errorf("invalid url %q: must start with http:// or https://", s.URL)
		}
	}
	return nil
}

// FindModule returns the entry named name, enabled or not, or nil.
func (c *Config) FindModule(name string) *ModuleConfig {
	for i := range c.Modules {
		if c.Modules[i].Name == name {
			return &c.Modules[i]
		}
	}
	return nil
}

// EnabledModules returns the enabled entries in file order.
func (c *Config) EnabledModules() []ModuleConfig {
	enabled := make([]ModuleConfig, 0, len(c.Modules))
	for _, mod := range c.Modules {
		if mod.Enabled {
			enabled = append(enabled, mod)
		}
	}
	return enabled
}
