package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wasmforge-dev/wasmforge/application/catalog"
	"github.com/wasmforge-dev/wasmforge/domain/entities"
	"github.com/wasmforge-dev/wasmforge/domain/policy"
)

// Descriptor converts the entry to its domain descriptor.
func (m *ModuleConfig) Descriptor() entities.ModuleDescriptor {
	desc := entities.ModuleDescriptor{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Metadata:    m.Metadata,
	}
	switch entities.SourceKind(m.Source.Type) {
	case entities.SourceLocal:
		desc.Source = entities.LocalSource(m.Source.Path)
	case entities.SourceRemote:
		desc.Source = entities.RemoteSource(m.Source.URL, m.Source.Checksum)
	case entities.SourceRegistry:
		desc.Source = entities.ModuleSource{
			Kind:            entities.SourceRegistry,
			RegistryName:    m.Source.Name,
			RegistryVersion: m.Source.Version,
		}
	}
	return desc
}

// Descriptors returns descriptors for the enabled modules, in file order.
// The first enabled module becomes the primary tool namespace.
func (c *Config) Descriptors() []entities.ModuleDescriptor {
	enabled := c.EnabledModules()
	descs := make([]entities.ModuleDescriptor, 0, len(enabled))
	for i := range enabled {
		descs = append(descs, enabled[i].Descriptor())
	}
	return descs
}

// Overrides collects the per-tool metadata overrides of the enabled
// modules, keyed by module name and exported function name. Entries that
// override neither description nor parameters are dropped.
func (c *Config) Overrides() (catalog.Overrides, error) {
	overrides := make(catalog.Overrides)
	for _, mod := range c.EnabledModules() {
		for _, tool := range mod.Tools {
			ov := catalog.Override{Description: tool.Description}
			if len(tool.Parameters) > 0 {
				schema, err := json.Marshal(tool.Parameters)
				if err != nil {
					return nil, fmt.Errorf("tool %s/%s parameters: %w", mod.Name, tool.FunctionName, err)
				}
				ov.InputSchema = schema
			}
			if ov.Description == "" && len(ov.InputSchema) == 0 {
				continue
			}
			byExport := overrides[mod.Name]
			if byExport == nil {
				byExport = make(map[string]catalog.Override)
				overrides[mod.Name] = byExport
			}
			byExport[tool.FunctionName] = ov
		}
	}
	return overrides, nil
}

// TTL returns the cache entry lifetime.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// CacheBudget returns the cache size limit in bytes.
func (c *Config) CacheBudget() int64 {
	return c.Cache.MaxSizeMB * 1024 * 1024
}

// SecurityPolicy returns the global host and file rules for the guards,
// or nil when the security section sets none. The global command list is
// deliberately absent here: it feeds PolicyOptions as the default list so
// tool-level and module-level lists keep precedence over it.
func (c *Config) SecurityPolicy() *policy.SecurityPolicy {
	sec := c.Security
	if len(sec.AllowedHosts) == 0 && len(sec.ReadPatterns) == 0 && len(sec.WritePatterns) == 0 {
		return nil
	}
	return &policy.SecurityPolicy{
		AllowedHosts:  sec.AllowedHosts,
		ReadPatterns:  sec.ReadPatterns,
		WritePatterns: sec.WritePatterns,
	}
}

// PolicyOptions returns the policy engine options the security section
// implies.
func (c *Config) PolicyOptions() []policy.PolicyOption {
	var opts []policy.PolicyOption
	if len(c.Security.AllowedCommands) > 0 {
		opts = append(opts, policy.WithDefaultCommands(c.Security.AllowedCommands))
	}
	if len(c.Security.ReadPatterns) > 0 {
		opts = append(opts, policy.WithReadPatterns(c.Security.ReadPatterns))
	}
	if len(c.Security.WritePatterns) > 0 {
		opts = append(opts, policy.WithWritePatterns(c.Security.WritePatterns))
	}
	return opts
}

// ShellAllowList returns the tool-level command allow-list configured for
// one exported function of a module, or nil when none is configured.
func (c *Config) ShellAllowList(module, export string) []string {
	mod := c.FindModule(module)
	if mod == nil {
		return nil
	}
	for i := range mod.Tools {
		tool := &mod.Tools[i]
		if tool.FunctionName != export || tool.Security == nil {
			continue
		}
		if len(tool.Security.AllowedCommands) > 0 {
			return tool.Security.AllowedCommands
		}
	}
	return nil
}

// ShellPolicy resolves shell allow-lists at call time: tool-level security
// config, then module metadata, then the policy default list.
type ShellPolicy struct {
	cfg *Config
	pol *policy.Policy
}

var _ catalog.ShellPolicy = (*ShellPolicy)(nil)

// NewShellPolicy builds the resolver. A nil engine gets a fresh one
// carrying the configuration's policy options.
func NewShellPolicy(cfg *Config, pol *policy.Policy) *ShellPolicy {
	if pol == nil {
		pol = policy.NewPolicy(cfg.PolicyOptions()...)
	}
	return &ShellPolicy{cfg: cfg, pol: pol}
}

// AllowedCommands returns the programs the named module export may run.
func (p *ShellPolicy) AllowedCommands(module, export string) []string {
	var tp *policy.SecurityPolicy
	if cmds := p.cfg.ShellAllowList(module, export); len(cmds) > 0 {
		tp = &policy.SecurityPolicy{AllowedCommands: cmds}
	}
	var desc *entities.ModuleDescriptor
	if mod := p.cfg.FindModule(module); mod != nil {
		d := mod.Descriptor()
		desc = &d
	}
	return p.pol.Commands(tp, desc)
}
