// Package policy resolves effective security allow-lists and enforces
// glob-based checks for privileged host operations. Resolution priority is
// tool-level configuration, then module metadata, then built-in defaults.
package policy

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/wasmforge-dev/wasmforge/domain/entities"
	"github.com/wasmforge-dev/wasmforge/domain/ports"
)

// MetadataAllowedCommandsKey is the module metadata key holding a
// comma-separated shell allow-list fallback.
const MetadataAllowedCommandsKey = "allowed_commands_csv"

// SecurityPolicy is the per-tool security configuration. Empty slices fall
// through to module metadata or built-in defaults.
type SecurityPolicy struct {
	// AllowedCommands lists programs a shell tool may run.
	AllowedCommands []string

	// AllowedHosts lists doublestar patterns outbound hosts must match.
	// Empty means no host restriction (address filtering still applies).
	AllowedHosts []string

	// ReadPatterns and WritePatterns list doublestar patterns file names
	// must match for the respective operation.
	ReadPatterns  []string
	WritePatterns []string
}

// policyConfig holds configuration for the Policy engine.
type policyConfig struct {
	defaultCommands []string
	readPatterns    []string
	writePatterns   []string
	denialHandler   ports.DenialHandler
}

func defaultPolicyConfig() policyConfig {
	return policyConfig{
		defaultCommands: DefaultCommands(),
		readPatterns:    DefaultReadPatterns(),
		writePatterns:   DefaultWritePatterns(),
		denialHandler:   &StderrDenialHandler{},
	}
}

// DefaultCommands returns the built-in shell allow-list.
func DefaultCommands() []string {
	return []string{"echo", "cat", "ls", "wc", "uname"}
}

// DefaultReadPatterns returns the built-in file name patterns for reads.
// Files without an extension are always allowed.
func DefaultReadPatterns() []string {
	return []string{"*.txt", "*.md", "*.json", "*.yaml", "*.yml", "*.toml", "*.cfg", "*.log"}
}

// DefaultWritePatterns returns the built-in file name patterns for writes.
func DefaultWritePatterns() []string {
	return append(DefaultReadPatterns(), "*.tmp")
}

// PolicyOption configures the Policy.
type PolicyOption func(*policyConfig)

// WithDenialHandler sets the denial handler.
func WithDenialHandler(h ports.DenialHandler) PolicyOption {
	return func(c *policyConfig) {
		c.denialHandler = h
	}
}

// WithDefaultCommands replaces the built-in shell allow-list.
func WithDefaultCommands(commands []string) PolicyOption {
	return func(c *policyConfig) {
		c.defaultCommands = commands
	}
}

// WithReadPatterns replaces the built-in read file name patterns.
func WithReadPatterns(patterns []string) PolicyOption {
	return func(c *policyConfig) {
		c.readPatterns = patterns
	}
}

// WithWritePatterns replaces the built-in write file name patterns.
func WithWritePatterns(patterns []string) PolicyOption {
	return func(c *policyConfig) {
		c.writePatterns = patterns
	}
}

// Policy implements stateless allow-list enforcement. It is safe for
// concurrent use.
type Policy struct {
	config policyConfig
	cache  sync.Map // key: joined pattern list, value: []string (validated)
}

// NewPolicy creates a new Policy.
func NewPolicy(opts ...PolicyOption) *Policy {
	cfg := defaultPolicyConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Policy{config: cfg}
}

// getCompiled validates the pattern list once and caches the result.
// Invalid doublestar patterns are dropped rather than failing the check.
func (p *Policy) getCompiled(patterns []string) []string {
	if len(patterns) == 0 {
		return nil
	}
	key := strings.Join(patterns, "\x00")
	if v, ok := p.cache.Load(key); ok {
		return v.([]string)
	}

	valid := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if doublestar.ValidatePattern(pattern) {
			valid = append(valid, pattern)
		}
	}

	p.cache.Store(key, valid)
	return valid
}

// Commands resolves the effective shell allow-list for a tool: tool-level
// policy first, then the module's allowed_commands_csv metadata, then the
// built-in default.
func (p *Policy) Commands(tp *SecurityPolicy, desc *entities.ModuleDescriptor) []string {
	if tp != nil && len(tp.AllowedCommands) > 0 {
		return tp.AllowedCommands
	}
	if desc != nil {
		if csv, ok := desc.Metadata[MetadataAllowedCommandsKey]; ok {
			var commands []string
			for _, c := range strings.Split(csv, ",") {
				if c = strings.TrimSpace(c); c != "" {
					commands = append(commands, c)
				}
			}
			if len(commands) > 0 {
				return commands
			}
		}
	}
	return p.config.defaultCommands
}

// CheckCommand reports whether program is on the allowed list. Entries are
// matched exactly or as doublestar patterns.
func (p *Policy) CheckCommand(program string, allowed []string) bool {
	for _, entry := range p.getCompiled(allowed) {
		if entry == program {
			return true
		}
		if matched, _ := doublestar.Match(entry, program); matched {
			return true
		}
	}

	p.config.denialHandler.OnDenial("exec", program, "command not allowed")
	return false
}

// CheckHost reports whether host matches the tool's host patterns. An empty
// pattern list allows every host; address-range filtering is enforced
// separately.
func (p *Policy) CheckHost(host string, tp *SecurityPolicy) bool {
	if tp == nil || len(tp.AllowedHosts) == 0 {
		return true
	}

	host = strings.ToLower(host)
	for _, pattern := range p.getCompiled(tp.AllowedHosts) {
		if matched, _ := doublestar.Match(strings.ToLower(pattern), host); matched {
			return true
		}
	}

	p.config.denialHandler.OnDenial("network", host, "host not allowed")
	return false
}

// CheckReadPath reports whether the file name is acceptable for reading.
func (p *Policy) CheckReadPath(path string, tp *SecurityPolicy) bool {
	patterns := p.config.readPatterns
	if tp != nil && len(tp.ReadPatterns) > 0 {
		patterns = tp.ReadPatterns
	}
	if p.checkName(path, patterns) {
		return true
	}

	p.config.denialHandler.OnDenial("fs", path, "file name not allowed for read")
	return false
}

// CheckWritePath reports whether the file name is acceptable for writing.
func (p *Policy) CheckWritePath(path string, tp *SecurityPolicy) bool {
	patterns := p.config.writePatterns
	if tp != nil && len(tp.WritePatterns) > 0 {
		patterns = tp.WritePatterns
	}
	if p.checkName(path, patterns) {
		return true
	}

	p.config.denialHandler.OnDenial("fs", path, "file name not allowed for write")
	return false
}

// checkName matches the base name of path against patterns. Files without
// an extension pass unconditionally.
func (p *Policy) checkName(path string, patterns []string) bool {
	base := filepath.Base(filepath.Clean(path))
	if filepath.Ext(base) == "" {
		return true
	}

	for _, pattern := range p.getCompiled(patterns) {
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
