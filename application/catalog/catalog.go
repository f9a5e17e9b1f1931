package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/wasmforge-dev/wasmforge/application/schema"
	"github.com/wasmforge-dev/wasmforge/domain/entities"
)

// Guest is the calling surface of one loaded module.
type Guest interface {
	CallTwoInt32(ctx context.Context, export string, a, b int32) (int32, error)
	CallNoArgs(ctx context.Context, export string) (int32, error)
	CallWithInput(ctx context.Context, export string, payload []byte) (int32, error)
}

// Module is what discovery needs from a loaded module: the export table for
// classification plus the calling surface the bound handlers capture.
type Module interface {
	Guest
	Name() string
	ExportNames() []string
	Signature(export string) (entities.Signature, bool)
}

// Override replaces generated metadata for one export's tool. Zero-valued
// fields keep the generated value. Overrides never apply to virtual tools.
type Override struct {
	Description string
	InputSchema json.RawMessage
}

// Overrides is keyed by module name, then export name.
type Overrides map[string]map[string]Override

// Catalog is the immutable tool surface built from a set of modules.
// Lookups and invocations are lock-free; reload builds a replacement.
type Catalog struct {
	tools    []entities.ToolDescriptor // sorted by name
	handlers map[string]Handler
}

type buildConfig struct {
	logger     *slog.Logger
	overrides  Overrides
	middleware []Middleware
}

// BuildOption configures catalog construction.
type BuildOption func(*buildConfig)

// WithLogger sets the logger used during discovery and by handlers.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(cfg *buildConfig) {
		cfg.logger = logger
	}
}

// WithOverrides applies configured per-export description and schema
// replacements after discovery.
func WithOverrides(overrides Overrides) BuildOption {
	return func(cfg *buildConfig) {
		cfg.overrides = overrides
	}
}

// WithMiddleware wraps every bound handler. Middleware executes in FIFO
// order: the first one given wraps outermost.
func WithMiddleware(mw ...Middleware) BuildOption {
	return func(cfg *buildConfig) {
		cfg.middleware = append(cfg.middleware, mw...)
	}
}

// entry pairs a discovered tool with what bind needs to build its handler.
type entry struct {
	tool    entities.ToolDescriptor
	module  Module
	act     action
	direct  entities.DirectBinding
	virtual entities.VirtualBinding
}

type builder struct {
	config  buildConfig
	deps    Dependencies
	primary string
	seen    map[string]bool
	entries []entry
	errs    []error
}

// Build discovers tools across the given modules and binds each one to a
// handler. The first module is the primary namespace: its tools keep bare
// names, every other module's tools are prefixed "{module}_". Name
// collisions keep the first tool discovered.
func Build(modules []Module, deps Dependencies, opts ...BuildOption) (*Catalog, error) {
	if len(modules) == 0 {
		return nil, fmt.Errorf("catalog requires at least one module")
	}

	cfg := buildConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &builder{
		config:  cfg,
		deps:    deps,
		primary: modules[0].Name(),
		seen:    make(map[string]bool),
	}
	for _, m := range modules {
		b.discoverModule(m)
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	sort.Slice(b.entries, func(i, j int) bool {
		return b.entries[i].tool.Name < b.entries[j].tool.Name
	})
	tools := make([]entities.ToolDescriptor, len(b.entries))
	for i, e := range b.entries {
		tools[i] = e.tool
	}

	handlers := make(map[string]Handler, len(b.entries))
	for _, e := range b.entries {
		handler, err := b.bind(e, tools)
		if err != nil {
			return nil, err
		}
		// Applied in reverse so the first middleware wraps outermost.
		for i := len(cfg.middleware) - 1; i >= 0; i-- {
			handler = cfg.middleware[i](handler)
		}
		handlers[e.tool.Name] = handler
	}

	cfg.logger.Info("tool catalog built",
		"modules", len(modules),
		"tools", len(tools))

	return &Catalog{tools: tools, handlers: handlers}, nil
}

// discoverModule synthesizes the module's virtual tools, then walks its
// exports in sorted order. Virtual tools go first so they win collisions,
// matching their precedence in listings.
func (b *builder) discoverModule(m Module) {
	b.discoverCompositions(m)

	names := append([]string(nil), m.ExportNames()...)
	sort.Strings(names)
	for _, export := range names {
		if strings.HasPrefix(export, "_") {
			continue
		}
		sig, ok := m.Signature(export)
		if !ok {
			continue
		}
		b.discoverExport(m, export, sig)
	}
}

// discoverExport classifies one export and records its tool. The convention
// table refines the raw two-i32 shape into pointer/length semantics for
// well-known names; everything else follows pure classification.
func (b *builder) discoverExport(m Module, export string, sig entities.Signature) {
	var (
		pattern     entities.SignaturePattern
		act         action
		inputSchema json.RawMessage
		fallback    string
	)

	if conv, ok := conventions[export]; ok && sig.Matches(entities.PatternPointerLength) {
		pattern = entities.PatternPointerLength
		act = conv.act
		inputSchema = conv.schema
		fallback = genericTextDescription
	} else {
		switch entities.Classify(sig) {
		case entities.PatternTwoInt32:
			pattern = entities.PatternTwoInt32
			act = actionTwoInt
			inputSchema = schema.TwoInt
			fallback = "Takes two integers and returns an integer"
		case entities.PatternNoArgs:
			pattern = entities.PatternNoArgs
			act = actionNoArgs
			inputSchema = schema.NoArgs
			fallback = "Takes no parameters and returns an integer"
		default:
			b.config.logger.Debug("export skipped",
				"module", m.Name(),
				"export", export,
				"signature", sig.String())
			return
		}
	}

	direct := entities.DirectBinding{
		Module:  m.Name(),
		Export:  export,
		Pattern: pattern,
	}
	tool := entities.ToolDescriptor{
		Name:        b.qualify(m.Name(), export),
		Description: describe(export, fallback, m.Name()),
		InputSchema: inputSchema,
		Binding:     direct,
	}
	b.applyOverride(m.Name(), export, &tool)
	b.add(entry{tool: tool, module: m, act: act, direct: direct})
}

func (b *builder) applyOverride(module, export string, tool *entities.ToolDescriptor) {
	ov, ok := b.config.overrides[module][export]
	if !ok {
		return
	}
	if ov.Description != "" {
		tool.Description = ov.Description
	}
	if len(ov.InputSchema) > 0 {
		if !json.Valid(ov.InputSchema) {
			b.errs = append(b.errs, fmt.Errorf("override schema for %s.%s is not valid JSON", module, export))
			return
		}
		tool.InputSchema = ov.InputSchema
	}
}

func (b *builder) add(e entry) {
	if b.seen[e.tool.Name] {
		b.config.logger.Warn("tool name collision, keeping first",
			"tool", e.tool.Name,
			"module", e.module.Name())
		return
	}
	b.seen[e.tool.Name] = true
	b.entries = append(b.entries, e)
	b.config.logger.Debug("tool discovered",
		"tool", e.tool.Name,
		"module", e.module.Name())
}

// qualify maps an export or rule name into the catalog namespace. Dashes
// are folded to underscores so tool names stay identifier-like.
func (b *builder) qualify(module, name string) string {
	if module == b.primary {
		return name
	}
	return strings.ReplaceAll(module+"_"+name, "-", "_")
}

// Tools returns the catalog's descriptors in name order.
func (c *Catalog) Tools() []entities.ToolDescriptor {
	out := make([]entities.ToolDescriptor, len(c.tools))
	copy(out, c.tools)
	return out
}

// Lookup returns the descriptor for one tool name.
func (c *Catalog) Lookup(name string) (entities.ToolDescriptor, bool) {
	for _, tool := range c.tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return entities.ToolDescriptor{}, false
}

// Len returns the number of tools in the catalog.
func (c *Catalog) Len() int {
	return len(c.tools)
}

// Invoke runs the named tool against its bound handler.
func (c *Catalog) Invoke(ctx context.Context, name string, args map[string]any) (entities.InvocationResult, error) {
	handler, ok := c.handlers[name]
	if !ok {
		return entities.InvocationResult{}, fmt.Errorf("Unknown tool: %s", name)
	}
	return handler(WithToolName(ctx, name), args)
}
