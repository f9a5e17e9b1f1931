package host

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
	"github.com/wasmforge-dev/wasmforge/domain/errors"
)

// Executor owns the wazero runtime and the table of loaded modules.
// The table is replaced wholesale on (re)load: concurrent readers
// observe the previous table or the new one, never a partially built
// state.
type Executor struct {
	config  hostConfig
	runtime wazero.Runtime

	mu      sync.RWMutex
	modules map[string]*Module
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	cfg := defaultHostConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.region.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input region: %w", err)
	}
	if cfg.callTimeout <= 0 {
		return nil, fmt.Errorf("call timeout must be positive, got %v", cfg.callTimeout)
	}

	rc := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	return &Executor{
		config:  cfg,
		runtime: wazero.NewRuntimeWithConfig(ctx, rc),
		modules: make(map[string]*Module),
	}, nil
}

// Load compiles and instantiates a module without registering it in the
// table. The instance imports nothing and runs no start function, so
// the first guest code to execute is the first explicit call.
func (e *Executor) Load(ctx context.Context, name string, binary []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, binary)
	if err != nil {
		return nil, &errors.LoadError{Err: err, Name: name, Stage: "compile"}
	}

	exports := make(map[string]entities.Signature)
	for exportName, def := range compiled.ExportedFunctions() {
		exports[exportName] = signatureOf(def)
	}
	names := make([]string, 0, len(exports))
	for exportName := range exports {
		names = append(names, exportName)
	}
	sort.Strings(names)

	instance, err := e.runtime.InstantiateModule(ctx, compiled, moduleConfig(name))
	if err != nil {
		compiled.Close(ctx)
		return nil, &errors.LoadError{Err: err, Name: name, Stage: "instantiate"}
	}

	e.config.logger.Debug("module instantiated",
		"module", name,
		"exports", len(names),
		"region_offset", e.config.region.Offset,
		"region_capacity", e.config.region.Capacity)

	return &Module{
		name:     name,
		runtime:  e.runtime,
		compiled: compiled,
		instance: instance,
		exports:  exports,
		names:    names,
		region:   e.config.region,
		timeout:  e.config.callTimeout,
		logger:   e.config.logger,
	}, nil
}

// Install atomically replaces the module table and returns the modules
// it displaced, so the caller can close them once in-flight calls have
// drained. Modules present in both tables are not displaced.
func (e *Executor) Install(modules []*Module) []*Module {
	next := make(map[string]*Module, len(modules))
	for _, m := range modules {
		next[m.name] = m
	}

	e.mu.Lock()
	prev := e.modules
	e.modules = next
	e.mu.Unlock()

	var displaced []*Module
	for name, m := range prev {
		if next[name] != m {
			displaced = append(displaced, m)
		}
	}
	return displaced
}

// Get returns the named module from the current table.
func (e *Executor) Get(name string) (*Module, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.modules[name]
	return m, ok
}

// Modules returns a snapshot of the current table sorted by name.
func (e *Executor) Modules() []*Module {
	e.mu.RLock()
	out := make([]*Module, 0, len(e.modules))
	for _, m := range e.modules {
		out = append(out, m)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Region returns the input region modules are loaded with.
func (e *Executor) Region() entities.InputRegion {
	return e.config.region
}

// Close releases the runtime and every instance and compiled module it
// owns.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}
