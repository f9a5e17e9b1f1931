package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wasmforge-dev/wasmforge/application/catalog"
	"github.com/wasmforge-dev/wasmforge/application/manager"
	"github.com/wasmforge-dev/wasmforge/domain/entities"
	"github.com/wasmforge-dev/wasmforge/host"
)

// Server wires descriptor resolution, module loading, catalog construction,
// and the dispatcher into one serving pipeline.
type Server struct {
	logger      *slog.Logger
	manager     *manager.Manager
	executor    *host.Executor
	deps        catalog.Dependencies
	overrides   catalog.Overrides
	middleware  []catalog.Middleware
	descriptors []entities.ModuleDescriptor
	dispatcher  *Dispatcher

	mu sync.Mutex // serializes catalog rebuilds
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOverrides applies configured per-export tool metadata replacements
// to every catalog build.
func WithOverrides(overrides catalog.Overrides) Option {
	return func(s *Server) {
		s.overrides = overrides
	}
}

// WithMiddleware wraps every bound handler of every catalog build.
func WithMiddleware(mw ...catalog.Middleware) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// New creates a server over the given collaborators. Descriptor order is
// significant: the first descriptor names the primary module, whose tools
// keep bare names. Call Start before serving.
func New(mgr *manager.Manager, exec *host.Executor, deps catalog.Dependencies, descriptors []entities.ModuleDescriptor, opts ...Option) *Server {
	s := &Server{
		logger:      slog.Default(),
		manager:     mgr,
		executor:    exec,
		deps:        deps,
		descriptors: append([]entities.ModuleDescriptor(nil), descriptors...),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatcher = NewDispatcher(nil, WithDispatcherLogger(s.logger))
	return s
}

// Start resolves and loads every configured module, then builds and
// installs the first catalog. Individual module failures are logged and
// skipped; Start fails only when no module loads at all.
func (s *Server) Start(ctx context.Context) error {
	resolved := s.manager.ResolveAll(ctx, s.descriptors)

	modules := make([]*host.Module, 0, len(resolved))
	for _, desc := range s.descriptors {
		data, ok := resolved[desc.Name]
		if !ok {
			continue
		}
		mod, err := s.executor.Load(ctx, desc.Name, data)
		if err != nil {
			s.logger.Error("module load failed", "module", desc.Name, "error", err)
			continue
		}
		modules = append(modules, mod)
	}
	if len(modules) == 0 {
		return fmt.Errorf("no modules could be loaded")
	}
	return s.install(ctx, modules)
}

// Reload re-resolves one module, loads the fresh binary, and swaps in a
// catalog rebuilt over the new instance. Other modules keep their loaded
// instances; the replaced instance is closed once the swap is done, so
// calls still in flight on it fail instead of running stale code.
func (s *Server) Reload(ctx context.Context, name string) error {
	desc, ok := s.descriptor(name)
	if !ok {
		return fmt.Errorf("module %q is not configured", name)
	}
	data, err := s.manager.Resolve(ctx, desc)
	if err != nil {
		return err
	}
	fresh, err := s.executor.Load(ctx, name, data)
	if err != nil {
		return err
	}

	modules := make([]*host.Module, 0, len(s.descriptors))
	for _, d := range s.descriptors {
		if d.Name == name {
			modules = append(modules, fresh)
			continue
		}
		if mod, ok := s.executor.Get(d.Name); ok {
			modules = append(modules, mod)
		}
	}

	if err := s.install(ctx, modules); err != nil {
		if cerr := fresh.Close(ctx); cerr != nil {
			s.logger.Warn("unused module close failed", "module", name, "error", cerr)
		}
		return err
	}
	s.logger.Info("module reloaded", "module", name)
	return nil
}

// install builds a catalog over modules, registers them with the executor,
// and swaps the dispatcher's catalog. Displaced instances are closed only
// after the new catalog is serving.
func (s *Server) install(ctx context.Context, modules []*host.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mods := make([]catalog.Module, len(modules))
	for i, m := range modules {
		mods[i] = m
	}
	cat, err := catalog.Build(mods, s.deps,
		catalog.WithLogger(s.logger),
		catalog.WithOverrides(s.overrides),
		catalog.WithMiddleware(s.middleware...),
	)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	displaced := s.executor.Install(modules)
	s.dispatcher.Swap(cat)
	for _, old := range displaced {
		if err := old.Close(ctx); err != nil {
			s.logger.Warn("displaced module close failed", "module", old.Name(), "error", err)
		}
	}
	return nil
}

func (s *Server) descriptor(name string) (entities.ModuleDescriptor, bool) {
	for _, d := range s.descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return entities.ModuleDescriptor{}, false
}

// Dispatcher returns the protocol dispatcher bound to this server.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Tools lists the current catalog's descriptors in name order.
func (s *Server) Tools() []entities.ToolDescriptor {
	cat := s.dispatcher.Catalog()
	if cat == nil {
		return nil
	}
	return cat.Tools()
}

// ServeStdio serves the protocol over stdin/stdout until EOF.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.dispatcher.ServeStdio(ctx)
}

// ServeTCP serves the protocol over a TCP listener on addr until ctx is
// cancelled.
func (s *Server) ServeTCP(ctx context.Context, addr string) error {
	return s.dispatcher.ServeTCP(ctx, addr)
}

// Close releases the runtime and every loaded module.
func (s *Server) Close(ctx context.Context) error {
	return s.executor.Close(ctx)
}
