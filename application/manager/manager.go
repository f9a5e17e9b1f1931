// Package manager resolves module descriptors to verified wasm bytes.
// Local paths are tried against the configuration directory before the
// working directory; remote sources go through the content-addressed cache
// with sha256 verification before any byte reaches the runtime.
package manager

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
	"github.com/wasmforge-dev/wasmforge/domain/errors"
	"github.com/wasmforge-dev/wasmforge/domain/ports"
	"github.com/wasmforge-dev/wasmforge/infrastructure/modcache"
)

var wasmPreamble = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// ValidatePreamble checks the 8-byte magic and version header of a wasm
// binary.
func ValidatePreamble(data []byte) error {
	if len(data) < len(wasmPreamble) || !bytes.Equal(data[:len(wasmPreamble)], wasmPreamble) {
		return fmt.Errorf("not a WebAssembly v1 module")
	}
	return nil
}

// managerConfig holds configuration for the Manager.
type managerConfig struct {
	logger      *slog.Logger
	configDir   string
	workDir     string
	ttl         time.Duration
	cacheBudget int64
}

func defaultManagerConfig() managerConfig {
	return managerConfig{
		logger:  slog.Default(),
		workDir: ".",
		ttl:     time.Hour,
	}
}

// ManagerOption configures a Manager instance.
type ManagerOption func(*managerConfig)

// WithConfigDir sets the directory relative local paths are tried first.
func WithConfigDir(dir string) ManagerOption {
	return func(c *managerConfig) {
		c.configDir = dir
	}
}

// WithWorkDir sets the fallback directory for relative local paths.
// Default is the process working directory.
func WithWorkDir(dir string) ManagerOption {
	return func(c *managerConfig) {
		if dir != "" {
			c.workDir = dir
		}
	}
}

// WithTTL sets the cache entry lifetime. Zero or negative disables expiry.
func WithTTL(d time.Duration) ManagerOption {
	return func(c *managerConfig) {
		c.ttl = d
	}
}

// WithCacheBudget caps total cache size in bytes; oldest entries are pruned
// after each store. Zero disables pruning.
func WithCacheBudget(budget int64) ManagerOption {
	return func(c *managerConfig) {
		c.cacheBudget = budget
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(c *managerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Manager turns module descriptors into verified bytes. It is safe for
// concurrent use; resolutions of the same source are deduplicated.
type Manager struct {
	config  managerConfig
	fetcher ports.Fetcher
	store   ports.ModuleStore
	group   singleflight.Group
}

// NewManager creates a Manager backed by the given fetcher and store.
func NewManager(fetcher ports.Fetcher, store ports.ModuleStore, opts ...ManagerOption) *Manager {
	cfg := defaultManagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Manager{config: cfg, fetcher: fetcher, store: store}
}

// Resolve returns the module bytes for desc.
func (m *Manager) Resolve(ctx context.Context, desc entities.ModuleDescriptor) ([]byte, error) {
	v, err, _ := m.group.Do(desc.Source.String(), func() (interface{}, error) {
		return m.resolve(ctx, desc)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// ResolveAll resolves descriptors concurrently. Per-module failures are
// logged and omitted from the result; the remaining modules still load.
func (m *Manager) ResolveAll(ctx context.Context, descs []entities.ModuleDescriptor) map[string][]byte {
	var mu sync.Mutex
	results := make(map[string][]byte, len(descs))

	g, ctx := errgroup.WithContext(ctx)
	for _, desc := range descs {
		g.Go(func() error {
			data, err := m.Resolve(ctx, desc)
			if err != nil {
				m.config.logger.Error("module resolution failed",
					"module", desc.Name, "source", desc.Source.String(), "error", err)
				return nil
			}
			mu.Lock()
			results[desc.Name] = data
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (m *Manager) resolve(ctx context.Context, desc entities.ModuleDescriptor) ([]byte, error) {
	switch desc.Source.Kind {
	case entities.SourceLocal:
		return m.resolveLocal(desc)
	case entities.SourceRemote:
		return m.resolveRemote(ctx, desc)
	case entities.SourceRegistry:
		return nil, &errors.ModuleUnavailableError{
			Name: desc.Name,
			Err:  fmt.Errorf("registry sources are not supported"),
		}
	default:
		return nil, &errors.ModuleUnavailableError{
			Name: desc.Name,
			Err:  fmt.Errorf("unknown source kind %q", desc.Source.Kind),
		}
	}
}

// localCandidates lists the paths a local source is tried against, in
// resolution order.
func (m *Manager) localCandidates(path string) []string {
	if filepath.IsAbs(path) {
		return []string{path}
	}
	candidates := make([]string, 0, 2)
	if m.config.configDir != "" {
		candidates = append(candidates, filepath.Join(m.config.configDir, path))
	}
	return append(candidates, filepath.Join(m.config.workDir, path))
}

// LocalPath reports where a local descriptor's file currently resolves on
// disk, using the same candidate order as Resolve. The second return is
// false for non-local sources and for files that do not exist.
func (m *Manager) LocalPath(desc entities.ModuleDescriptor) (string, bool) {
	if desc.Source.Kind != entities.SourceLocal {
		return "", false
	}
	for _, candidate := range m.localCandidates(desc.Source.Path) {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// resolveLocal reads a module from disk. Relative paths are tried against
// the configuration directory first, then the working directory.
func (m *Manager) resolveLocal(desc entities.ModuleDescriptor) ([]byte, error) {
	var firstErr error
	for _, candidate := range m.localCandidates(desc.Source.Path) {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := ValidatePreamble(data); err != nil {
			return nil, &errors.ModuleUnavailableError{Name: desc.Name, Source: candidate, Err: err}
		}
		m.config.logger.Debug("module loaded from disk", "module", desc.Name, "path", candidate)
		return data, nil
	}
	return nil, &errors.ModuleUnavailableError{Name: desc.Name, Source: desc.Source.Path, Err: firstErr}
}

// resolveRemote serves from the cache when possible, otherwise fetches,
// verifies, and populates the cache. Bytes failing checksum verification
// are discarded and never stored.
func (m *Manager) resolveRemote(ctx context.Context, desc entities.ModuleDescriptor) ([]byte, error) {
	src := desc.Source
	now := time.Now()

	if src.Checksum != "" {
		data, entry, err := m.store.Get(src.Checksum)
		if err != nil {
			m.config.logger.Warn("module cache read failed", "module", desc.Name, "error", err)
		}
		if entry != nil && !entry.Expired(now, m.config.ttl) {
			m.config.logger.Debug("module cache hit", "module", desc.Name, "checksum", src.Checksum)
			return data, nil
		}
	} else {
		data, entry, err := m.store.GetByURL(src.URL)
		if err != nil {
			m.config.logger.Warn("module cache read failed", "module", desc.Name, "error", err)
		}
		if entry != nil && !entry.Expired(now, m.config.ttl) {
			m.config.logger.Debug("module cache hit", "module", desc.Name, "url", src.URL)
			return data, nil
		}
	}

	data, err := m.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, &errors.ModuleUnavailableError{Name: desc.Name, Source: src.URL, Err: err}
	}

	actual := modcache.Checksum(data)
	if src.Checksum != "" && actual != src.Checksum {
		return nil, &errors.IntegrityError{Name: desc.Name, Expected: src.Checksum, Actual: actual}
	}
	if err := ValidatePreamble(data); err != nil {
		return nil, &errors.ModuleUnavailableError{Name: desc.Name, Source: src.URL, Err: err}
	}

	entry := entities.CacheEntry{Checksum: actual, SourceURL: src.URL, CachedAt: now.Unix()}
	if err := m.store.Put(data, entry); err != nil {
		m.config.logger.Warn("module cache write failed", "module", desc.Name, "error", err)
	} else if m.config.cacheBudget > 0 {
		evicted, err := m.store.Prune(m.config.cacheBudget)
		if err != nil {
			m.config.logger.Warn("module cache prune failed", "error", err)
		} else if evicted > 0 {
			m.config.logger.Info("module cache pruned", "evicted", evicted)
		}
	}

	m.config.logger.Info("module fetched",
		"module", desc.Name, "url", src.URL, "bytes", len(data), "checksum", actual)
	return data, nil
}
