package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/wasmforge-dev/wasmforge/application/catalog"
	"github.com/wasmforge-dev/wasmforge/application/manager"
	"github.com/wasmforge-dev/wasmforge/application/recommend"
	"github.com/wasmforge-dev/wasmforge/config"
	"github.com/wasmforge-dev/wasmforge/domain/policy"
	"github.com/wasmforge-dev/wasmforge/host"
	"github.com/wasmforge-dev/wasmforge/infrastructure/fetch"
	"github.com/wasmforge-dev/wasmforge/infrastructure/modcache"
	"github.com/wasmforge-dev/wasmforge/security"
	"github.com/wasmforge-dev/wasmforge/server"
)

// buildServer assembles the full stack from the configuration: policy
// engine, host-side guards, module manager over the file cache, wazero
// executor, and the serving layer on top.
func buildServer(ctx context.Context, cfg *config.Config, cfgPath string, logger *slog.Logger) (*server.Server, error) {
	overrides, err := cfg.Overrides()
	if err != nil {
		return nil, err
	}

	pol := policy.NewPolicy(cfg.PolicyOptions()...)

	var httpOpts []security.HTTPGuardOption
	var fileOpts []security.FileGuardOption
	if tp := cfg.SecurityPolicy(); tp != nil {
		httpOpts = append(httpOpts, security.WithHTTPPolicy(tp))
		fileOpts = append(fileOpts, security.WithFilePolicy(tp))
	}

	// Tool fetches are capped at the response ceiling; module downloads
	// get their own fetcher with the larger default cap.
	toolFetcher := fetch.NewFetcher(fetch.WithMaxSize(security.MaxResponseSize))
	deps := catalog.Dependencies{
		HTTP:        security.NewHTTPGuard(toolFetcher, pol, httpOpts...),
		Files:       security.NewFileGuard(pol, fileOpts...),
		Shell:       security.NewShellGuard(security.NewExecRunner(), pol),
		ShellPolicy: config.NewShellPolicy(cfg, pol),
		Recommender: recommend.NewScorer(),
	}

	store := modcache.NewFileStore(modcache.WithDir(cfg.Cache.Directory))
	mgr := manager.NewManager(fetch.NewFetcher(), store,
		manager.WithConfigDir(filepath.Dir(cfgPath)),
		manager.WithTTL(cfg.TTL()),
		manager.WithCacheBudget(cfg.CacheBudget()),
		manager.WithLogger(logger),
	)

	exec, err := host.NewExecutor(ctx, host.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("start wasm runtime: %w", err)
	}

	srv := server.New(mgr, exec, deps, cfg.Descriptors(),
		server.WithLogger(logger),
		server.WithOverrides(overrides),
		server.WithMiddleware(catalog.PanicRecovery(), catalog.Logging(logger)),
	)
	return srv, nil
}
