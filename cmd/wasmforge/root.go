package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wasmforge-dev/wasmforge/config"
)

var rootCmd = &cobra.Command{
	Use:   "wasmforge",
	Short: "Tool server backed by WebAssembly modules",
	Long: `wasmforge serves the exported functions of configured WebAssembly
modules as tools over line-oriented JSON-RPC.

Without --port the server speaks on stdin/stdout, one request and one
response per line. With --port (or a default_port in the configuration)
it listens on TCP and serves connections concurrently. Logs always go
to stderr. A missing configuration file is created with defaults on
first run.`,
	Args:         cobra.NoArgs,
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default: user config dir)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.Flags().IntP("port", "p", 0, "TCP port to listen on (0 means stdio)")
	rootCmd.Flags().String("host", "", "Host to bind (default from config)")
	rootCmd.Flags().Bool("watch", false, "Reload local modules when their files change")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfgPath, err := configPath(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.LoadOrCreate(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Info("configuration loaded", "path", cfgPath, "modules", len(cfg.EnabledModules()))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	srv, err := buildServer(ctx, cfg, cfgPath, logger)
	if err != nil {
		return err
	}
	defer srv.Close(context.Background())

	if err := srv.Start(ctx); err != nil {
		return err
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		watcher, err := srv.WatchModules(ctx)
		if err != nil {
			return fmt.Errorf("watch modules: %w", err)
		}
		defer watcher.Stop()
	}

	host, port := endpoint(cmd, cfg)
	if port > 0 {
		return srv.ServeTCP(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
	}
	return srv.ServeStdio(ctx)
}

// endpoint resolves where to listen: flags first, then the server section
// of the configuration. Port zero means stdio.
func endpoint(cmd *cobra.Command, cfg *config.Config) (string, int) {
	port := cfg.Server.DefaultPort
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}
	host := cfg.Server.DefaultHost
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return host, port
}

func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

// newLogger builds the stderr logger. Stdout stays reserved for protocol
// traffic.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", name)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}
