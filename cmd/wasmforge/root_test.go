package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmforge-dev/wasmforge/config"
	"github.com/wasmforge-dev/wasmforge/internal/wasmtest"
)

func flagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().IntP("port", "p", 0, "")
	cmd.Flags().String("host", "", "")
	cmd.Flags().String("log-level", "info", "")
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		server   config.ServerConfig
		wantHost string
		wantPort int
	}{
		{
			name:     "stdio by default",
			wantHost: "127.0.0.1",
			wantPort: 0,
		},
		{
			name:     "config default port and host",
			server:   config.ServerConfig{DefaultPort: 9000, DefaultHost: "0.0.0.0"},
			wantHost: "0.0.0.0",
			wantPort: 9000,
		},
		{
			name:     "port flag beats config",
			args:     []string{"--port", "7000"},
			server:   config.ServerConfig{DefaultPort: 9000, DefaultHost: "127.0.0.1"},
			wantHost: "127.0.0.1",
			wantPort: 7000,
		},
		{
			name:     "explicit zero port forces stdio",
			args:     []string{"--port", "0"},
			server:   config.ServerConfig{DefaultPort: 9000, DefaultHost: "127.0.0.1"},
			wantHost: "127.0.0.1",
			wantPort: 0,
		},
		{
			name:     "host flag beats config",
			args:     []string{"--host", "10.0.0.5", "-p", "8080"},
			server:   config.ServerConfig{DefaultHost: "0.0.0.0"},
			wantHost: "10.0.0.5",
			wantPort: 8080,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := flagCmd(t, tt.args...)
			cfg := &config.Config{Server: tt.server}

			host, port := endpoint(cmd, cfg)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cmd := flagCmd(t, "--log-level", level)
		logger, err := newLogger(cmd)
		require.NoError(t, err, level)
		require.NotNil(t, logger)
	}

	cmd := flagCmd(t, "--log-level", "loud")
	_, err := newLogger(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, out.String(), "wasmforge 0.1.0")
	assert.Contains(t, out.String(), "2024-11-05")
}

func TestBuildServer(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "calc.wasm"), wasmtest.CalcModule(), 0o644))

	cfg := config.Default()
	cfg.Cache.Directory = t.TempDir()
	cfg.Modules = []config.ModuleConfig{{
		Name:    "calc",
		Source:  config.SourceConfig{Type: "local", Path: "calc.wasm"},
		Enabled: true,
		Tools: []config.ToolConfig{{
			Name:         "add",
			FunctionName: "add",
			Description:  "Sum a and b",
		}},
	}}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := buildServer(ctx, &cfg, cfgPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	require.NoError(t, srv.Start(ctx))

	tools := srv.Tools()
	require.NotEmpty(t, tools)

	var found bool
	for _, tool := range tools {
		if tool.Name == "add" {
			found = true
			assert.Equal(t, "Sum a and b", tool.Description, "config override must reach the catalog")
		}
	}
	assert.True(t, found, "primary module tools are unprefixed")
}
