package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmforge-dev/wasmforge/config"
)

var toolsCmd = &cobra.Command{
	Use:          "tools",
	Short:        "Load the configured modules and print their tools as JSON",
	Args:         cobra.NoArgs,
	RunE:         runTools,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

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

	ctx := cmd.Context()
	srv, err := buildServer(ctx, cfg, cfgPath, logger)
	if err != nil {
		return err
	}
	defer srv.Close(context.Background())

	if err := srv.Start(ctx); err != nil {
		return err
	}

	out, err := json.MarshalIndent(srv.Tools(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode tools: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
