package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmforge-dev/wasmforge/wireformat"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the server version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (protocol %s)\n",
			wireformat.ServerName, wireformat.ServerVersion, wireformat.ProtocolVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
