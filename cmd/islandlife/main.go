package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "islandlife",
		Short:        "Local-first pet records with optional bucket backup",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (environment variables take precedence)")

	root.AddCommand(serveCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(importCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(adviceCmd())
	root.AddCommand(versionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
