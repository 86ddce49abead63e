package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var flagSources string

var rootCmd = &cobra.Command{
	Use:          "newsengine",
	Short:        "News signal engine",
	Long:         "newsengine ingests crypto news, scores it, and serves headlines, briefings and alerts over HTTP.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSources, "sources", "", "path to the sources YAML file (overrides SOURCES_FILE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "newsengine %s (commit: %s)\n", version, commit)
	},
}
