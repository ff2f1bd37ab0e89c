// Package cmd wires the CLI commands for the civickb server.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "civickb",
	Short: "civickb - knowledge ingestion and tool assignment service",
	Long: `civickb manages the knowledge base lifecycle for municipal AI
assistants: ingestion of documents, links and sitemaps via the external
crawler, processing status tracking, bulk filtered updates, and the
assignment of typed tools (vector search, web crawl, web search) to
assistants.

Run "civickb serve" to start the HTTP API.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
