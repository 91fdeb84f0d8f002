package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "litcorpus",
	Short: "Persistent corpus ingestion and retrieval engine for PDF literature",
	Long: `litcorpus ingests a directory of PDF papers into a durable local corpus
and answers keyword, regex and citation queries over it.

Ingestion is resumable: state is committed after every document, so an
interrupted load-corpus run picks up where it left off. All query commands
are read-only.`,
	SilenceUsage: true,
}

// printJSON renders query results for both humans and scripts.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
