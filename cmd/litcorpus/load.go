package main

import (
	"github.com/spf13/cobra"

	"litcorpus/internal/app"
)

var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Ingest a single PDF (or plain text) file into the corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

var loadCorpusCmd = &cobra.Command{
	Use:   "load-corpus <dir>",
	Short: "Ingest every PDF in a directory, in filename order",
	Long: `Ingests all PDFs in a directory in lexicographic filename order. A file
that fails to extract is skipped and reported; it never aborts the batch.
Already-ingested files are skipped without re-extraction, so re-running after
an interruption completes the remainder.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoadCorpus,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(loadCorpusCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	deps, err := app.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	path := args[0]
	if deps.Manager.Contains(path) {
		doc, _ := deps.Manager.IngestFile(cmd.Context(), path)
		cmd.Printf("Already loaded: %s (%d chars)\n", doc.Key, len(doc.Text))
		return nil
	}
	doc, err := deps.Manager.IngestFile(cmd.Context(), path)
	if err != nil {
		return err
	}
	cmd.Printf("Loaded 1 paper: %s (%d chars)\n", doc.Key, len(doc.Text))
	return nil
}

func runLoadCorpus(cmd *cobra.Command, args []string) error {
	deps, err := app.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	report, err := deps.Manager.IngestDirectory(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Corpus ready: %d papers (%d chars total)\n", deps.Manager.Len(), deps.Manager.TotalChars())
	if report.Loaded > 0 {
		cmd.Printf("  New this run: %d\n", report.Loaded)
	}
	if report.AlreadyPresent > 0 {
		cmd.Printf("  Previously loaded: %d (skipped)\n", report.AlreadyPresent)
	}
	if len(report.Skipped) > 0 {
		cmd.Printf("  Failed to extract %d file(s):\n", len(report.Skipped))
		for _, s := range report.Skipped {
			cmd.Printf("    %s: %v\n", s.Path, s.Err)
		}
	}
	if deps.Manager.Len() > 0 {
		cmd.Println("\nPapers loaded:")
		for _, d := range deps.Manager.Documents() {
			cmd.Printf("  [%03d] %-40s %10d chars\n", d.Index, d.Key, len(d.Text))
		}
	}
	return nil
}
