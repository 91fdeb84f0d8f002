package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"litcorpus/internal/app"
	"litcorpus/internal/config"
	"litcorpus/internal/store"
)

// Document listing cap keeps status readable on big corpora.
const statusListMax = 20

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a summary of the current corpus",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all corpus state and materialized chunk files",
	Long: `Deletes the durable state record, the in-memory corpus and all
materialized chunk files. Destructive and irreversible; there is no undo.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	deps, err := app.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	buffers, err := deps.Buffers.Entries(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Println("litcorpus status")
	cmd.Printf("  Data dir     : %s\n", deps.Config.DataDir)
	cmd.Printf("  Papers loaded: %d\n", deps.Manager.Len())
	cmd.Printf("  Total chars  : %d\n", deps.Manager.TotalChars())
	cmd.Printf("  Buffers      : %d\n", len(buffers))

	docs := deps.Manager.Documents()
	if len(docs) > 0 {
		cmd.Println("\n  Papers:")
		for i, d := range docs {
			if i == statusListMax {
				cmd.Printf("    ... and %d more\n", len(docs)-statusListMax)
				break
			}
			cmd.Printf("    [%03d] %-40s %10d chars\n", d.Index, d.Key, len(d.Text))
		}
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	// Bare build: reset must succeed even when the state record is corrupt.
	deps, err := app.BuildBare(cmd.Context())
	if err != nil {
		var corrupt *store.CorruptionError
		if errors.As(err, &corrupt) {
			// Too damaged to open at all. Remove the files directly.
			return resetDamagedState(cmd)
		}
		return err
	}
	defer deps.Close()

	if err := deps.Manager.Reset(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("Corpus state deleted.")
	return nil
}

func resetDamagedState(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := store.RemoveSQLiteState(cfg.DataDir); err != nil {
		return err
	}
	if err := os.RemoveAll(cfg.ChunksDir()); err != nil {
		return err
	}
	cmd.Println("Corpus state deleted.")
	return nil
}
