package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"litcorpus/internal/app"
)

var bufferCmd = &cobra.Command{
	Use:   "buffer",
	Short: "Manage the scratch buffer log",
}

var bufferAddCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Append text to the buffer log (reads stdin when no args)",
	RunE:  runBufferAdd,
}

var bufferExportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write all buffered entries to one file (does not clear the log)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBufferExport,
}

var bufferClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the buffer log",
	Args:  cobra.NoArgs,
	RunE:  runBufferClear,
}

func init() {
	bufferCmd.AddCommand(bufferAddCmd, bufferExportCmd, bufferClearCmd)
	rootCmd.AddCommand(bufferCmd)
}

func runBufferAdd(cmd *cobra.Command, args []string) error {
	deps, err := app.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	text := strings.Join(args, " ")
	if text == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to buffer")
	}

	entry, err := deps.Buffers.Add(cmd.Context(), text)
	if err != nil {
		return err
	}
	cmd.Printf("Buffered entry %d (%d chars)\n", entry.Seq, len(entry.Text))
	return nil
}

func runBufferExport(cmd *cobra.Command, args []string) error {
	deps, err := app.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	n, err := deps.Buffers.Export(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Wrote %d buffers to: %s\n", n, args[0])
	return nil
}

func runBufferClear(cmd *cobra.Command, args []string) error {
	deps, err := app.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := deps.Buffers.Clear(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("Buffer log cleared.")
	return nil
}
