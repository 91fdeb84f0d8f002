package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"litcorpus/internal/app"
	"litcorpus/internal/chunker"
	"litcorpus/internal/corpus"
	"litcorpus/internal/index"
)

var (
	queryDoc     int
	queryMax     int
	chunkSize    int
	chunkOverlap int
	chunkOut     string
)

var queryCmd = &cobra.Command{
	Use:   "query <operation> [args...]",
	Short: "Run a retrieval operation over the corpus",
	Long: `Runs one retrieval operation by name and prints the result as JSON.

Operations:
  list-papers              list loaded documents
  get-paper <index|key>    one document with its full text
  find <keyword>           keyword search over metadata (falls back to text)
  cite <author year...>    passages mentioning a reference
  claim <claim text...>    passages relevant to a claim
  grep <pattern>           regex search (--doc restricts to one document)
  grep-count <pattern>     count regex matches
  refs <index>             extract a document's reference list
  stats                    corpus overview with term frequencies
  peek <start> <end>       slice of the concatenated corpus
  chunks                   materialize chunk files (--out, --size, --overlap, --doc)

All operations are read-only except chunks, which writes chunk files but
never mutates the corpus.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryDoc, "doc", index.AllDocuments, "restrict to one document index (-1 = whole corpus)")
	queryCmd.Flags().IntVar(&queryMax, "max", 0, "maximum matches to return (0 = operation default)")
	queryCmd.Flags().IntVar(&chunkSize, "size", 0, "chunk size in chars for the chunks operation (0 = configured default)")
	queryCmd.Flags().IntVar(&chunkOverlap, "overlap", -1, "chunk overlap in chars for the chunks operation (-1 = configured default)")
	queryCmd.Flags().StringVar(&chunkOut, "out", "", "output directory for the chunks operation (default: <data dir>/chunks)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	deps, err := app.Build(cmd.Context())
	if err != nil {
		return err
	}
	defer deps.Close()

	op, rest := args[0], args[1:]
	switch op {
	case "list-papers":
		return printJSON(cmd, deps.Index.FindPapers(""))

	case "get-paper":
		if len(rest) != 1 {
			return fmt.Errorf("usage: query get-paper <index-or-key>")
		}
		doc, ok := lookupDoc(deps.Manager, rest[0])
		if !ok {
			return fmt.Errorf("no document with index or key %q", rest[0])
		}
		return printJSON(cmd, doc)

	case "find":
		if len(rest) != 1 {
			return fmt.Errorf("usage: query find <keyword>")
		}
		return printJSON(cmd, deps.Index.FindPapers(rest[0]))

	case "cite":
		if len(rest) == 0 {
			return fmt.Errorf("usage: query cite <author year...>")
		}
		return printJSON(cmd, deps.Index.Cite(strings.Join(rest, " "), queryMax))

	case "claim":
		if len(rest) == 0 {
			return fmt.Errorf("usage: query claim <claim text...>")
		}
		return printJSON(cmd, deps.Index.SearchClaim(strings.Join(rest, " "), queryMax))

	case "grep":
		if len(rest) != 1 {
			return fmt.Errorf("usage: query grep <pattern>")
		}
		matches, err := deps.Index.Grep(rest[0], queryDoc, queryMax)
		if err != nil {
			return err
		}
		return printJSON(cmd, matches)

	case "grep-count":
		if len(rest) != 1 {
			return fmt.Errorf("usage: query grep-count <pattern>")
		}
		count, err := deps.Index.GrepCount(rest[0], queryDoc)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]int{"count": count})

	case "refs":
		if len(rest) != 1 {
			return fmt.Errorf("usage: query refs <document-index>")
		}
		idx, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("invalid document index %q", rest[0])
		}
		refs, err := deps.Index.ExtractReferences(idx)
		if err != nil {
			return err
		}
		return printJSON(cmd, refs)

	case "stats":
		stats, err := deps.Index.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, stats)

	case "peek":
		if len(rest) != 2 {
			return fmt.Errorf("usage: query peek <start> <end>")
		}
		start, err1 := strconv.Atoi(rest[0])
		end, err2 := strconv.Atoi(rest[1])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("peek bounds must be integers")
		}
		cmd.Println(deps.Index.Peek(start, end))
		return nil

	case "chunks":
		return runChunks(cmd, deps)

	default:
		return fmt.Errorf("unknown operation %q (see: litcorpus query --help)", op)
	}
}

// lookupDoc resolves a numeric index or a bibkey to a document.
func lookupDoc(m *corpus.Manager, ref string) (corpus.Document, bool) {
	if idx, err := strconv.Atoi(ref); err == nil {
		return m.Get(idx)
	}
	return m.GetByKey(ref)
}

func runChunks(cmd *cobra.Command, deps app.Deps) error {
	opts := chunker.Options{
		Size:    deps.Config.ChunkSize,
		Overlap: deps.Config.ChunkOverlap,
	}
	if chunkSize > 0 {
		opts.Size = chunkSize
	}
	if chunkOverlap >= 0 {
		opts.Overlap = chunkOverlap
	}
	out := chunkOut
	if out == "" {
		out = deps.Config.ChunksDir()
	}

	var (
		paths []string
		err   error
	)
	if queryDoc == index.AllDocuments {
		paths, err = deps.Manager.MaterializeCorpus(out, opts)
	} else {
		paths, err = deps.Manager.MaterializeDocument(queryDoc, out, opts)
	}
	if err != nil {
		return err
	}
	return printJSON(cmd, paths)
}
