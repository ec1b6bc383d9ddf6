package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

var (
	indexDir          string
	indexChunkSize    int
	indexChunkOverlap int
	indexJSON         bool
)

var indexCmd = &cobra.Command{
	Use:   "index [files...]",
	Short: "Index documents for querying",
	Long: `Chunks the given files and builds a fresh in-memory index
generation, reporting how many files and chunks were indexed.

Supported formats: plain text (.txt, .md, .csv, .log), PDF and DOCX.
Files that cannot be extracted are reported and skipped; they never
abort the batch.

The index lives in process memory, so this command is mainly a corpus
health check: use "querra ask --files/--dir" to index and query in one
run, or "querra mcp serve --dir" for a long-running server.`,
	Args: cobra.ArbitraryArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexDir, "dir", "d", "", "index every supported file under this directory")
	indexCmd.Flags().IntVar(&indexChunkSize, "chunk-size", 0, "chunk length in words (0 = configured default)")
	indexCmd.Flags().IntVar(&indexChunkOverlap, "chunk-overlap", 0, "words shared between consecutive chunks")
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline not configured")
	}

	files, err := gatherFiles(args, indexDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no files given: pass file paths or --dir")
	}

	summary, err := pipelineService.RunIndexing(cmd.Context(), files, indexChunkSize, indexChunkOverlap)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if indexJSON {
		return printJSON(cmd, summary)
	}

	printSummary(cmd, summary)
	if !summary.Success {
		return errors.New(summary.Message)
	}
	return nil
}

func printSummary(cmd *cobra.Command, summary *domain.IndexingSummary) {
	cmd.Printf("%s\n", summary.Message)
	if len(summary.Failures) > 0 {
		cmd.Println("\nSkipped:")
		for _, failure := range summary.Failures {
			cmd.Printf("  %s: %s\n", failure.File, failure.Reason)
		}
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// gatherFiles merges explicit paths with the supported files found
// under dir. Explicit paths are passed through untouched so the
// pipeline can report unsupported ones per file.
func gatherFiles(explicit []string, dir string) ([]string, error) {
	files := append([]string(nil), explicit...)

	if dir == "" {
		return files, nil
	}
	if extractorRegistry == nil {
		return nil, errors.New("extractor registry not configured")
	}

	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if _, lookupErr := extractorRegistry.ForPath(path); lookupErr != nil {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	sort.Strings(found)
	return append(files, found...), nil
}
