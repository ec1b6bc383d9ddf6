package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/querra-cli/internal/watch"
)

var (
	watchDebounce     time.Duration
	watchChunkSize    int
	watchChunkOverlap int
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and re-index on changes",
	Long: `Indexes every supported file under the directory, then watches it
and rebuilds the index whenever files change. Changes are debounced so
a burst of writes triggers a single rebuild.

Runs until interrupted. Pair it with "mcp serve" in another process or
use it to keep a long-running session fresh.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce,
		"quiet period after the last change before re-indexing")
	watchCmd.Flags().IntVar(&watchChunkSize, "chunk-size", 0, "chunk length in words (0 = configured default)")
	watchCmd.Flags().IntVar(&watchChunkOverlap, "chunk-overlap", 0, "words shared between consecutive chunks")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline not configured")
	}
	if extractorRegistry == nil {
		return errors.New("extractor registry not configured")
	}

	dir := args[0]
	watcher := watch.New(pipelineService, extractorRegistry,
		watch.WithDebounce(watchDebounce),
		watch.WithChunking(watchChunkSize, watchChunkOverlap),
	)

	cmd.Printf("Watching %s (Ctrl-C to stop)\n", dir)

	err := watcher.Run(cmd.Context(), dir)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
