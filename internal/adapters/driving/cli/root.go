// Package cli provides the cobra command tree for the querra binary.
// Services are injected from main via the Set* functions so commands
// stay testable with mocks.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/querra-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driving"
	"github.com/custodia-labs/querra-cli/internal/logger"
)

// version is set from main at startup.
var version = "dev"

// Injected services.
var (
	pipelineService   driving.Pipeline
	extractorRegistry driven.ExtractorRegistry
	appSettings       = file.Default()
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "querra",
	Short: "Question answering over local documents",
	Long: `Querra answers questions from your local documents.

Documents are chunked and indexed into a dense (embedding) and a sparse
(BM25) index. Questions run through hybrid retrieval, cross-encoder
re-ranking and answer synthesis, with guardrails on both input and
output.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging to stderr")
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetPipeline injects the pipeline service used by all commands.
func SetPipeline(p driving.Pipeline) {
	pipelineService = p
}

// SetExtractors injects the extractor registry used to discover
// indexable files.
func SetExtractors(r driven.ExtractorRegistry) {
	extractorRegistry = r
}

// SetSettings injects the loaded configuration for per-command defaults.
func SetSettings(s *file.Settings) {
	if s != nil {
		appSettings = s
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context, so
// long-running commands stop on signal-driven cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
