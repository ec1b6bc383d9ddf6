package driving

import (
	"context"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

// Pipeline is the boundary the presentation layer consumes. Both
// operations are synchronous from the caller's perspective; internal
// work may be parallelized within a call.
type Pipeline interface {
	// RunIndexing ingests the given files, chunks them and builds a
	// fresh index generation, swapping it in atomically on success.
	// Per-file extraction failures are recorded in the summary and do
	// not abort the batch. The returned error is non-nil only for
	// configuration errors rejected before any work started.
	RunIndexing(ctx context.Context, filePaths []string, chunkSize, chunkOverlap int) (*domain.IndexingSummary, error)

	// Query answers a question against the current index generation.
	// It never returns a Go error: every failure is folded into a
	// Response with Success=false and Error populated.
	Query(ctx context.Context, question string, opts domain.QueryOptions) *domain.Response

	// Ready reports whether at least one indexing run has completed.
	Ready() bool
}
