package driven

import (
	"context"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

// ScoredChunk is a chunk returned by an index search with its raw score.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Score is the index-native relevance score: cosine similarity for
	// the dense index, BM25 for the sparse index.
	Score float64
}

// DenseIndex stores chunk embeddings and supports nearest-neighbour
// search. Add is incremental within one index generation; a re-index
// builds a fresh generation rather than mutating an existing one.
type DenseIndex interface {
	// Add embeds and stores the given chunks. Previously added chunks
	// are retained.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Search embeds the query text and returns up to k chunks ordered
	// by descending similarity. Fewer than k chunks means all are
	// returned.
	Search(ctx context.Context, query string, k int) ([]ScoredChunk, error)

	// Len returns the number of chunks in the index.
	Len() int
}

// SparseIndex is a lexical term-frequency index over chunks.
type SparseIndex interface {
	// Add tokenizes and stores the given chunks. Previously added
	// chunks are retained.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Search returns up to k chunks ordered by descending lexical
	// relevance score.
	Search(ctx context.Context, query string, k int) ([]ScoredChunk, error)

	// Len returns the number of chunks in the index.
	Len() int
}
