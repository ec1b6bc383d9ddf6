package driven

import (
	"context"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

// Reranker scores (query, chunk) pairs jointly for Stage 2 ordering.
// It operates only on the candidate set handed in; it never retrieves.
//
// A failing re-ranker must not fail the query: the retriever falls back
// to Stage 1 ordering and reports domain.ErrDegradedRanking.
type Reranker interface {
	// Rerank returns one relevance score per candidate, in input order.
	Rerank(ctx context.Context, query string, candidates []domain.RetrievalCandidate) ([]float64, error)

	// ModelName returns the name of the re-ranking model being used.
	ModelName() string
}
