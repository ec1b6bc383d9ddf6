package rerank

import (
	"context"
	"strings"
	"unicode"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
)

// Ensure Lexical implements the interface.
var _ driven.Reranker = (*Lexical)(nil)

// Lexical is a dependency-free re-ranker that blends the Stage 1 fusion
// score with the fraction of query terms appearing in each chunk. It is
// used as an offline substitute when no cross-encoder endpoint is
// configured; the pipeline still reports such runs as degraded when it
// falls back to Lexical after a cross-encoder failure.
type Lexical struct{}

// NewLexical creates a new lexical re-ranker.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Rerank scores candidates by query-term overlap, keeping the Stage 1
// score as a weak prior so candidates with identical overlap do not
// collapse to the same score.
func (l *Lexical) Rerank(
	_ context.Context, query string, candidates []domain.RetrievalCandidate,
) ([]float64, error) {
	queryTerms := lexTokens(query)

	scores := make([]float64, len(candidates))
	for i, cand := range candidates {
		overlap := termOverlap(queryTerms, lexTokens(cand.Chunk.Content))
		scores[i] = 0.7*overlap + 0.3*cand.Stage1Score
	}
	return scores, nil
}

// ModelName returns the name of the re-ranking model being used.
func (l *Lexical) ModelName() string {
	return "lexical-overlap"
}

// lexTokens lowercases text and splits it into alphanumeric runs.
func lexTokens(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// termOverlap returns the fraction of query terms present in the chunk.
func termOverlap(queryTerms, chunkTerms map[string]struct{}) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	matched := 0
	for term := range queryTerms {
		if _, ok := chunkTerms[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}
