package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
)

// Ensure SparseIndex implements the interface.
var _ driven.SparseIndex = (*SparseIndex)(nil)

// sparseEntry holds per-chunk term statistics.
type sparseEntry struct {
	chunk     domain.Chunk
	termFreqs map[string]int
	length    int
}

// SparseIndex is an in-memory BM25 index over chunk text.
//
// Scoring uses Okapi BM25 with configurable k1 and b (defaults 1.2 and
// 0.75 from domain.DefaultConfig). Like DenseIndex, Add is incremental
// within one generation; re-indexing builds a fresh index.
type SparseIndex struct {
	mu      sync.RWMutex
	k1      float64
	b       float64
	entries []sparseEntry
	docFreq map[string]int
	totalWd int
}

// NewSparseIndex creates an empty BM25 index with the given parameters.
func NewSparseIndex(k1, b float64) *SparseIndex {
	return &SparseIndex{
		k1:      k1,
		b:       b,
		docFreq: make(map[string]int),
	}
}

// Add tokenizes and stores the given chunks, retaining earlier ones.
func (idx *SparseIndex) Add(_ context.Context, chunks []domain.Chunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, c := range chunks {
		terms := Tokenize(c.Content)
		freqs := make(map[string]int, len(terms))
		for _, t := range terms {
			freqs[t]++
		}
		for t := range freqs {
			idx.docFreq[t]++
		}
		idx.entries = append(idx.entries, sparseEntry{
			chunk:     c,
			termFreqs: freqs,
			length:    len(terms),
		})
		idx.totalWd += len(terms)
	}
	return nil
}

// Search scores every chunk sharing a term with the query and returns up
// to k chunks by descending BM25 score. Ties break by original document
// order for determinism.
func (idx *SparseIndex) Search(_ context.Context, query string, k int) ([]driven.ScoredChunk, error) {
	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.entries)
	if n == 0 {
		return nil, nil
	}
	avgLen := float64(idx.totalWd) / float64(n)

	hits := make([]driven.ScoredChunk, 0, n)
	for _, e := range idx.entries {
		score := 0.0
		for _, t := range queryTerms {
			tf := e.termFreqs[t]
			if tf == 0 {
				continue
			}
			df := idx.docFreq[t]
			idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
			norm := idx.k1 * (1 - idx.b + idx.b*float64(e.length)/avgLen)
			score += idf * float64(tf) * (idx.k1 + 1) / (float64(tf) + norm)
		}
		if score > 0 {
			hits = append(hits, driven.ScoredChunk{Chunk: e.chunk, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Chunk.DocumentID != hits[j].Chunk.DocumentID {
			return hits[i].Chunk.DocumentID < hits[j].Chunk.DocumentID
		}
		return hits[i].Chunk.Position < hits[j].Chunk.Position
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed chunks.
func (idx *SparseIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// stopWords are dropped during tokenization. Fixed so that results are
// deterministic across runs.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

// Tokenize lowercases the text, splits on any non-alphanumeric rune and
// drops stop words. This policy is fixed: changing it invalidates every
// sparse generation, so it lives in exactly one place.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
