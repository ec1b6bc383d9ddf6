package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
)

// Ensure DenseIndex implements the interface.
var _ driven.DenseIndex = (*DenseIndex)(nil)

// denseEntry pairs a chunk with its embedding vector.
type denseEntry struct {
	chunk  domain.Chunk
	vector []float32
}

// DenseIndex is an in-memory embedding index using cosine similarity.
//
// Add is incremental: repeated calls append to the same generation and
// never discard previously indexed chunks. Replacing the corpus is the
// orchestrator's job, done by building a new DenseIndex and swapping it in.
type DenseIndex struct {
	mu        sync.RWMutex
	embedding driven.EmbeddingService
	entries   []denseEntry
	dims      int
}

// NewDenseIndex creates an empty dense index backed by the given
// embedding service.
func NewDenseIndex(embedding driven.EmbeddingService) *DenseIndex {
	return &DenseIndex{embedding: embedding}
}

// Add embeds and stores the given chunks.
// The first batch pins the generation's dimensionality; any later vector
// of a different size means the embedding model changed underneath the
// index and the generation is corrupt.
func (idx *DenseIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if idx.embedding == nil {
		return domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	vectors, err := idx.embedding.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks",
			domain.ErrIndexCorruption, len(vectors), len(chunks))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i, vec := range vectors {
		if idx.dims == 0 {
			idx.dims = len(vec)
		}
		if len(vec) != idx.dims {
			return fmt.Errorf("%w: embedding dimensionality %d does not match index dimensionality %d",
				domain.ErrIndexCorruption, len(vec), idx.dims)
		}
		idx.entries = append(idx.entries, denseEntry{chunk: chunks[i], vector: vec})
	}

	return nil
}

// Search embeds the query text with the index's embedding service and
// returns up to k chunks by descending cosine similarity. Ties break by
// original document order for determinism.
func (idx *DenseIndex) Search(ctx context.Context, query string, k int) ([]driven.ScoredChunk, error) {
	if idx.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := idx.embedding.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 {
		return nil, nil
	}
	if len(vec) != idx.dims {
		return nil, fmt.Errorf("%w: query embedding dimensionality %d does not match index dimensionality %d",
			domain.ErrIndexCorruption, len(vec), idx.dims)
	}

	hits := make([]driven.ScoredChunk, 0, len(idx.entries))
	for _, e := range idx.entries {
		hits = append(hits, driven.ScoredChunk{
			Chunk: e.chunk,
			Score: cosine(vec, e.vector),
		})
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
func (idx *DenseIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// cosine computes cosine similarity between two vectors of equal length.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
