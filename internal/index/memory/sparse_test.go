package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

func TestSparseIndex_AddAndSearch(t *testing.T) {
	idx := NewSparseIndex(domain.DefaultBM25K1, domain.DefaultBM25B)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, makeChunks("doc-1",
		"microsoft reported diluted earnings per share",
		"the weather was sunny all week",
		"earnings grew over the previous quarter",
	)))
	assert.Equal(t, 3, idx.Len())

	hits, err := idx.Search(ctx, "diluted earnings per share", 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "microsoft reported diluted earnings per share", hits[0].Chunk.Content)

	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestSparseIndex_NoMatches(t *testing.T) {
	idx := NewSparseIndex(domain.DefaultBM25K1, domain.DefaultBM25B)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, makeChunks("doc-1", "alpha beta gamma")))

	hits, err := idx.Search(ctx, "zebra quokka", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSparseIndex_StopWordOnlyQuery(t *testing.T) {
	idx := NewSparseIndex(domain.DefaultBM25K1, domain.DefaultBM25B)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, makeChunks("doc-1", "some content here")))

	hits, err := idx.Search(ctx, "the of and", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSparseIndex_KLimit(t *testing.T) {
	idx := NewSparseIndex(domain.DefaultBM25K1, domain.DefaultBM25B)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, makeChunks("doc-1",
		"shared term apple one",
		"shared term apple two",
		"shared term apple three",
		"shared term apple four",
	)))

	hits, err := idx.Search(ctx, "apple", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestTokenize(t *testing.T) {
	t.Run("lowercases and strips punctuation", func(t *testing.T) {
		terms := Tokenize("The Cat, sat; ON mats!")
		assert.Equal(t, []string{"cat", "sat", "mats"}, terms)
	})

	t.Run("keeps digits", func(t *testing.T) {
		terms := Tokenize("revenue in 2023 rose 4.5%")
		assert.Equal(t, []string{"revenue", "2023", "rose", "4", "5"}, terms)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Tokenize("  \t\n"))
	})
}

func TestSparseIndex_Deterministic(t *testing.T) {
	build := func() []string {
		idx := NewSparseIndex(domain.DefaultBM25K1, domain.DefaultBM25B)
		ctx := context.Background()
		_ = idx.Add(ctx, makeChunks("doc-a", "gold silver copper", "silver copper tin"))
		_ = idx.Add(ctx, makeChunks("doc-b", "copper tin lead", "gold lead zinc"))
		hits, _ := idx.Search(ctx, "copper gold", 4)
		ids := make([]string, len(hits))
		for i, h := range hits {
			ids[i] = h.Chunk.ID
		}
		return ids
	}

	assert.Equal(t, build(), build())
}
