package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/querra-cli/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
	"github.com/custodia-labs/querra-cli/internal/extractors"
	"github.com/custodia-labs/querra-cli/internal/extractors/plaintext"
	"github.com/custodia-labs/querra-cli/internal/index/memory"
)

func memoryIndexFactory(cfg domain.PipelineConfig) IndexFactory {
	return func() (driven.DenseIndex, driven.SparseIndex) {
		embedder := local.NewEmbeddingService(local.DefaultDimensions)
		return memory.NewDenseIndex(embedder), memory.NewSparseIndex(cfg.BM25K1, cfg.BM25B)
	}
}

func newTestPipeline(t *testing.T, reranker driven.Reranker) *PipelineService {
	t.Helper()

	cfg := domain.DefaultConfig()
	registry := extractors.NewRegistry(plaintext.New())

	p, err := NewPipelineService(cfg, registry, memoryIndexFactory(cfg), reranker, nil)
	require.NoError(t, err)
	return p
}

func writeCorpus(t *testing.T) []string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"cats.txt": "Cats are small carnivorous felines. Cats purr when they are content. " +
			"A group of cats is called a clowder.",
		"dogs.txt": "Dogs are loyal domesticated canines. Dogs bark to communicate. " +
			"Dogs have been bred for herding and hunting.",
	}

	paths := make([]string, 0, len(files))
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		paths = append(paths, path)
	}
	return paths
}

// blockingIndex implements both index ports and stalls every search
// until the caller's context expires.
type blockingIndex struct{}

func (blockingIndex) Add(context.Context, []domain.Chunk) error { return nil }

func (blockingIndex) Search(ctx context.Context, _ string, _ int) ([]driven.ScoredChunk, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingIndex) Len() int { return 0 }

// emptyIndex accepts chunks but never returns a hit.
type emptyIndex struct{}

func (emptyIndex) Add(context.Context, []domain.Chunk) error { return nil }

func (emptyIndex) Search(context.Context, string, int) ([]driven.ScoredChunk, error) {
	return nil, nil
}

func (emptyIndex) Len() int { return 0 }

// blockingGenerator stalls until its context expires.
type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingGenerator) ModelName() string { return "blocking-generator" }
func (blockingGenerator) Close() error      { return nil }

// cannedGenerator returns a fixed completion.
type cannedGenerator struct{ answer string }

func (g *cannedGenerator) Generate(context.Context, string) (string, error) {
	return g.answer, nil
}

func (g *cannedGenerator) ModelName() string { return "canned-generator" }
func (g *cannedGenerator) Close() error      { return nil }

func TestNewPipelineService(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := domain.DefaultConfig()
		cfg.ChunkOverlap = cfg.ChunkSize

		registry := extractors.NewRegistry(plaintext.New())
		_, err := NewPipelineService(cfg, registry, memoryIndexFactory(cfg), nil, nil)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("requires extractor registry", func(t *testing.T) {
		cfg := domain.DefaultConfig()
		_, err := NewPipelineService(cfg, nil, memoryIndexFactory(cfg), nil, nil)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestRunIndexing(t *testing.T) {
	t.Run("indexes a corpus and becomes ready", func(t *testing.T) {
		p := newTestPipeline(t, nil)
		assert.False(t, p.Ready())

		summary, err := p.RunIndexing(context.Background(), writeCorpus(t), 10, 2)
		require.NoError(t, err)
		assert.True(t, summary.Success)
		assert.Equal(t, 2, summary.FilesIndexed)
		assert.Positive(t, summary.ChunksCreated)
		assert.Empty(t, summary.Failures)
		assert.True(t, p.Ready())
	})

	t.Run("chunk count is deterministic across runs", func(t *testing.T) {
		p := newTestPipeline(t, nil)
		paths := writeCorpus(t)

		first, err := p.RunIndexing(context.Background(), paths, 10, 2)
		require.NoError(t, err)
		second, err := p.RunIndexing(context.Background(), paths, 10, 2)
		require.NoError(t, err)

		assert.Equal(t, first.ChunksCreated, second.ChunksCreated)
	})

	t.Run("rejects invalid chunking parameters", func(t *testing.T) {
		p := newTestPipeline(t, nil)

		_, err := p.RunIndexing(context.Background(), writeCorpus(t), 10, 10)
		assert.ErrorIs(t, err, domain.ErrConfiguration)

		_, err = p.RunIndexing(context.Background(), writeCorpus(t), -5, 0)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("zero parameters select the configured defaults", func(t *testing.T) {
		p := newTestPipeline(t, nil)

		summary, err := p.RunIndexing(context.Background(), writeCorpus(t), 0, 0)
		require.NoError(t, err)
		assert.True(t, summary.Success)
	})

	t.Run("records per-file failures without aborting the batch", func(t *testing.T) {
		p := newTestPipeline(t, nil)

		paths := writeCorpus(t)
		paths = append(paths, "/nonexistent/missing.txt", "unsupported.xyz")

		summary, err := p.RunIndexing(context.Background(), paths, 10, 2)
		require.NoError(t, err)
		assert.True(t, summary.Success)
		assert.Equal(t, 2, summary.FilesIndexed)
		require.Len(t, summary.Failures, 2)
		assert.Equal(t, "/nonexistent/missing.txt", summary.Failures[0].File)
	})

	t.Run("empty file list fails without swapping", func(t *testing.T) {
		p := newTestPipeline(t, nil)

		summary, err := p.RunIndexing(context.Background(), nil, 0, 0)
		require.NoError(t, err)
		assert.False(t, summary.Success)
		assert.False(t, p.Ready())
	})

	t.Run("all files failing leaves the pipeline unready", func(t *testing.T) {
		p := newTestPipeline(t, nil)

		summary, err := p.RunIndexing(context.Background(), []string{"/missing/a.txt"}, 0, 0)
		require.NoError(t, err)
		assert.False(t, summary.Success)
		assert.Len(t, summary.Failures, 1)
		assert.False(t, p.Ready())
	})
}

func TestQuery(t *testing.T) {
	t.Run("before indexing returns a structured failure", func(t *testing.T) {
		p := newTestPipeline(t, nil)

		resp := p.Query(context.Background(), "what are cats?", domain.QueryOptions{})
		require.NotNil(t, resp)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "no documents indexed")
		assert.Equal(t, domain.MethodNone, resp.Method)
		assert.Empty(t, resp.Answer)
	})

	t.Run("answers against the indexed corpus", func(t *testing.T) {
		p := newTestPipeline(t, &mockReranker{})

		_, err := p.RunIndexing(context.Background(), writeCorpus(t), 20, 4)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "do cats purr when content?", domain.QueryOptions{
			GuardrailsEnabled: true,
		})
		require.NotNil(t, resp)
		assert.True(t, resp.Success, "error: %s", resp.Error)
		assert.NotEmpty(t, resp.Answer)
		assert.Equal(t, domain.MethodMultiStage, resp.Method)
		assert.NotEmpty(t, resp.RetrievalDetails)
		assert.GreaterOrEqual(t, resp.ResponseTime, 0.0)

		for _, row := range resp.RetrievalDetails {
			assert.NotEmpty(t, row.ChunkID)
			assert.NotNil(t, row.Stage2Score)
		}
	})

	t.Run("without a reranker the method label reports degradation", func(t *testing.T) {
		p := newTestPipeline(t, nil)

		_, err := p.RunIndexing(context.Background(), writeCorpus(t), 20, 4)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "do dogs bark?", domain.QueryOptions{})
		require.NotNil(t, resp)
		assert.True(t, resp.Success, "error: %s", resp.Error)
		assert.Equal(t, domain.MethodHybridOnly, resp.Method)
	})

	t.Run("empty question is rejected by guardrails", func(t *testing.T) {
		p := newTestPipeline(t, nil)
		_, err := p.RunIndexing(context.Background(), writeCorpus(t), 20, 4)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "   ", domain.QueryOptions{GuardrailsEnabled: true})
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "guardrail")
	})

	t.Run("guardrails disabled lets an empty question through to retrieval", func(t *testing.T) {
		p := newTestPipeline(t, nil)
		_, err := p.RunIndexing(context.Background(), writeCorpus(t), 20, 4)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "", domain.QueryOptions{GuardrailsEnabled: false})
		require.NotNil(t, resp)
		// No guardrail rejection; retrieval may still find nothing.
		assert.NotContains(t, resp.Error, "guardrail")
	})

	t.Run("max documents out of range is rejected", func(t *testing.T) {
		p := newTestPipeline(t, nil)
		_, err := p.RunIndexing(context.Background(), writeCorpus(t), 20, 4)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "cats?", domain.QueryOptions{MaxDocuments: 50})
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "max documents")
	})

	t.Run("max documents caps the retrieval details", func(t *testing.T) {
		p := newTestPipeline(t, nil)
		_, err := p.RunIndexing(context.Background(), writeCorpus(t), 10, 2)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "cats and dogs", domain.QueryOptions{MaxDocuments: 1})
		require.True(t, resp.Success, "error: %s", resp.Error)
		assert.Len(t, resp.RetrievalDetails, 1)
	})

	t.Run("no candidates yields the fallback answer", func(t *testing.T) {
		cfg := domain.DefaultConfig()
		registry := extractors.NewRegistry(plaintext.New())
		factory := func() (driven.DenseIndex, driven.SparseIndex) {
			return emptyIndex{}, emptyIndex{}
		}
		p, err := NewPipelineService(cfg, registry, factory, &mockReranker{}, nil)
		require.NoError(t, err)
		_, err = p.RunIndexing(context.Background(), writeCorpus(t), 20, 4)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "do cats purr?", domain.QueryOptions{GuardrailsEnabled: true})
		require.NotNil(t, resp)
		assert.True(t, resp.Success, "error: %s", resp.Error)
		assert.Equal(t, domain.FallbackAnswer, resp.Answer)
		assert.Zero(t, resp.Confidence)
		assert.Equal(t, domain.MethodFallback, resp.Method)
		assert.Empty(t, resp.RetrievalDetails)
	})

	t.Run("search timeout resolves to a structured failure", func(t *testing.T) {
		cfg := domain.DefaultConfig()
		cfg.ModelTimeout = 50 * time.Millisecond
		registry := extractors.NewRegistry(plaintext.New())
		factory := func() (driven.DenseIndex, driven.SparseIndex) {
			return blockingIndex{}, blockingIndex{}
		}
		p, err := NewPipelineService(cfg, registry, factory, nil, nil)
		require.NoError(t, err)
		_, err = p.RunIndexing(context.Background(), writeCorpus(t), 20, 4)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "do cats purr?", domain.QueryOptions{})
		require.NotNil(t, resp)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, domain.ErrTimeout.Error())
		assert.Equal(t, domain.MethodNone, resp.Method)
	})

	t.Run("generator timeout degrades to an extractive answer", func(t *testing.T) {
		cfg := domain.DefaultConfig()
		cfg.ModelTimeout = 50 * time.Millisecond
		registry := extractors.NewRegistry(plaintext.New())
		p, err := NewPipelineService(cfg, registry, memoryIndexFactory(cfg), nil, blockingGenerator{})
		require.NoError(t, err)
		_, err = p.RunIndexing(context.Background(), writeCorpus(t), 20, 4)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "do cats purr when content?", domain.QueryOptions{})
		require.NotNil(t, resp)
		assert.True(t, resp.Success, "error: %s", resp.Error)
		assert.Contains(t, resp.Answer, "purr")
	})

	t.Run("ungrounded generated answer is rejected by the output guardrail", func(t *testing.T) {
		cfg := domain.DefaultConfig()
		registry := extractors.NewRegistry(plaintext.New())
		generator := &cannedGenerator{answer: "qwxzv flurble"}
		p, err := NewPipelineService(cfg, registry, memoryIndexFactory(cfg), nil, generator)
		require.NoError(t, err)
		_, err = p.RunIndexing(context.Background(), writeCorpus(t), 20, 4)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "do cats purr?", domain.QueryOptions{GuardrailsEnabled: true})
		require.NotNil(t, resp)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "not grounded")
	})

	t.Run("re-indexing swaps the generation", func(t *testing.T) {
		p := newTestPipeline(t, nil)

		paths := writeCorpus(t)
		_, err := p.RunIndexing(context.Background(), paths, 20, 4)
		require.NoError(t, err)

		dir := t.TempDir()
		solo := filepath.Join(dir, "birds.txt")
		require.NoError(t, os.WriteFile(solo, []byte("Parrots can mimic human speech."), 0o600))

		_, err = p.RunIndexing(context.Background(), []string{solo}, 20, 4)
		require.NoError(t, err)

		resp := p.Query(context.Background(), "can parrots mimic speech?", domain.QueryOptions{})
		require.True(t, resp.Success, "error: %s", resp.Error)

		// The old generation is gone: every retrieved chunk comes from
		// the new corpus.
		for _, row := range resp.RetrievalDetails {
			assert.Contains(t, row.Content, "Parrots")
		}
	})
}
