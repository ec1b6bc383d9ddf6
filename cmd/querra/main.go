// Command querra answers questions from local documents using
// multi-stage retrieval: hybrid dense+sparse search, cross-encoder
// re-ranking and answer synthesis.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/querra-cli/internal/adapters/driven/config/file"
	embeddinglocal "github.com/custodia-labs/querra-cli/internal/adapters/driven/embedding/local"
	embeddingollama "github.com/custodia-labs/querra-cli/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/custodia-labs/querra-cli/internal/adapters/driven/embedding/openai"
	llmollama "github.com/custodia-labs/querra-cli/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/querra-cli/internal/adapters/driven/rerank"
	"github.com/custodia-labs/querra-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
	"github.com/custodia-labs/querra-cli/internal/core/services"
	"github.com/custodia-labs/querra-cli/internal/extractors"
	"github.com/custodia-labs/querra-cli/internal/extractors/docx"
	"github.com/custodia-labs/querra-cli/internal/extractors/pdf"
	"github.com/custodia-labs/querra-cli/internal/extractors/plaintext"
	"github.com/custodia-labs/querra-cli/internal/index/memory"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "querra: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	cfg := settings.PipelineConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	embedder, err := buildEmbedding(settings)
	if err != nil {
		return err
	}
	defer embedder.Close()

	reranker, err := buildReranker(settings)
	if err != nil {
		return err
	}

	generator := buildGenerator(settings)
	if generator != nil {
		defer generator.Close()
	}

	registry := extractors.NewRegistry(plaintext.New(), pdf.New(), docx.New())

	factory := func() (driven.DenseIndex, driven.SparseIndex) {
		return memory.NewDenseIndex(embedder), memory.NewSparseIndex(cfg.BM25K1, cfg.BM25B)
	}

	pipeline, err := services.NewPipelineService(cfg, registry, factory, reranker, generator)
	if err != nil {
		return err
	}

	cli.SetVersion(version)
	cli.SetPipeline(pipeline)
	cli.SetExtractors(registry)
	cli.SetSettings(settings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.ExecuteContext(ctx)
}

// loadSettings reads ~/.querra/config.toml, or QUERRA_CONFIG when set.
func loadSettings() (*file.Settings, error) {
	path := os.Getenv("QUERRA_CONFIG")
	if path == "" {
		defaultPath, err := file.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		path = defaultPath
	}
	return file.Load(path)
}

func buildEmbedding(settings *file.Settings) (driven.EmbeddingService, error) {
	e := settings.Embedding
	switch e.Provider {
	case file.ProviderLocal, "":
		return embeddinglocal.NewEmbeddingService(e.Dimensions), nil

	case file.ProviderOllama:
		return embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL:    e.BaseURL,
			Model:      e.Model,
			Dimensions: e.Dimensions,
		}), nil

	case file.ProviderOpenAI:
		return embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:     e.APIKey,
			BaseURL:    e.BaseURL,
			Model:      e.Model,
			Dimensions: e.Dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfiguration, e.Provider)
	}
}

func buildReranker(settings *file.Settings) (driven.Reranker, error) {
	r := settings.Reranker
	switch r.Provider {
	case file.ProviderLexical, "":
		return rerank.NewLexical(), nil

	case file.ProviderHTTP:
		return rerank.NewCrossEncoder(rerank.Config{
			Endpoint: r.Endpoint,
			Model:    r.Model,
			APIKey:   r.APIKey,
			Timeout:  settings.PipelineConfig().ModelTimeout,
		})

	case file.ProviderNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: unknown reranker provider %q", domain.ErrConfiguration, r.Provider)
	}
}

func buildGenerator(settings *file.Settings) driven.AnswerGenerator {
	g := settings.Generator
	if g.Provider != file.ProviderOllama {
		return nil
	}
	return llmollama.NewGenerator(llmollama.Config{
		BaseURL: g.BaseURL,
		Model:   g.Model,
		Timeout: 2 * time.Minute,
	})
}
