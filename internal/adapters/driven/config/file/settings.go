// Package file provides TOML-backed configuration for the pipeline.
// Settings live in a single config.toml within the querra config
// directory; missing keys fall back to the documented defaults.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

// Provider names accepted in the embedding, reranker and generator
// sections.
const (
	ProviderLocal   = "local"
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderHTTP    = "http"
	ProviderLexical = "lexical"
	ProviderNone    = "none"
)

// Settings is the on-disk configuration.
type Settings struct {
	Pipeline  PipelineSettings  `toml:"pipeline"`
	Embedding EmbeddingSettings `toml:"embedding"`
	Reranker  RerankerSettings  `toml:"reranker"`
	Generator GeneratorSettings `toml:"generator"`
}

// PipelineSettings maps to domain.PipelineConfig.
type PipelineSettings struct {
	ChunkSize         int     `toml:"chunk_size"`
	ChunkOverlap      int     `toml:"chunk_overlap"`
	GuardrailsEnabled bool    `toml:"guardrails_enabled"`
	MaxDocuments      int     `toml:"max_documents"`
	FanoutFactor      int     `toml:"fanout_factor"`
	Fusion            string  `toml:"fusion"`
	Alpha             float64 `toml:"alpha"`
	RRFK              int     `toml:"rrf_k"`
	BM25K1            float64 `toml:"bm25_k1"`
	BM25B             float64 `toml:"bm25_b"`
	MaxQueryLength    int     `toml:"max_query_length"`
	ModelTimeoutSecs  int     `toml:"model_timeout_seconds"`
}

// EmbeddingSettings selects and configures the embedding service.
type EmbeddingSettings struct {
	Provider   string `toml:"provider"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`
}

// RerankerSettings selects and configures the Stage 2 re-ranker.
type RerankerSettings struct {
	Provider string `toml:"provider"`
	Endpoint string `toml:"endpoint"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
}

// GeneratorSettings selects and configures answer generation.
type GeneratorSettings struct {
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`
}

// Default returns settings matching the documented pipeline defaults:
// local embeddings, lexical re-ranking and extractive answers, so a
// fresh install works with no external services.
func Default() *Settings {
	cfg := domain.DefaultConfig()
	return &Settings{
		Pipeline: PipelineSettings{
			ChunkSize:         cfg.ChunkSize,
			ChunkOverlap:      cfg.ChunkOverlap,
			GuardrailsEnabled: cfg.GuardrailsEnabled,
			MaxDocuments:      cfg.MaxDocuments,
			FanoutFactor:      cfg.FanoutFactor,
			Fusion:            string(cfg.Fusion),
			Alpha:             cfg.Alpha,
			RRFK:              cfg.RRFK,
			BM25K1:            cfg.BM25K1,
			BM25B:             cfg.BM25B,
			MaxQueryLength:    cfg.MaxQueryLength,
			ModelTimeoutSecs:  int(cfg.ModelTimeout / time.Second),
		},
		Embedding: EmbeddingSettings{Provider: ProviderLocal},
		Reranker:  RerankerSettings{Provider: ProviderLexical},
		Generator: GeneratorSettings{Provider: ProviderNone},
	}
}

// DefaultPath returns ~/.querra/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".querra", "config.toml"), nil
}

// Load reads settings from the given path. A missing file yields the
// defaults; a malformed file is an error.
func Load(path string) (*Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, path, err)
	}

	return settings, nil
}

// Save writes the settings to the given path, creating the directory
// with restricted permissions.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Restricted permissions: the file may hold API keys.
	return os.WriteFile(path, data, 0o600)
}

// PipelineConfig converts the pipeline section to the domain config.
// The result still needs Validate before use.
func (s *Settings) PipelineConfig() domain.PipelineConfig {
	return domain.PipelineConfig{
		ChunkSize:         s.Pipeline.ChunkSize,
		ChunkOverlap:      s.Pipeline.ChunkOverlap,
		GuardrailsEnabled: s.Pipeline.GuardrailsEnabled,
		MaxDocuments:      s.Pipeline.MaxDocuments,
		FanoutFactor:      s.Pipeline.FanoutFactor,
		Fusion:            domain.FusionMethod(s.Pipeline.Fusion),
		Alpha:             s.Pipeline.Alpha,
		RRFK:              s.Pipeline.RRFK,
		BM25K1:            s.Pipeline.BM25K1,
		BM25B:             s.Pipeline.BM25B,
		MaxQueryLength:    s.Pipeline.MaxQueryLength,
		ModelTimeout:      time.Duration(s.Pipeline.ModelTimeoutSecs) * time.Second,
	}
}
