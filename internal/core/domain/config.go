package domain

import (
	"fmt"
	"time"
)

// FusionMethod selects how dense and sparse result sets are merged.
type FusionMethod string

// Available fusion methods.
const (
	// FusionWeighted sums max-normalized dense and sparse scores,
	// weighted by Alpha.
	FusionWeighted FusionMethod = "weighted"

	// FusionRRF merges by reciprocal rank with constant RRFK.
	FusionRRF FusionMethod = "rrf"
)

// IsValid returns true if the fusion method is recognised.
func (m FusionMethod) IsValid() bool {
	return m == FusionWeighted || m == FusionRRF
}

// Default configuration values. Chunk defaults follow the ingestion
// contract (300-word chunks with a 50-word overlap).
const (
	DefaultChunkSize    = 300
	DefaultChunkOverlap = 50
	DefaultMaxDocuments = 5
	DefaultFanoutFactor = 3
	DefaultAlpha        = 0.5
	DefaultRRFK         = 60
	DefaultBM25K1       = 1.2
	DefaultBM25B        = 0.75
	DefaultMaxQueryLen  = 2000
	DefaultModelTimeout = 30 * time.Second

	// MaxDocumentLimit caps MaxDocuments per the query contract (1..10).
	MaxDocumentLimit = 10
)

// PipelineConfig is the immutable configuration value object for the
// pipeline. Construct with DefaultConfig and validate with Validate
// before use; a validated config is never mutated afterwards.
type PipelineConfig struct {
	// ChunkSize is the chunk length in words.
	ChunkSize int

	// ChunkOverlap is the number of words shared between consecutive
	// chunks. Must be non-negative and strictly less than ChunkSize.
	ChunkOverlap int

	// GuardrailsEnabled toggles query and output guardrail checks.
	// When false every check passes unconditionally; the checks remain
	// wired, only the pass-through strategy is selected.
	GuardrailsEnabled bool

	// MaxDocuments is the default cap on chunks handed to the
	// synthesizer (1..10).
	MaxDocuments int

	// FanoutFactor scales the per-index candidate count: each index is
	// asked for MaxDocuments*FanoutFactor candidates so the re-ranker
	// has enough material. Must be at least 2.
	FanoutFactor int

	// Fusion selects the Stage 1 merge rule.
	Fusion FusionMethod

	// Alpha weights dense scores in weighted fusion (0=sparse only,
	// 1=dense only).
	Alpha float64

	// RRFK is the reciprocal-rank-fusion constant.
	RRFK int

	// BM25K1 and BM25B are the sparse-index scoring parameters.
	BM25K1 float64
	BM25B  float64

	// MaxQueryLength is the guardrail cap on question length in runes.
	MaxQueryLength int

	// ModelTimeout bounds every embedding, re-ranking and generation
	// call. Exceeding it is a recoverable failure, never a hang.
	ModelTimeout time.Duration
}

// DefaultConfig returns a config populated with the documented defaults.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize:         DefaultChunkSize,
		ChunkOverlap:      DefaultChunkOverlap,
		GuardrailsEnabled: true,
		MaxDocuments:      DefaultMaxDocuments,
		FanoutFactor:      DefaultFanoutFactor,
		Fusion:            FusionWeighted,
		Alpha:             DefaultAlpha,
		RRFK:              DefaultRRFK,
		BM25K1:            DefaultBM25K1,
		BM25B:             DefaultBM25B,
		MaxQueryLength:    DefaultMaxQueryLen,
		ModelTimeout:      DefaultModelTimeout,
	}
}

// Validate checks all parameters. Every violation is reported as
// ErrConfiguration so callers can reject bad input before any work starts.
func (c PipelineConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must be non-negative, got %d", ErrConfiguration, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be less than chunk size %d",
			ErrConfiguration, c.ChunkOverlap, c.ChunkSize)
	}
	if c.MaxDocuments < 1 || c.MaxDocuments > MaxDocumentLimit {
		return fmt.Errorf("%w: max documents must be in 1..%d, got %d",
			ErrConfiguration, MaxDocumentLimit, c.MaxDocuments)
	}
	if c.FanoutFactor < 2 {
		return fmt.Errorf("%w: fanout factor must be at least 2, got %d", ErrConfiguration, c.FanoutFactor)
	}
	if !c.Fusion.IsValid() {
		return fmt.Errorf("%w: unknown fusion method %q", ErrConfiguration, c.Fusion)
	}
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be in [0,1], got %g", ErrConfiguration, c.Alpha)
	}
	if c.RRFK <= 0 {
		return fmt.Errorf("%w: rrf constant must be positive, got %d", ErrConfiguration, c.RRFK)
	}
	if c.BM25K1 < 0 {
		return fmt.Errorf("%w: bm25 k1 must be non-negative, got %g", ErrConfiguration, c.BM25K1)
	}
	if c.BM25B < 0 || c.BM25B > 1 {
		return fmt.Errorf("%w: bm25 b must be in [0,1], got %g", ErrConfiguration, c.BM25B)
	}
	if c.MaxQueryLength <= 0 {
		return fmt.Errorf("%w: max query length must be positive, got %d", ErrConfiguration, c.MaxQueryLength)
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("%w: model timeout must be positive, got %s", ErrConfiguration, c.ModelTimeout)
	}
	return nil
}
