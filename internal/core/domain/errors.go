package domain

import "errors"

// Domain errors represent pipeline failures with distinct handling
// policies. These are distinct from infrastructure errors.
var (
	// ErrConfiguration indicates invalid chunking or retrieval parameters.
	// Rejected before any work starts.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrExtraction indicates text extraction failed for a single file.
	// Per-file and non-fatal; recorded in the batch summary.
	ErrExtraction = errors.New("extraction failed")

	// ErrIndexCorruption indicates the current index generation is unusable
	// (e.g. embedding dimensionality mismatch). Requires a re-index.
	ErrIndexCorruption = errors.New("index corruption")

	// ErrTimeout indicates a model or search call exceeded its deadline.
	// Recoverable; the query degrades or is rejected, never hangs.
	ErrTimeout = errors.New("operation timed out")

	// ErrDegradedRanking indicates the re-ranking model was unavailable and
	// the query fell back to Stage 1 ordering. Warning-grade: the response
	// is still returned, with a method label reflecting the fallback.
	ErrDegradedRanking = errors.New("ranking degraded to stage 1")

	// ErrGuardrailRejected indicates the query or the generated output
	// failed a guardrail check. Returned as a structured failure, never
	// as a crash.
	ErrGuardrailRejected = errors.New("guardrail rejected")

	// ErrNotIndexed indicates a query arrived before any indexing run
	// completed.
	ErrNotIndexed = errors.New("no documents indexed")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable. Dense retrieval is disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGeneratorUnavailable indicates the answer generation model is not
	// configured. Synthesis degrades to extractive answers.
	ErrGeneratorUnavailable = errors.New("generator unavailable")
)
