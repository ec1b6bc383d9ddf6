package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driving"
	"github.com/custodia-labs/querra-cli/internal/guardrails"
	"github.com/custodia-labs/querra-cli/internal/logger"
	"github.com/custodia-labs/querra-cli/internal/postprocessors"
	"github.com/custodia-labs/querra-cli/internal/postprocessors/chunker"
)

// Ensure PipelineService implements the interface.
var _ driving.Pipeline = (*PipelineService)(nil)

// IndexFactory builds a fresh, empty index pair for one generation.
// Each indexing run gets its own pair; the previous generation keeps
// serving queries until the swap.
type IndexFactory func() (driven.DenseIndex, driven.SparseIndex)

// generation is one immutable index build. Once swapped in it is only
// read; a re-index produces a new generation instead of mutating it.
type generation struct {
	dense  driven.DenseIndex
	sparse driven.SparseIndex
}

// PipelineService orchestrates the full question-answering flow:
// ingestion and index builds on one side, multi-stage retrieval and
// answer synthesis on the other.
type PipelineService struct {
	cfg        domain.PipelineConfig
	extractors driven.ExtractorRegistry
	newIndexes IndexFactory
	reranker   driven.Reranker
	synth      *Synthesizer
	checker    driven.Guardrail
	pass       driven.Guardrail

	// genMu guards gen; queries take the read lock, the post-index swap
	// takes the write lock.
	genMu sync.RWMutex
	gen   *generation

	// indexMu serializes indexing runs. Queries are not blocked by it.
	indexMu sync.Mutex
}

// NewPipelineService creates the orchestrator.
// The reranker and generator are optional (can be nil): without a
// reranker every query is Stage 1 only, without a generator answers are
// extractive.
func NewPipelineService(
	cfg domain.PipelineConfig,
	extractors driven.ExtractorRegistry,
	newIndexes IndexFactory,
	reranker driven.Reranker,
	generator driven.AnswerGenerator,
) (*PipelineService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if extractors == nil {
		return nil, fmt.Errorf("%w: extractor registry is required", domain.ErrConfiguration)
	}
	if newIndexes == nil {
		return nil, fmt.Errorf("%w: index factory is required", domain.ErrConfiguration)
	}

	return &PipelineService{
		cfg:        cfg,
		extractors: extractors,
		newIndexes: newIndexes,
		reranker:   reranker,
		synth:      NewSynthesizer(generator),
		checker:    guardrails.NewChecker(guardrails.WithMaxQueryLength(cfg.MaxQueryLength)),
		pass:       guardrails.NewPassThrough(),
	}, nil
}

// RunIndexing ingests the given files and swaps in a fresh index
// generation. Per-file failures are recorded in the summary; only
// invalid chunking parameters reject the whole run up front.
func (s *PipelineService) RunIndexing(
	ctx context.Context, filePaths []string, chunkSize, chunkOverlap int,
) (*domain.IndexingSummary, error) {
	if chunkSize == 0 {
		chunkSize = s.cfg.ChunkSize
		if chunkOverlap == 0 {
			chunkOverlap = s.cfg.ChunkOverlap
		}
	}

	chunkProc, err := chunker.New(chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	logger.Section("Indexing")
	logger.Info("Indexing %d files (chunk size %d, overlap %d)", len(filePaths), chunkSize, chunkOverlap)

	if len(filePaths) == 0 {
		return &domain.IndexingSummary{
			Success: false,
			Message: "no files to index",
		}, nil
	}

	dense, sparse := s.newIndexes()
	processing := postprocessors.NewPipeline(chunkProc)

	summary := &domain.IndexingSummary{}

	for _, path := range filePaths {
		chunks, err := s.ingestFile(ctx, processing, path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			summary.Failures = append(summary.Failures, domain.IndexingFailure{
				File:   path,
				Reason: err.Error(),
			})
			continue
		}

		if err := dense.Add(ctx, chunks); err != nil {
			return s.failSummary(summary, fmt.Errorf("dense index: %w", err)), nil
		}
		if err := sparse.Add(ctx, chunks); err != nil {
			return s.failSummary(summary, fmt.Errorf("sparse index: %w", err)), nil
		}

		summary.FilesIndexed++
		summary.ChunksCreated += len(chunks)
		logger.Debug("Indexed %s: %d chunks", path, len(chunks))
	}

	if summary.FilesIndexed == 0 {
		summary.Success = false
		summary.Message = "no files could be indexed"
		return summary, nil
	}

	s.genMu.Lock()
	s.gen = &generation{dense: dense, sparse: sparse}
	s.genMu.Unlock()

	summary.Success = true
	summary.Message = fmt.Sprintf("indexed %d files into %d chunks", summary.FilesIndexed, summary.ChunksCreated)
	logger.Info("%s (%d failures)", summary.Message, len(summary.Failures))

	return summary, nil
}

// ingestFile extracts one file and chunks it.
func (s *PipelineService) ingestFile(
	ctx context.Context, processing *postprocessors.Pipeline, path string,
) ([]domain.Chunk, error) {
	extractor, err := s.extractors.ForPath(path)
	if err != nil {
		return nil, err
	}

	doc, err := extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	chunks, err := processing.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", path, err)
	}
	return chunks, nil
}

// failSummary marks the run failed without swapping the generation.
func (s *PipelineService) failSummary(summary *domain.IndexingSummary, err error) *domain.IndexingSummary {
	logger.Warn("Indexing aborted: %v", err)
	summary.Success = false
	summary.Message = err.Error()
	return summary
}

// Query answers a question against the current index generation. Every
// failure is folded into the response; this method never panics or
// returns a Go error.
func (s *PipelineService) Query(
	ctx context.Context, question string, opts domain.QueryOptions,
) *domain.Response {
	start := time.Now()
	logger.Section("Query")
	logger.Debug("Question: %q", question)

	maxDocs := opts.MaxDocuments
	if maxDocs == 0 {
		maxDocs = s.cfg.MaxDocuments
	}
	if maxDocs < 1 || maxDocs > domain.MaxDocumentLimit {
		return failure(start, fmt.Sprintf("%v: max documents must be in 1..%d, got %d",
			domain.ErrConfiguration, domain.MaxDocumentLimit, maxDocs))
	}

	guard := s.guardFor(opts)

	if verdict := guard.CheckQuery(question); !verdict.Allowed {
		logger.Info("Query rejected: %s", verdict.Reason)
		return failure(start, fmt.Sprintf("%v: %s", domain.ErrGuardrailRejected, verdict.Reason))
	}

	gen := s.current()
	if gen == nil {
		return failure(start, domain.ErrNotIndexed.Error())
	}

	retriever := NewRetriever(gen.dense, gen.sparse, s.reranker, s.cfg)

	rctx, cancel := context.WithTimeout(ctx, s.cfg.ModelTimeout)
	candidates, err := retriever.Retrieve(rctx, question, maxDocs)
	cancel()

	method := domain.MethodMultiStage
	switch {
	case errors.Is(err, domain.ErrDegradedRanking):
		method = domain.MethodHybridOnly
	case errors.Is(err, context.DeadlineExceeded):
		return failure(start, fmt.Sprintf("%v: retrieval", domain.ErrTimeout))
	case err != nil:
		return failure(start, err.Error())
	}
	if len(candidates) == 0 {
		method = domain.MethodFallback
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.ModelTimeout)
	answer, confidence, err := s.synth.Synthesize(sctx, question, candidates)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failure(start, fmt.Sprintf("%v: synthesis", domain.ErrTimeout))
		}
		return failure(start, err.Error())
	}

	chunks := make([]domain.Chunk, len(candidates))
	for i := range candidates {
		chunks[i] = candidates[i].Chunk
	}
	if verdict := guard.CheckOutput(answer, chunks); !verdict.Allowed {
		logger.Info("Output rejected: %s", verdict.Reason)
		return failure(start, fmt.Sprintf("%v: %s", domain.ErrGuardrailRejected, verdict.Reason))
	}

	return &domain.Response{
		Success:          true,
		Answer:           answer,
		Confidence:       confidence,
		Method:           method,
		ResponseTime:     time.Since(start).Seconds(),
		RetrievalDetails: details(candidates),
	}
}

// Ready reports whether at least one indexing run has completed.
func (s *PipelineService) Ready() bool {
	return s.current() != nil
}

// current returns the serving generation, or nil before the first index.
func (s *PipelineService) current() *generation {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	return s.gen
}

// guardFor selects the guardrail strategy for this query.
func (s *PipelineService) guardFor(opts domain.QueryOptions) driven.Guardrail {
	if opts.GuardrailsEnabled {
		return s.checker
	}
	return s.pass
}

// failure builds a failed response with the elapsed time filled in.
func failure(start time.Time, reason string) *domain.Response {
	return &domain.Response{
		Success:      false,
		Method:       domain.MethodNone,
		Error:        reason,
		ResponseTime: time.Since(start).Seconds(),
	}
}

// details converts candidates to the response's retrieval detail rows.
func details(candidates []domain.RetrievalCandidate) []domain.RetrievedChunk {
	rows := make([]domain.RetrievedChunk, len(candidates))
	for i, cand := range candidates {
		rows[i] = domain.RetrievedChunk{
			ChunkID:     cand.Chunk.ID,
			DocumentID:  cand.Chunk.DocumentID,
			Position:    cand.Chunk.Position,
			Content:     cand.Chunk.Content,
			Stage1Score: cand.Stage1Score,
			Stage2Score: cand.Stage2Score,
		}
	}
	return rows
}
