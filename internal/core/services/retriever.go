package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
	"github.com/custodia-labs/querra-cli/internal/logger"
)

// Retriever runs the two retrieval stages: hybrid dense+sparse search
// with score fusion (Stage 1), then cross-encoder re-ranking (Stage 2).
type Retriever struct {
	dense    driven.DenseIndex
	sparse   driven.SparseIndex
	reranker driven.Reranker
	cfg      domain.PipelineConfig
}

// NewRetriever creates a retriever over the given index pair.
// The reranker is optional; when nil every query degrades to Stage 1
// ordering.
func NewRetriever(
	dense driven.DenseIndex,
	sparse driven.SparseIndex,
	reranker driven.Reranker,
	cfg domain.PipelineConfig,
) *Retriever {
	return &Retriever{
		dense:    dense,
		sparse:   sparse,
		reranker: reranker,
		cfg:      cfg,
	}
}

// Retrieve returns up to maxDocs candidates for the question, ordered by
// final relevance. The returned error is nil on full success and
// domain.ErrDegradedRanking when Stage 2 was skipped or failed; any
// other error means retrieval itself failed.
func (r *Retriever) Retrieve(
	ctx context.Context, question string, maxDocs int,
) ([]domain.RetrievalCandidate, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q, max documents: %d", question, maxDocs)

	// Over-fetch per index so Stage 2 has material to reorder.
	fanout := maxDocs * r.cfg.FanoutFactor
	logger.Debug("Per-index fanout: %d", fanout)

	candidates, err := r.stageOne(ctx, question, fanout)
	if err != nil {
		return nil, err
	}
	logger.Debug("Stage 1: %d fused candidates", len(candidates))

	if len(candidates) == 0 {
		return nil, nil
	}

	candidates, degraded := r.stageTwo(ctx, question, candidates)

	if len(candidates) > maxDocs {
		candidates = candidates[:maxDocs]
	}
	logger.Info("Retrieved %d candidates (degraded=%t)", len(candidates), degraded)

	if degraded {
		return candidates, domain.ErrDegradedRanking
	}
	return candidates, nil
}

// stageOne runs dense and sparse search in parallel and fuses the two
// ranked lists into at most k candidates. A single failing index
// degrades to the other; both failing fails the query.
func (r *Retriever) stageOne(
	ctx context.Context, question string, k int,
) ([]domain.RetrievalCandidate, error) {
	var denseHits, sparseHits []driven.ScoredChunk
	var denseErr, sparseErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		denseHits, denseErr = r.dense.Search(ctx, question, k)
	}()

	go func() {
		defer wg.Done()
		sparseHits, sparseErr = r.sparse.Search(ctx, question, k)
	}()

	wg.Wait()

	if denseErr != nil && sparseErr != nil {
		logger.Warn("Both index searches failed")
		return nil, fmt.Errorf("hybrid search: dense=%w, sparse=%w", denseErr, sparseErr)
	}
	if denseErr != nil {
		logger.Warn("Dense search failed, using sparse results only: %v", denseErr)
		if errors.Is(denseErr, domain.ErrIndexCorruption) {
			return nil, denseErr
		}
	}
	if sparseErr != nil {
		logger.Warn("Sparse search failed, using dense results only: %v", sparseErr)
	}

	logger.Debug("Dense hits: %d, sparse hits: %d", len(denseHits), len(sparseHits))

	var fused []domain.RetrievalCandidate
	switch r.cfg.Fusion {
	case domain.FusionRRF:
		fused = fuseRRF(denseHits, sparseHits, r.cfg.RRFK)
	default:
		fused = fuseWeighted(denseHits, sparseHits, r.cfg.Alpha)
	}

	// Disjoint hit lists fuse to up to twice the fanout; Stage 2 gets
	// at most the fanout's worth.
	if len(fused) > k {
		fused = fused[:k]
	}
	return fused, nil
}

// stageTwo re-ranks candidates with the cross-encoder. Failure never
// fails the query: the Stage 1 ordering is kept and degraded=true is
// returned.
func (r *Retriever) stageTwo(
	ctx context.Context, question string, candidates []domain.RetrievalCandidate,
) (ranked []domain.RetrievalCandidate, degraded bool) {
	if r.reranker == nil {
		logger.Debug("No re-ranker configured, keeping Stage 1 ordering")
		return candidates, true
	}

	scores, err := r.reranker.Rerank(ctx, question, candidates)
	if err != nil {
		logger.Warn("Re-ranking failed, keeping Stage 1 ordering: %v", err)
		return candidates, true
	}
	if len(scores) != len(candidates) {
		logger.Warn("Re-ranker returned %d scores for %d candidates, keeping Stage 1 ordering",
			len(scores), len(candidates))
		return candidates, true
	}

	for i := range candidates {
		score := scores[i]
		candidates[i].Stage2Score = &score
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].Stage2Score > *candidates[j].Stage2Score
	})

	return candidates, false
}

// fuseWeighted merges the two hit lists by max-normalizing each list's
// scores to [0,1] and combining them as alpha*dense + (1-alpha)*sparse.
// A chunk present in only one list contributes zero from the other.
func fuseWeighted(denseHits, sparseHits []driven.ScoredChunk, alpha float64) []domain.RetrievalCandidate {
	byID := make(map[string]*domain.RetrievalCandidate)

	denseMax := maxScore(denseHits)
	for _, hit := range denseHits {
		cand := lookup(byID, hit.Chunk)
		cand.DenseScore = hit.Score
		if denseMax > 0 {
			cand.Stage1Score += alpha * (hit.Score / denseMax)
		}
	}

	sparseMax := maxScore(sparseHits)
	for _, hit := range sparseHits {
		cand := lookup(byID, hit.Chunk)
		cand.SparseScore = hit.Score
		if sparseMax > 0 {
			cand.Stage1Score += (1 - alpha) * (hit.Score / sparseMax)
		}
	}

	return collect(byID)
}

// fuseRRF merges the two hit lists by reciprocal rank: each chunk gets
// 1/(k+rank+1) per list it appears in.
func fuseRRF(denseHits, sparseHits []driven.ScoredChunk, k int) []domain.RetrievalCandidate {
	byID := make(map[string]*domain.RetrievalCandidate)

	for rank, hit := range denseHits {
		cand := lookup(byID, hit.Chunk)
		cand.DenseScore = hit.Score
		cand.Stage1Score += 1.0 / float64(k+rank+1)
	}

	for rank, hit := range sparseHits {
		cand := lookup(byID, hit.Chunk)
		cand.SparseScore = hit.Score
		cand.Stage1Score += 1.0 / float64(k+rank+1)
	}

	return collect(byID)
}

// lookup returns the candidate for the chunk, creating it on first sight.
func lookup(byID map[string]*domain.RetrievalCandidate, chunk domain.Chunk) *domain.RetrievalCandidate {
	if cand, ok := byID[chunk.ID]; ok {
		return cand
	}
	cand := &domain.RetrievalCandidate{Chunk: chunk}
	byID[chunk.ID] = cand
	return cand
}

// collect sorts fused candidates by descending score, breaking ties by
// document ID then position so results are deterministic.
func collect(byID map[string]*domain.RetrievalCandidate) []domain.RetrievalCandidate {
	results := make([]domain.RetrievalCandidate, 0, len(byID))
	for _, cand := range byID {
		results = append(results, *cand)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Stage1Score != results[j].Stage1Score {
			return results[i].Stage1Score > results[j].Stage1Score
		}
		if results[i].Chunk.DocumentID != results[j].Chunk.DocumentID {
			return results[i].Chunk.DocumentID < results[j].Chunk.DocumentID
		}
		return results[i].Chunk.Position < results[j].Chunk.Position
	})

	return results
}

// maxScore returns the largest score in the hit list, or 0 when empty.
func maxScore(hits []driven.ScoredChunk) float64 {
	var m float64
	for _, hit := range hits {
		if hit.Score > m {
			m = hit.Score
		}
	}
	return m
}
