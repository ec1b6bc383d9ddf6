package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
	"github.com/custodia-labs/querra-cli/internal/logger"
)

// Synthesizer composes the final answer from ranked candidates. With a
// generator configured it prompts the model over the retrieved chunks;
// without one it falls back to extractive answers built from the top
// chunk contents.
type Synthesizer struct {
	generator driven.AnswerGenerator
}

// NewSynthesizer creates a synthesizer. The generator is optional.
func NewSynthesizer(generator driven.AnswerGenerator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

// Synthesize produces the answer text and a confidence in [0,1] from
// the ranked candidates. Empty candidates yield the fallback answer
// with zero confidence; that is a successful outcome, not an error.
func (s *Synthesizer) Synthesize(
	ctx context.Context, question string, candidates []domain.RetrievalCandidate,
) (answer string, confidence float64, err error) {
	logger.Section("Synthesis")

	if len(candidates) == 0 {
		logger.Info("No candidates, returning fallback answer")
		return domain.FallbackAnswer, 0.0, nil
	}

	confidence = confidenceFrom(candidates[0])
	logger.Debug("Confidence from top candidate: %.3f", confidence)

	if s.generator != nil {
		generated, genErr := s.generate(ctx, question, candidates)
		if genErr == nil {
			return generated, confidence, nil
		}
		logger.Warn("Generation failed, falling back to extractive answer: %v", genErr)
	}

	return extractiveAnswer(candidates), confidence, nil
}

// GeneratorModel returns the model label for the configured generator,
// or empty when synthesis is extractive.
func (s *Synthesizer) GeneratorModel() string {
	if s.generator == nil {
		return ""
	}
	return s.generator.ModelName()
}

// generate prompts the model with the retrieved chunks as context.
func (s *Synthesizer) generate(
	ctx context.Context, question string, candidates []domain.RetrievalCandidate,
) (string, error) {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below. ")
	b.WriteString("If the context does not contain the answer, reply with \"")
	b.WriteString(domain.FallbackAnswer)
	b.WriteString("\".\n\nContext:\n")
	for i, cand := range candidates {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, cand.Chunk.Content)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")

	answer, err := s.generator.Generate(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("generate answer: %w", domain.ErrGeneratorUnavailable)
	}
	return answer, nil
}

// extractiveAnswer concatenates the top chunk contents. The top chunk
// carries the answer in most corpora; the rest add supporting context.
func extractiveAnswer(candidates []domain.RetrievalCandidate) string {
	limit := len(candidates)
	if limit > 3 {
		limit = 3
	}

	parts := make([]string, 0, limit)
	for _, cand := range candidates[:limit] {
		content := strings.TrimSpace(cand.Chunk.Content)
		if content != "" {
			parts = append(parts, content)
		}
	}

	if len(parts) == 0 {
		return domain.FallbackAnswer
	}
	return strings.Join(parts, "\n\n")
}

// confidenceFrom maps the top candidate's score to [0,1]. Cross-encoder
// scores are often raw logits, so anything outside [0,1] goes through a
// sigmoid; in-range scores pass unchanged. Without a Stage 2 score the
// fused Stage 1 score is clamped instead.
func confidenceFrom(top domain.RetrievalCandidate) float64 {
	if top.Stage2Score != nil {
		score := *top.Stage2Score
		if score >= 0 && score <= 1 {
			return score
		}
		return 1.0 / (1.0 + math.Exp(-score))
	}

	score := top.Stage1Score
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
