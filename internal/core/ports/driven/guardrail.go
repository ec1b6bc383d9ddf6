package driven

import (
	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

// Guardrail validates query input and generated output. Enabling and
// disabling guardrails is a configuration switch that selects a
// strategy implementation; the call sites never branch on a flag.
type Guardrail interface {
	// CheckQuery validates the question before retrieval.
	CheckQuery(text string) domain.Verdict

	// CheckOutput validates the synthesized answer against the chunks
	// it was grounded on.
	CheckOutput(text string, chunks []domain.Chunk) domain.Verdict
}
