package driven

import "context"

// AnswerGenerator produces a natural-language answer from a prompt built
// over the retrieved chunks. This is an optional service: when nil, the
// synthesizer falls back to extractive answers from the top chunks.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI-compatible chat endpoints
type AnswerGenerator interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
