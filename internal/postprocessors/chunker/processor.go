// Package chunker provides a word-bounded overlapping chunking processor.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

// Processor splits document content into overlapping word-bounded chunks.
// It implements the PostProcessor interface.
//
// Splitting is on Unicode whitespace (strings.Fields); punctuation stays
// attached to its word, so "sat." counts as one word. Chunking is fully
// deterministic: the same content and parameters always produce the same
// chunk sequence, which makes re-indexing reproducible.
type Processor struct {
	chunkSize int
	overlap   int
}

// New creates a chunker for the given word counts. The overlap must be
// non-negative and strictly less than the chunk size; violations are
// rejected with domain.ErrConfiguration before any chunking happens.
func New(chunkSize, overlap int) (*Processor, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)",
			domain.ErrConfiguration, overlap, chunkSize)
	}
	return &Processor{chunkSize: chunkSize, overlap: overlap}, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
//
// Every chunk holds exactly chunkSize words except possibly the last,
// which may be shorter. The last overlap words of chunk i reappear as
// the first words of chunk i+1. A document with zero words produces
// zero chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	words := strings.Fields(doc.Content)
	if len(words) == 0 {
		return nil, nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, len(words)/step+1)

	position := 0
	for start := 0; start < len(words); start += step {
		end := start + p.chunkSize
		if end > len(words) {
			end = len(words)
		}

		overlap := 0
		if position > 0 {
			overlap = p.overlap
		}

		chunks = append(chunks, domain.Chunk{
			ID:           domain.ChunkID(doc.ID, position),
			DocumentID:   doc.ID,
			Position:     position,
			Content:      strings.Join(words[start:end], " "),
			WordCount:    end - start,
			OverlapWords: overlap,
		})
		position++

		// The final chunk consumed the remaining words; a further
		// iteration would emit a chunk made purely of overlap.
		if end == len(words) {
			break
		}
	}

	return chunks, nil
}
