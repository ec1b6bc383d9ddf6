package driven

import (
	"context"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

// Extractor turns a file on local storage into a Document with its full
// text content. Each extractor handles specific file extensions.
type Extractor interface {
	// SupportedExtensions returns the lower-case extensions this
	// extractor handles, including the leading dot (e.g. ".pdf").
	SupportedExtensions() []string

	// Format identifies the document format the extractor produces.
	Format() domain.DocumentFormat

	// Extract reads the file and returns the document with Content
	// populated. Failures are per-file: the orchestrator records them
	// and continues with the rest of the batch.
	Extract(ctx context.Context, path string) (*domain.Document, error)
}

// ExtractorRegistry dispatches files to extractors by extension.
type ExtractorRegistry interface {
	// ForPath returns the extractor for the file's extension, or
	// domain.ErrExtraction when no extractor handles it.
	ForPath(path string) (Extractor, error)
}
