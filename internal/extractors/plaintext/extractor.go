// Package plaintext provides passthrough extraction for text files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
	"github.com/custodia-labs/querra-cli/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt", ".md", ".csv", ".log", ".text"}
}

// Format identifies the produced document format.
func (e *Extractor) Format() domain.DocumentFormat {
	return domain.FormatPlain
}

// Extract reads the file verbatim as the document content.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, path, err)
	}

	return &domain.Document{
		ID:         uuid.New().String(),
		Path:       path,
		Title:      extractors.TitleFromPath(path),
		Content:    string(data),
		Format:     domain.FormatPlain,
		IngestedAt: time.Now(),
	}, nil
}
