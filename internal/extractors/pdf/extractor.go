// Package pdf provides PDF text extraction.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
	"github.com/custodia-labs/querra-cli/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF files.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Format identifies the produced document format.
func (e *Extractor) Format() domain.DocumentFormat {
	return domain.FormatPDF
}

// Extract reads the PDF's plain text stream.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf %s: %v", domain.ErrExtraction, path, err)
	}
	defer f.Close()

	r, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: extract pdf text from %s: %v", domain.ErrExtraction, path, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("%w: read pdf text from %s: %v", domain.ErrExtraction, path, err)
	}

	return &domain.Document{
		ID:         uuid.New().String(),
		Path:       path,
		Title:      extractors.TitleFromPath(path),
		Content:    buf.String(),
		Format:     domain.FormatPDF,
		IngestedAt: time.Now(),
	}, nil
}
