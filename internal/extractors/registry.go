// Package extractors provides file-to-document text extraction,
// dispatched by file extension.
package extractors

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
type Registry struct {
	byExtension map[string]driven.Extractor
}

// NewRegistry creates a registry with the given extractors. A later
// extractor claiming an already-registered extension wins.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byExtension: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		for _, ext := range e.SupportedExtensions() {
			r.byExtension[strings.ToLower(ext)] = e
		}
	}
	return r
}

// ForPath returns the extractor for the file's extension.
func (r *Registry) ForPath(path string) (driven.Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for extension %q", domain.ErrExtraction, ext)
	}
	return e, nil
}

// TitleFromPath derives a human-readable title from a file path: the
// base name without extension, underscores and dashes spaced out.
func TitleFromPath(path string) string {
	filename := filepath.Base(path)
	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
