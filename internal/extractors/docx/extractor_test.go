package docx

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

// writeDocx builds a minimal DOCX archive with the given document.xml body.
func writeDocx(t *testing.T, dir, name, documentXML string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	entry, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return path
}

func TestSupportedExtensions(t *testing.T) {
	e := New()
	assert.Equal(t, []string{".docx"}, e.SupportedExtensions())
	assert.Equal(t, domain.FormatDOCX, e.Format())
}

func TestExtract(t *testing.T) {
	xml := `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
  </body>
</document>`
	path := writeDocx(t, t.TempDir(), "summary_doc.docx", xml)

	doc, err := New().Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "First paragraph.\nSecond paragraph.", doc.Content)
	assert.Equal(t, "summary doc", doc.Title)
	assert.Equal(t, domain.FormatDOCX, doc.Format)
}

func TestExtract_NotAnArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0600))

	_, err := New().Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtraction))
}

func TestExtract_MissingDocumentXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.docx")

	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	_, err = New().Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtraction))
}
