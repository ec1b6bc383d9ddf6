package domain

import (
	"fmt"
	"time"
)

// DocumentFormat identifies the source format of an ingested document.
type DocumentFormat string

// Supported document formats.
const (
	// FormatPlain is raw text (.txt, .md, .csv and friends).
	FormatPlain DocumentFormat = "plain"

	// FormatPDF is a PDF document.
	FormatPDF DocumentFormat = "pdf"

	// FormatDOCX is an OOXML word-processing document.
	FormatDOCX DocumentFormat = "docx"
)

// Document represents an ingested document before chunking.
// It is immutable once handed to the chunker and is discarded
// when a new index generation replaces the one it belongs to.
type Document struct {
	// ID is the unique identifier assigned at ingestion.
	ID string

	// Path is the source file path the document was read from.
	Path string

	// Title is the human-readable title derived from the file name.
	Title string

	// Content is the full extracted text.
	Content string

	// Format is the source format the text was extracted from.
	Format DocumentFormat

	// IngestedAt is when the document was read and extracted.
	IngestedAt time.Time
}

// Chunk represents a retrievable unit within a document.
// Chunk identity is (DocumentID, Position); the ID field is the
// deterministic encoding of that pair so that re-indexing the same
// input always produces the same chunk identifiers.
type Chunk struct {
	// ID is the deterministic identifier, "<documentID>#<position>".
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Content is the text span of this chunk.
	Content string

	// WordCount is the number of words in Content.
	WordCount int

	// OverlapWords is how many leading words are shared with the
	// previous chunk. Zero for the first chunk of a document.
	OverlapWords int
}

// ChunkID builds the deterministic chunk identifier for a document
// position. Kept in one place so indexes and tests agree on it.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s#%d", documentID, position)
}
