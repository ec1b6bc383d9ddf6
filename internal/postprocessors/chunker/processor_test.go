package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		p, err := New(300, 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.chunkSize != 300 || p.overlap != 50 {
			t.Errorf("unexpected parameters: size=%d overlap=%d", p.chunkSize, p.overlap)
		}
	})

	t.Run("overlap equals chunk size", func(t *testing.T) {
		_, err := New(100, 100)
		if !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		_, err := New(100, 150)
		if !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	})

	t.Run("zero chunk size", func(t *testing.T) {
		_, err := New(0, 0)
		if !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	})

	t.Run("negative overlap", func(t *testing.T) {
		_, err := New(100, -1)
		if !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p, _ := New(100, 10)
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got %q", p.Name())
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	p, _ := New(100, 20)
	doc := &domain.Document{ID: "doc-1", Content: "   \n\t  "}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestProcessor_Process_SentenceScenario(t *testing.T) {
	// "The cat sat. The dog ran." with size=3, overlap=1 splits into
	// three chunks on whitespace word boundaries.
	p, _ := New(3, 1)
	doc := &domain.Document{ID: "doc-1", Content: "The cat sat. The dog ran."}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"The cat sat.", "sat. The dog", "dog ran."}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		if chunks[i].Content != w {
			t.Errorf("chunk %d: expected %q, got %q", i, w, chunks[i].Content)
		}
		if chunks[i].Position != i {
			t.Errorf("chunk %d: expected position %d, got %d", i, i, chunks[i].Position)
		}
		if chunks[i].ID != domain.ChunkID("doc-1", i) {
			t.Errorf("chunk %d: unexpected ID %q", i, chunks[i].ID)
		}
	}
	if chunks[0].OverlapWords != 0 {
		t.Errorf("first chunk should have no overlap, got %d", chunks[0].OverlapWords)
	}
	if chunks[1].OverlapWords != 1 {
		t.Errorf("second chunk should overlap by 1, got %d", chunks[1].OverlapWords)
	}
}

func TestProcessor_Process_ExactFit(t *testing.T) {
	// Content with exactly chunkSize words produces a single chunk,
	// never a trailing chunk made purely of overlap.
	p, _ := New(3, 1)
	doc := &domain.Document{ID: "doc-1", Content: "one two three"}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].WordCount != 3 {
		t.Errorf("expected word count 3, got %d", chunks[0].WordCount)
	}
}

func TestProcessor_Process_Reconstruction(t *testing.T) {
	// Concatenating chunks with the overlap removed reconstructs the
	// document's word sequence exactly.
	cases := []struct {
		name    string
		size    int
		overlap int
		words   int
	}{
		{"no overlap", 5, 0, 23},
		{"small overlap", 4, 1, 17},
		{"large overlap", 10, 9, 31},
		{"single chunk", 50, 10, 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			words := make([]string, tc.words)
			for i := range words {
				words[i] = "w" + strings.Repeat("x", i%3)
			}
			doc := &domain.Document{ID: "doc-1", Content: strings.Join(words, " ")}

			p, err := New(tc.size, tc.overlap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			chunks, err := p.Process(context.Background(), doc, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var rebuilt []string
			for i, c := range chunks {
				cw := strings.Fields(c.Content)
				if i > 0 {
					cw = cw[c.OverlapWords:]
				}
				rebuilt = append(rebuilt, cw...)
			}
			if strings.Join(rebuilt, " ") != strings.Join(words, " ") {
				t.Errorf("reconstruction mismatch: got %d words, want %d", len(rebuilt), len(words))
			}
		})
	}
}

func TestProcessor_Process_Deterministic(t *testing.T) {
	p, _ := New(4, 2)
	doc := &domain.Document{ID: "doc-1", Content: strings.Repeat("alpha beta gamma delta ", 20)}

	first, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
