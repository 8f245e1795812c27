package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/docupilot/docupilot/internal/apperr"
)

func TestSplit_EmptyText(t *testing.T) {
	chunks, err := Split("", 1000, 200)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_ShorterThanChunkSize(t *testing.T) {
	chunks, err := Split("short text", 1000, 200)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "short text" {
		t.Errorf("single chunk should equal the whole text, got %q", chunks[0].Text)
	}
	if chunks[0].Start != 0 || chunks[0].End != len("short text") {
		t.Errorf("unexpected byte range [%d:%d]", chunks[0].Start, chunks[0].End)
	}
}

func TestSplit_Boundaries(t *testing.T) {
	// 2500 chars, size 1000, overlap 200: starts advance by 800.
	text := strings.Repeat("A", 2500)
	chunks, err := Split(text, 1000, 200)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	want := []struct{ start, end int }{
		{0, 1000},
		{800, 1800},
		{1600, 2500},
		{2400, 2500},
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		if chunks[i].Start != w.start || chunks[i].End != w.end {
			t.Errorf("chunk %d: expected [%d:%d], got [%d:%d]",
				i, w.start, w.end, chunks[i].Start, chunks[i].End)
		}
		if chunks[i].Index != i {
			t.Errorf("chunk %d: index %d", i, chunks[i].Index)
		}
	}
}

func TestSplit_OverlapAndCoverage(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz0123456789"
	size, overlap := 10, 3
	chunks, err := Split(text, size, overlap)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// Consecutive chunks overlap by exactly `overlap` bytes (except possibly
	// the final chunk), and stripping the overlap reconstructs the text.
	var rebuilt strings.Builder
	for i, c := range chunks {
		if i == 0 {
			rebuilt.WriteString(c.Text)
			continue
		}
		prev := chunks[i-1]
		if c.Start != prev.Start+(size-overlap) {
			t.Errorf("chunk %d: start %d, expected %d", i, c.Start, prev.Start+(size-overlap))
		}
		if c.Start < prev.End {
			shared := prev.End - c.Start
			if prev.End != len(text) && shared != overlap {
				t.Errorf("chunk %d: overlap %d, expected %d", i, shared, overlap)
			}
			rebuilt.WriteString(c.Text[shared:])
		} else {
			t.Errorf("chunk %d: gap between %d and %d", i, prev.End, c.Start)
		}
	}
	if rebuilt.String() != text {
		t.Errorf("dedup concatenation does not reconstruct text:\n%q", rebuilt.String())
	}
}

func TestSplit_MultiByteCharacters(t *testing.T) {
	// 2500 characters at 3 bytes each. Boundaries must land on characters,
	// not bytes, and every chunk must remain valid UTF-8.
	text := strings.Repeat("日", 2500)
	chunks, err := Split(text, 1000, 200)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	want := []struct{ start, end int }{
		{0, 1000},
		{800, 1800},
		{1600, 2500},
		{2400, 2500},
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		c := chunks[i]
		if c.Start != w.start || c.End != w.end {
			t.Errorf("chunk %d: expected [%d:%d], got [%d:%d]", i, w.start, w.end, c.Start, c.End)
		}
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d contains invalid UTF-8", i)
		}
		if got := utf8.RuneCountInString(c.Text); got != w.end-w.start {
			t.Errorf("chunk %d: %d characters, expected %d", i, got, w.end-w.start)
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("documentation ", 500)
	first, err := Split(text, 256, 64)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	second, err := Split(text, 256, 64)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("runs disagree on chunk count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 100, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split("some text", tc.size, tc.overlap)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, apperr.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}
