// Package chunker splits document text into fixed-size overlapping windows.
// The same split is used on every path that produces chunks (store, reindex,
// embedding creation) so that chunk indexes, and therefore vector IDs, are
// stable across runs.
package chunker

import (
	"fmt"

	"github.com/docupilot/docupilot/internal/apperr"
)

// Default window parameters, matching the embedding create endpoint defaults.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunk is one window of a document. Start and End are character (rune)
// offsets into the original text; chunks are derived and never stored on
// their own.
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

// Split cuts text into chunks of size characters, each overlapping the
// previous by overlap characters. chunks[i] starts at i*(size-overlap); the
// last chunk may be shorter. Empty text yields no chunks. overlap must be
// smaller than size, otherwise the window would never advance.
// Boundaries are counted in runes, not bytes, so multi-byte text never gets
// cut mid-character and every chunk is valid UTF-8.
func Split(text string, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", apperr.ErrConfiguration, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must be non-negative, got %d", apperr.ErrConfiguration, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", apperr.ErrConfiguration, overlap, size)
	}

	runes := []rune(text)
	var chunks []Chunk
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
	}
	return chunks, nil
}

// Texts returns just the chunk contents, in order.
func Texts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
