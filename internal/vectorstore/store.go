// Package vectorstore orchestrates chunking, embedding, and the vector index
// into document-level operations. It owns the vector ID naming convention:
// "{doc_id}_chunk_{index}", which makes re-stores overwrite in place.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docupilot/docupilot/internal/chunker"
	"github.com/docupilot/docupilot/internal/embedding"
	"github.com/docupilot/docupilot/internal/vectorindex"
)

// PreviewLimit bounds the chunk text stored in vector metadata, in
// characters. Full chunk text lives only in the relational mirror.
const PreviewLimit = 500

// SearchResult is one similarity hit. Ephemeral, never persisted.
type SearchResult struct {
	VectorID   string  `json:"vector_id"`
	DocID      string  `json:"doc_id"`
	ChunkText  string  `json:"chunk_text"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
}

// index is the slice of the vector index the store needs.
type index interface {
	Configured() bool
	Upsert(ctx context.Context, vectors []vectorindex.Vector) error
	Query(ctx context.Context, vector []float32, topK int, docID string) ([]vectorindex.Match, error)
	DeleteByDoc(ctx context.Context, docID string) error
}

// Store combines the chunker, an embedding provider, and the vector index.
type Store struct {
	provider embedding.Provider
	index    index
	logger   *slog.Logger
}

// New creates a vector store over the given provider and index.
func New(provider embedding.Provider, ix index, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{provider: provider, index: ix, logger: logger}
}

// VectorID derives the deterministic vector ID for a chunk of a document.
func VectorID(docID string, chunkIndex int) string {
	return fmt.Sprintf("%s_chunk_%d", docID, chunkIndex)
}

// StoreDocument chunks text, embeds every chunk as a passage, and upserts
// the vectors. Existing vectors for the document are dropped first: updates
// are always delete-then-reinsert for the whole document, never incremental,
// so stale chunks from a longer previous version cannot linger.
// Returns the chunks and their vector IDs so the caller can mirror them.
func (s *Store) StoreDocument(ctx context.Context, docID, text string, chunkSize, chunkOverlap int) ([]chunker.Chunk, []string, error) {
	chunks, err := chunker.Split(text, chunkSize, chunkOverlap)
	if err != nil {
		return nil, nil, err
	}
	if len(chunks) == 0 {
		// Delete-then-reinsert still holds: re-storing a document as empty
		// must not leave its old vectors behind.
		if err := s.index.DeleteByDoc(ctx, docID); err != nil {
			return nil, nil, fmt.Errorf("clear existing vectors: %w", err)
		}
		return nil, nil, nil
	}

	return s.storeChunks(ctx, docID, chunks)
}

// StoreChunks stores pre-chunked text for a document, same semantics as
// StoreDocument.
func (s *Store) StoreChunks(ctx context.Context, docID string, texts []string) ([]chunker.Chunk, []string, error) {
	chunks := make([]chunker.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = chunker.Chunk{Index: i, Text: t}
	}
	return s.storeChunks(ctx, docID, chunks)
}

func (s *Store) storeChunks(ctx context.Context, docID string, chunks []chunker.Chunk) ([]chunker.Chunk, []string, error) {
	vectors, err := s.provider.Embed(ctx, chunker.Texts(chunks), embedding.KindDocument)
	if err != nil {
		return nil, nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, nil, fmt.Errorf("provider returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	if err := s.index.DeleteByDoc(ctx, docID); err != nil {
		return nil, nil, fmt.Errorf("clear existing vectors: %w", err)
	}

	points := make([]vectorindex.Vector, len(chunks))
	vectorIDs := make([]string, len(chunks))
	for i, chunk := range chunks {
		vectorID := VectorID(docID, chunk.Index)
		vectorIDs[i] = vectorID
		points[i] = vectorindex.Vector{
			ID:     vectorID,
			Values: vectors[i],
			Metadata: vectorindex.Metadata{
				DocID:      docID,
				ChunkIndex: chunk.Index,
				ChunkText:  preview(chunk.Text),
			},
		}
	}

	if err := s.index.Upsert(ctx, points); err != nil {
		return nil, nil, fmt.Errorf("upsert vectors: %w", err)
	}

	s.logger.Debug("stored document vectors", "doc_id", docID, "chunks", len(chunks))
	return chunks, vectorIDs, nil
}

// SearchSimilar embeds the query and returns the topK most similar chunks,
// optionally filtered to a single document. Ordering is the index's own
// descending-similarity order; no re-ranking. An unconfigured index yields
// an empty result so retrieval-augmented paths degrade to no context.
func (s *Store) SearchSimilar(ctx context.Context, query string, topK int, docIDFilter string) ([]SearchResult, error) {
	if !s.index.Configured() {
		return []SearchResult{}, nil
	}

	vectors, err := s.provider.Embed(ctx, []string{query}, embedding.KindQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return []SearchResult{}, nil
	}

	matches, err := s.index.Query(ctx, vectors[0], topK, docIDFilter)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			VectorID:   m.ID,
			DocID:      m.Metadata.DocID,
			ChunkText:  m.Metadata.ChunkText,
			ChunkIndex: m.Metadata.ChunkIndex,
			Score:      m.Score,
		}
	}
	return results, nil
}

// DeleteDocumentVectors removes all vectors for a document by metadata
// filter; individual vector IDs are never needed.
func (s *Store) DeleteDocumentVectors(ctx context.Context, docID string) error {
	return s.index.DeleteByDoc(ctx, docID)
}

// IndexConfigured reports whether the underlying vector index is usable.
func (s *Store) IndexConfigured() bool {
	return s.index.Configured()
}

// preview caps text at PreviewLimit characters without cutting a rune in
// half.
func preview(text string) string {
	if len(text) <= PreviewLimit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= PreviewLimit {
		return text
	}
	return string(runes[:PreviewLimit])
}
