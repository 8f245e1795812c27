package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/docupilot/docupilot/internal/apperr"
	"github.com/docupilot/docupilot/internal/auth"
	"github.com/docupilot/docupilot/internal/chunker"
	"github.com/docupilot/docupilot/internal/store"
	"github.com/docupilot/docupilot/internal/vectorstore"
)

type embeddingCreateRequest struct {
	DocID        string   `json:"doc_id"`
	Text         string   `json:"text,omitempty"`
	Chunks       []string `json:"chunks,omitempty"`
	ChunkSize    int      `json:"chunk_size,omitempty"`
	ChunkOverlap int      `json:"chunk_overlap,omitempty"`
}

type embeddingCreateResponse struct {
	Message     string   `json:"message"`
	DocID       string   `json:"doc_id"`
	ChunksCount int      `json:"chunks_count"`
	VectorIDs   []string `json:"vector_ids"`
}

type embeddingSearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
	DocID string `json:"doc_id,omitempty"`
}

type embeddingSearchResponse struct {
	Query        string                     `json:"query"`
	Results      []vectorstore.SearchResult `json:"results"`
	TotalResults int                        `json:"total_results"`
}

func (s *Server) handleCreateEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingCreateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Text == "" && len(req.Chunks) == 0 {
		s.writeError(w, r, apperr.Validationf("either 'text' or 'chunks' must be provided"))
		return
	}

	chunkSize := req.ChunkSize
	if chunkSize == 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	if err := auth.ValidateChunkSize(chunkSize); err != nil {
		s.writeError(w, r, err)
		return
	}
	chunkOverlap := req.ChunkOverlap
	if chunkOverlap == 0 {
		chunkOverlap = chunker.DefaultChunkOverlap
	}
	if chunkOverlap < 0 || chunkOverlap > 500 {
		s.writeError(w, r, apperr.Validationf("chunk overlap must be in [0, 500]"))
		return
	}

	doc, err := s.db.Documents().GetByID(r.Context(), req.DocID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !canModify(currentUser(r), doc) {
		s.writeError(w, r, fmt.Errorf("%w: not authorized to create embeddings for this document", apperr.ErrForbidden))
		return
	}

	var (
		chunks    []chunker.Chunk
		vectorIDs []string
	)
	if req.Text != "" {
		chunks, vectorIDs, err = s.vectors.StoreDocument(r.Context(), req.DocID, req.Text, chunkSize, chunkOverlap)
	} else {
		chunks, vectorIDs, err = s.vectors.StoreChunks(r.Context(), req.DocID, req.Chunks)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows := make([]store.Embedding, len(chunks))
	for i, chunk := range chunks {
		rows[i] = store.Embedding{
			DocID:      req.DocID,
			ChunkIndex: chunk.Index,
			ChunkText:  chunk.Text,
			VectorID:   vectorIDs[i],
		}
	}
	if err := s.db.Embeddings().ReplaceForDoc(r.Context(), req.DocID, rows); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, embeddingCreateResponse{
		Message:     "Embeddings created successfully",
		DocID:       req.DocID,
		ChunksCount: len(chunks),
		VectorIDs:   vectorIDs,
	})
}

func (s *Server) handleSearchEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingSearchRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Query == "" || len(req.Query) > 1000 {
		s.writeError(w, r, apperr.Validationf("query must be between 1 and 1000 characters"))
		return
	}
	topK := req.TopK
	if topK == 0 {
		topK = 5
	}
	if err := auth.ValidateTopK(topK); err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.DocID != "" {
		if _, err := s.db.Documents().GetByID(r.Context(), req.DocID); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	results, err := s.vectors.SearchSimilar(r.Context(), req.Query, topK, req.DocID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// The index stores previews; swap in full chunk text where the
	// relational mirror has it.
	s.hydrateChunkText(r, results)

	s.writeJSON(w, http.StatusOK, embeddingSearchResponse{
		Query:        req.Query,
		Results:      results,
		TotalResults: len(results),
	})
}

func (s *Server) hydrateChunkText(r *http.Request, results []vectorstore.SearchResult) {
	byDoc := make(map[string]map[string]string)
	for i, result := range results {
		if result.DocID == "" {
			continue
		}
		texts, ok := byDoc[result.DocID]
		if !ok {
			rows, err := s.db.Embeddings().ListByDoc(r.Context(), result.DocID)
			if err != nil {
				s.logger.Warn("loading chunk text failed", "doc_id", result.DocID, "error", err)
				continue
			}
			texts = make(map[string]string, len(rows))
			for _, row := range rows {
				texts[row.VectorID] = row.ChunkText
			}
			byDoc[result.DocID] = texts
		}
		if full, ok := texts[result.VectorID]; ok {
			results[i].ChunkText = full
		}
	}
}

func (s *Server) handleGetEmbeddings(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]
	if _, err := s.db.Documents().GetByID(r.Context(), docID); err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.db.Embeddings().ListByDoc(r.Context(), docID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleDeleteEmbeddings(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]

	doc, err := s.db.Documents().GetByID(r.Context(), docID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !canModify(currentUser(r), doc) {
		s.writeError(w, r, fmt.Errorf("%w: not authorized to delete embeddings for this document", apperr.ErrForbidden))
		return
	}

	if err := s.vectors.DeleteDocumentVectors(r.Context(), docID); err != nil {
		s.writeError(w, r, err)
		return
	}
	deleted, err := s.db.Embeddings().DeleteByDoc(r.Context(), docID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Embeddings deleted successfully",
		"doc_id":        docID,
		"deleted_count": deleted,
	})
}
