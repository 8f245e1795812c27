package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/docupilot/docupilot/internal/apperr"
	"github.com/docupilot/docupilot/internal/auth"
	"github.com/docupilot/docupilot/internal/chunker"
	"github.com/docupilot/docupilot/internal/store"
)

type documentCreateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	DocType string `json:"doc_type,omitempty"`
}

type documentUpdateRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	DocType *string `json:"doc_type,omitempty"`
}

type documentGenerateRequest struct {
	Title         string   `json:"title"`
	Source        string   `json:"source,omitempty"`
	SourceOwner   string   `json:"source_owner,omitempty"`
	SourceRepo    string   `json:"source_repo,omitempty"`
	SourcePath    string   `json:"source_path,omitempty"`
	DocType       string   `json:"doc_type,omitempty"`
	ContextDocIDs []string `json:"context_doc_ids,omitempty"`
}

type agentUpdateRequest struct {
	DocID      string `json:"doc_id"`
	Section    string `json:"section"`
	NewContent string `json:"new_content"`
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentCreateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	title, content, docType, err := validateDocumentFields(req.Title, req.Content, req.DocType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user := currentUser(r)
	doc, err := s.db.Documents().Create(r.Context(), &store.Document{
		Title:     title,
		Content:   content,
		DocType:   docType,
		CreatedBy: user.ID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.db.Versions().Create(r.Context(), doc.ID, doc.Content, "", user.ID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)
	if skip < 0 || limit < 1 || limit > 1000 {
		s.writeError(w, r, apperr.Validationf("skip must be >= 0 and limit in [1, 1000]"))
		return
	}

	docs, err := s.db.Documents().List(r.Context(), skip, limit, "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.db.Documents().GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]

	var req documentUpdateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Title == nil && req.Content == nil && req.DocType == nil {
		s.writeError(w, r, apperr.Validationf("at least one field (title, content, or doc_type) must be provided"))
		return
	}

	if req.Title != nil {
		title, err := auth.ValidateTitle(*req.Title)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		req.Title = &title
	}
	if req.Content != nil {
		content, err := auth.ValidateContent(*req.Content)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		req.Content = &content
	}
	if req.DocType != nil {
		docType, err := auth.ValidateDocType(*req.DocType)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		req.DocType = &docType
	}

	old, err := s.db.Documents().GetByID(r.Context(), docID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := s.db.Documents().Update(r.Context(), docID, req.Title, req.Content, req.DocType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Content changes snapshot a new version; metadata-only edits don't.
	if req.Content != nil && *req.Content != old.Content {
		diff := fmt.Sprintf("Content updated from %d to %d characters", len(old.Content), len(*req.Content))
		if _, err := s.db.Versions().Create(r.Context(), docID, doc.Content, diff, currentUser(r).ID); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]

	doc, err := s.db.Documents().GetByID(r.Context(), docID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !canModify(currentUser(r), doc) {
		s.writeError(w, r, fmt.Errorf("%w: not authorized to delete this document", apperr.ErrForbidden))
		return
	}

	// Vectors first. Rows cascade with the document.
	if err := s.vectors.DeleteDocumentVectors(r.Context(), docID); err != nil {
		s.logger.Warn("deleting document vectors failed", "doc_id", docID, "error", err)
	}

	if err := s.db.Documents().Delete(r.Context(), docID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]
	if _, err := s.db.Documents().GetByID(r.Context(), docID); err != nil {
		s.writeError(w, r, err)
		return
	}

	versions, err := s.db.Versions().ListByDoc(r.Context(), docID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, versions)
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	docID := vars["id"]
	versionNumber, err := strconv.Atoi(vars["version"])
	if err != nil {
		s.writeError(w, r, apperr.Validationf("version must be an integer"))
		return
	}

	if _, err := s.db.Documents().GetByID(r.Context(), docID); err != nil {
		s.writeError(w, r, err)
		return
	}

	version, err := s.db.Versions().Get(r.Context(), docID, versionNumber)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, version)
}

func (s *Server) handleGenerateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentGenerateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	title, err := auth.ValidateTitle(req.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	docType := req.DocType
	if docType == "" {
		docType = "api"
	}
	docType, err = auth.ValidateDocType(docType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	source := req.Source
	if source == "" && req.SourceRepo != "" {
		if s.fetcher == nil {
			s.writeError(w, r, apperr.Validationf("repository source material is not configured"))
			return
		}
		source, err = s.fetcher.FetchSource(r.Context(), req.SourceOwner, req.SourceRepo, req.SourcePath)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("fetching source material: %w", err))
			return
		}
	}
	if len(source) < 10 {
		s.writeError(w, r, apperr.Validationf("source must be at least 10 characters long"))
		return
	}

	result, err := s.generator.Generate(r.Context(), title, source, docType, req.ContextDocIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user := currentUser(r)
	doc, err := s.db.Documents().Create(r.Context(), &store.Document{
		Title:     result.Title,
		Content:   result.Content,
		DocType:   result.DocType,
		CreatedBy: user.ID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	diff := fmt.Sprintf("Initial generated version. Context used: %d chunks", result.ContextUsed)
	if _, err := s.db.Versions().Create(r.Context(), doc.ID, doc.Content, diff, user.ID); err != nil {
		s.writeError(w, r, err)
		return
	}

	if queryBool(r, "create_embeddings", true) && doc.Content != "" {
		// Embedding failures never fail generation.
		if err := s.embedDocument(r.Context(), doc.ID, doc.Content, chunker.DefaultChunkSize, chunker.DefaultChunkOverlap); err != nil {
			s.logger.Warn("creating embeddings after generation failed", "doc_id", doc.ID, "error", err)
		}
	}

	s.writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleAgentUpdate(w http.ResponseWriter, r *http.Request) {
	var req agentUpdateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.DocID == "" || req.Section == "" || req.NewContent == "" {
		s.writeError(w, r, apperr.Validationf("doc_id, section, and new_content are required"))
		return
	}

	doc, err := s.db.Documents().GetByID(r.Context(), req.DocID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	user := currentUser(r)
	if !canModify(user, doc) {
		s.writeError(w, r, fmt.Errorf("%w: not authorized to update this document", apperr.ErrForbidden))
		return
	}

	reason := fmt.Sprintf("Section '%s' update", req.Section)
	result, err := s.maintainer.UpdateSection(r.Context(), doc.Content, req.Section, req.NewContent, reason, req.DocID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.db.Documents().Update(r.Context(), req.DocID, nil, &result.Content, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	diff := fmt.Sprintf("Section '%s' updated. Context used: %d chunks. Reason: %s",
		req.Section, result.ContextUsed, result.Reason)
	if _, err := s.db.Versions().Create(r.Context(), req.DocID, updated.Content, diff, user.ID); err != nil {
		s.writeError(w, r, err)
		return
	}

	if queryBool(r, "update_embeddings", true) && updated.Content != doc.Content {
		if err := s.embedDocument(r.Context(), req.DocID, updated.Content, chunker.DefaultChunkSize, chunker.DefaultChunkOverlap); err != nil {
			s.logger.Warn("updating embeddings after agent update failed", "doc_id", req.DocID, "error", err)
		}
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAuditDocument(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["id"]

	doc, err := s.db.Documents().GetByID(r.Context(), docID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.maintainer.Audit(r.Context(), doc.Content, docID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":        docID,
		"audit_results": result,
		"message":       "Document audit completed",
	})
}

// embedDocument stores a document's vectors and mirrors the chunk rows in
// the relational store.
func (s *Server) embedDocument(ctx context.Context, docID, text string, chunkSize, chunkOverlap int) error {
	chunks, vectorIDs, err := s.vectors.StoreDocument(ctx, docID, text, chunkSize, chunkOverlap)
	if err != nil {
		return err
	}

	rows := make([]store.Embedding, len(chunks))
	for i, chunk := range chunks {
		rows[i] = store.Embedding{
			DocID:      docID,
			ChunkIndex: chunk.Index,
			ChunkText:  chunk.Text,
			VectorID:   vectorIDs[i],
		}
	}
	return s.db.Embeddings().ReplaceForDoc(ctx, docID, rows)
}

func validateDocumentFields(title, content, docType string) (string, string, string, error) {
	validTitle, err := auth.ValidateTitle(title)
	if err != nil {
		return "", "", "", err
	}
	validContent, err := auth.ValidateContent(content)
	if err != nil {
		return "", "", "", err
	}
	if docType == "" {
		docType = "api"
	}
	validType, err := auth.ValidateDocType(docType)
	if err != nil {
		return "", "", "", err
	}
	return validTitle, validContent, validType, nil
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryBool(r *http.Request, name string, def bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
