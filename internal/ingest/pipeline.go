package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/docupilot/docupilot/internal/chunker"
	"github.com/docupilot/docupilot/internal/store"
	"github.com/docupilot/docupilot/internal/vectorstore"
)

// ImportResult contains statistics about a bulk import.
type ImportResult struct {
	TotalFiles    int
	ImportedFiles int
	TotalChunks   int
	FailedFiles   []FailedFile
	Duration      time.Duration
}

// FailedFile is a repository file that could not be imported.
type FailedFile struct {
	Path   string
	Reason string
}

// Importer turns repository markdown files into stored, embedded documents.
type Importer struct {
	fetcher *Fetcher
	db      *store.Store
	vectors *vectorstore.Store
	logger  *slog.Logger
}

// NewImporter creates an importer over the given fetcher and stores.
func NewImporter(fetcher *Fetcher, db *store.Store, vectors *vectorstore.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{fetcher: fetcher, db: db, vectors: vectors, logger: logger}
}

// ImportMarkdown fetches every markdown file under dir in the repository and
// creates one document per file, owned by createdBy. Each document gets an
// initial version and, when the index is configured, embedded chunks.
// Unimportable files are skipped so one bad file does not abort the run.
func (im *Importer) ImportMarkdown(ctx context.Context, owner, repo, dir, docType, createdBy string) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{}

	files, err := im.fetcher.FetchMarkdown(ctx, owner, repo, dir)
	if err != nil {
		return nil, fmt.Errorf("fetching markdown from %s/%s: %w", owner, repo, err)
	}
	result.TotalFiles = len(files)
	im.logger.Info("importing repository markdown", "owner", owner, "repo", repo, "dir", dir, "files", len(files))

	for _, file := range files {
		chunks, err := im.importFile(ctx, owner, repo, file, docType, createdBy)
		if err != nil {
			im.logger.Warn("skipping file", "path", file.Path, "error", err)
			result.FailedFiles = append(result.FailedFiles, FailedFile{Path: file.Path, Reason: err.Error()})
			continue
		}
		result.ImportedFiles++
		result.TotalChunks += chunks
	}

	result.Duration = time.Since(start)
	im.logger.Info("import complete",
		"imported", result.ImportedFiles,
		"failed", len(result.FailedFiles),
		"chunks", result.TotalChunks,
		"duration", result.Duration)

	return result, nil
}

// importFile stores one fetched file as a document and returns how many
// chunks were embedded for it.
func (im *Importer) importFile(ctx context.Context, owner, repo string, file SourceFile, docType, createdBy string) (int, error) {
	if len(strings.TrimSpace(file.Content)) < 10 {
		return 0, fmt.Errorf("file is empty or too short to store")
	}

	doc, err := im.db.Documents().Create(ctx, &store.Document{
		Title:     titleFromPath(file.Path),
		Content:   file.Content,
		DocType:   docType,
		CreatedBy: createdBy,
	})
	if err != nil {
		return 0, fmt.Errorf("creating document: %w", err)
	}

	diff := fmt.Sprintf("Imported from github.com/%s/%s/%s", owner, repo, file.Path)
	if _, err := im.db.Versions().Create(ctx, doc.ID, doc.Content, diff, createdBy); err != nil {
		return 0, fmt.Errorf("creating initial version: %w", err)
	}

	if !im.vectors.IndexConfigured() {
		return 0, nil
	}

	chunks, vectorIDs, err := im.vectors.StoreDocument(ctx, doc.ID, doc.Content, chunker.DefaultChunkSize, chunker.DefaultChunkOverlap)
	if err != nil {
		return 0, fmt.Errorf("embedding document: %w", err)
	}

	rows := make([]store.Embedding, len(chunks))
	for i, chunk := range chunks {
		rows[i] = store.Embedding{
			DocID:      doc.ID,
			ChunkIndex: chunk.Index,
			ChunkText:  chunk.Text,
			VectorID:   vectorIDs[i],
		}
	}
	if err := im.db.Embeddings().ReplaceForDoc(ctx, doc.ID, rows); err != nil {
		return 0, fmt.Errorf("recording embeddings: %w", err)
	}

	return len(chunks), nil
}

// titleFromPath derives a document title from a repository file path.
// "docs/guide/quick-start.md" becomes "guide / quick-start".
func titleFromPath(filePath string) string {
	trimmed := strings.TrimSuffix(filePath, path.Ext(filePath))
	parts := strings.Split(trimmed, "/")
	if len(parts) > 1 && (parts[0] == "docs" || parts[0] == "doc") {
		parts = parts[1:]
	}
	title := strings.Join(parts, " / ")
	if len(title) < 3 {
		title = trimmed
	}
	return title
}
