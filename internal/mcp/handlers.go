package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docupilot/docupilot/internal/apperr"
	"github.com/docupilot/docupilot/internal/store"
	"github.com/docupilot/docupilot/internal/vectorstore"
)

// makeSearchHandler creates the search_docs tool handler.
// Search flow:
// 1. Vector-search chunks (limit * 3 to get enough unique parents)
// 2. Filter by minimum score threshold
// 3. Deduplicate by parent document (keep highest-scoring chunk per doc)
// 4. Fetch parent document metadata for each unique doc
// 5. Return up to MaxResults documents with metadata (not full content)
func makeSearchHandler(vectors *vectorstore.Store, db *store.Store) func(
	context.Context, *mcp.CallToolRequest, SearchDocsInput,
) (*mcp.CallToolResult, SearchDocsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchDocsInput) (
		*mcp.CallToolResult, SearchDocsOutput, error,
	) {
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}
		minScore := input.MinScore
		if minScore <= 0 {
			minScore = 0.4
		}

		// Request 3x to ensure enough unique documents after dedup.
		chunks, err := vectors.SearchSimilar(ctx, input.Query, maxResults*3, "")
		if err != nil {
			return nil, SearchDocsOutput{}, fmt.Errorf("search failed: %w", err)
		}

		// Deduplicate by parent document, keeping the best chunk per doc.
		type match struct {
			score   float64
			snippet string
		}
		docMatches := make(map[string]match)
		docIDs := make([]string, 0)
		for _, chunk := range chunks {
			if float64(chunk.Score) < minScore {
				continue
			}
			if existing, seen := docMatches[chunk.DocID]; !seen || float64(chunk.Score) > existing.score {
				if !seen {
					docIDs = append(docIDs, chunk.DocID)
				}
				docMatches[chunk.DocID] = match{score: float64(chunk.Score), snippet: chunk.ChunkText}
			}
		}

		if len(docIDs) > maxResults {
			docIDs = docIDs[:maxResults]
		}

		results := make([]SearchResult, 0, len(docIDs))
		for _, docID := range docIDs {
			doc, err := db.Documents().GetByID(ctx, docID)
			if err != nil {
				continue // Skip index entries whose document is gone
			}
			results = append(results, SearchResult{
				DocID:     doc.ID,
				Title:     doc.Title,
				DocType:   doc.DocType,
				Score:     docMatches[docID].score,
				Snippet:   docMatches[docID].snippet,
				UpdatedAt: doc.UpdatedAt,
			})
		}

		if len(results) == 0 {
			return nil, SearchDocsOutput{
				Results: []SearchResult{},
				Message: "No matching documents found. Try broader search terms.",
			}, nil
		}

		return nil, SearchDocsOutput{Results: results}, nil
	}
}

// makeFetchHandler creates the fetch_doc tool handler.
// Retrieves full document content by ID, with a source header prepended.
func makeFetchHandler(db *store.Store) func(
	context.Context, *mcp.CallToolRequest, FetchDocInput,
) (*mcp.CallToolResult, FetchDocOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input FetchDocInput) (
		*mcp.CallToolResult, FetchDocOutput, error,
	) {
		doc, err := db.Documents().GetByID(ctx, input.DocID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, FetchDocOutput{Found: false}, nil
			}
			return nil, FetchDocOutput{}, fmt.Errorf("failed to fetch document: %w", err)
		}

		content := fmt.Sprintf("<!-- Source: %s (%s) -->\n\n%s", doc.Title, doc.ID, doc.Content)

		return nil, FetchDocOutput{
			Content:   content,
			Title:     doc.Title,
			DocType:   doc.DocType,
			UpdatedAt: doc.UpdatedAt,
			Found:     true,
		}, nil
	}
}

// makeListHandler creates the list_docs tool handler.
func makeListHandler(db *store.Store) func(
	context.Context, *mcp.CallToolRequest, ListDocsInput,
) (*mcp.CallToolResult, ListDocsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocsInput) (
		*mcp.CallToolResult, ListDocsOutput, error,
	) {
		docs, err := db.Documents().List(ctx, 0, 1000, "")
		if err != nil {
			return nil, ListDocsOutput{}, fmt.Errorf("failed to list documents: %w", err)
		}

		entries := make([]DocEntry, 0, len(docs))
		for _, doc := range docs {
			entries = append(entries, DocEntry{DocID: doc.ID, Title: doc.Title, DocType: doc.DocType})
		}

		return nil, ListDocsOutput{Docs: entries, Count: len(entries)}, nil
	}
}
