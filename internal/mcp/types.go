// Package mcp exposes the documentation store to MCP clients as read-only
// tools.
package mcp

import "time"

// SearchDocsInput defines the input parameters for the search_docs tool.
type SearchDocsInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query for finding relevant documentation"`
	// MaxResults is the maximum number of documents to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of documents to return"`
	// MinScore is the minimum relevance threshold (0-1).
	MinScore float64 `json:"min_score,omitempty" jsonschema:"minimum=0,maximum=1,default=0.4,description=Minimum relevance score threshold (0-1)"`
}

// SearchDocsOutput contains the search results.
type SearchDocsOutput struct {
	// Results is the list of matching documents.
	Results []SearchResult `json:"results"`
	// Message provides informational context (e.g. "No matching documents found").
	Message string `json:"message,omitempty"`
}

// SearchResult represents a single document match from semantic search.
type SearchResult struct {
	// DocID identifies the document; pass it to fetch_doc for full content.
	DocID string `json:"doc_id"`
	// Title is the document title.
	Title string `json:"title"`
	// DocType is the document category (api, guide, tutorial, ...).
	DocType string `json:"doc_type"`
	// Score is the similarity score of the best-matching chunk (0-1).
	Score float64 `json:"score"`
	// Snippet is the text of the best-matching chunk.
	Snippet string `json:"snippet"`
	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// FetchDocInput defines the input parameters for the fetch_doc tool.
type FetchDocInput struct {
	// DocID is the document ID to retrieve.
	DocID string `json:"doc_id" jsonschema:"required,description=The document ID to retrieve"`
}

// FetchDocOutput contains the retrieved document.
type FetchDocOutput struct {
	// Content is the full markdown content with a source header prepended.
	Content string `json:"content"`
	// Title is the document title.
	Title string `json:"title"`
	// DocType is the document category.
	DocType string `json:"doc_type"`
	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time `json:"updated_at"`
	// Found indicates whether the document exists.
	Found bool `json:"found"`
}

// ListDocsInput defines the input parameters for the list_docs tool.
// This tool takes no parameters and lists all stored documents.
type ListDocsInput struct{}

// DocEntry is one document in a listing.
type DocEntry struct {
	DocID   string `json:"doc_id"`
	Title   string `json:"title"`
	DocType string `json:"doc_type"`
}

// ListDocsOutput contains the list of all stored documents.
type ListDocsOutput struct {
	// Docs lists all stored documents.
	Docs []DocEntry `json:"docs"`
	// Count is the total number of documents.
	Count int `json:"count"`
}
