// Package agent implements the retrieval-augmented documentation agents.
// The generation backend is treated as an unreliable collaborator: every
// call site has an explicit lossy-but-safe fallback, and each fallback taken
// is recorded by name in the result so callers (and tests) can see which
// path produced the output.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docupilot/docupilot/internal/llm"
	"github.com/docupilot/docupilot/internal/vectorstore"
)

// Degradation branch names recorded in results.
const (
	DegradedIntent      = "intent"
	DegradedContext     = "context"
	DegradedContent     = "content"
	DegradedRewrite     = "rewrite"
	DegradedOutdated    = "outdated"
	DegradedConsistency = "consistency"
)

// searcher is the slice of the vector store the agents need.
type searcher interface {
	SearchSimilar(ctx context.Context, query string, topK int, docIDFilter string) ([]vectorstore.SearchResult, error)
}

// GenerateResult is a generated document plus provenance metadata.
type GenerateResult struct {
	Title   string
	Content string
	DocType string

	// Intent is the backend's summary of what the documentation should cover.
	Intent string
	// ContextUsed is the number of retrieved chunks fed into the prompt.
	ContextUsed int
	// Degraded lists each fallback branch taken; empty means every step
	// succeeded.
	Degraded []string
}

// Generator creates new documentation from source material, using similar
// existing documentation as prompt context.
type Generator struct {
	llm    llm.Client
	search searcher
	logger *slog.Logger
}

// NewGenerator creates a generator agent.
func NewGenerator(client llm.Client, search searcher, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: client, search: search, logger: logger}
}

// Generate produces a document from title and source material.
// The workflow is: summarize intent, retrieve context, generate content,
// sanity-check length. Each step degrades independently rather than failing
// the whole operation; the returned content always exists and always carries
// the source material when generation itself failed.
func (g *Generator) Generate(ctx context.Context, title, source, docType string, contextDocIDs []string) (*GenerateResult, error) {
	result := &GenerateResult{Title: title, DocType: docType}

	result.Intent = g.understandIntent(ctx, source, docType, result)
	retrieved := g.fetchContext(ctx, source, contextDocIDs, result)
	result.ContextUsed = len(retrieved)
	result.Content = g.generateContent(ctx, title, source, result.Intent, docType, retrieved, result)

	// Minimum-length check only; anything longer passes through untouched.
	if len(strings.TrimSpace(result.Content)) < minValidContentLen {
		g.logger.Warn("generated content below minimum length", "title", title, "length", len(result.Content))
	}
	return result, nil
}

func (g *Generator) understandIntent(ctx context.Context, source, docType string, result *GenerateResult) string {
	intent, err := g.llm.Complete(ctx, []llm.Message{
		llm.System(intentSystemPrompt(docType)),
		llm.User(intentUserPrompt(source)),
	}, 0.3, 200)
	if err != nil {
		g.logger.Warn("intent analysis failed, using placeholder", "error", err)
		result.Degraded = append(result.Degraded, DegradedIntent)
		return fmt.Sprintf("Documentation for %s", docType)
	}
	return intent
}

func (g *Generator) fetchContext(ctx context.Context, source string, docIDs []string, result *GenerateResult) []vectorstore.SearchResult {
	query := truncate(source, searchQueryLimit)

	var retrieved []vectorstore.SearchResult
	var searchErr error
	if len(docIDs) > 0 {
		for _, docID := range docIDs {
			results, err := g.search.SearchSimilar(ctx, query, 3, docID)
			if err != nil {
				searchErr = err
				break
			}
			retrieved = append(retrieved, results...)
		}
	} else {
		retrieved, searchErr = g.search.SearchSimilar(ctx, query, 5, "")
	}

	if searchErr != nil {
		g.logger.Warn("context retrieval failed, generating without context", "error", searchErr)
		result.Degraded = append(result.Degraded, DegradedContext)
		return nil
	}
	return retrieved
}

func (g *Generator) generateContent(ctx context.Context, title, source, intent, docType string, retrieved []vectorstore.SearchResult, result *GenerateResult) string {
	content, err := g.llm.Complete(ctx, []llm.Message{
		llm.System(generateSystemPrompt(docType)),
		llm.User(generateUserPrompt(title, source, intent, docType, retrieved)),
	}, 0.7, 4000)
	if err != nil {
		g.logger.Warn("content generation failed, emitting fallback document", "title", title, "error", err)
		result.Degraded = append(result.Degraded, DegradedContent)
		return fallbackDocument(title, source)
	}
	return content
}
