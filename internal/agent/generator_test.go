package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docupilot/docupilot/internal/llm"
	"github.com/docupilot/docupilot/internal/vectorstore"
)

// scriptedLLM returns canned responses in order, or a fixed error.
type scriptedLLM struct {
	responses []string
	err       error
	calls     []llmCall
}

type llmCall struct {
	messages    []llm.Message
	temperature float64
	maxTokens   int
}

func (s *scriptedLLM) Complete(ctx context.Context, messages []llm.Message, temperature float64, maxTokens int) (string, error) {
	s.calls = append(s.calls, llmCall{messages: messages, temperature: temperature, maxTokens: maxTokens})
	if s.err != nil {
		return "", s.err
	}
	idx := len(s.calls) - 1
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return "", errors.New("no scripted response")
}

func (s *scriptedLLM) Name() string { return "scripted" }

// scriptedSearch records queries and returns canned results or an error.
type scriptedSearch struct {
	results []vectorstore.SearchResult
	err     error
	queries []searchCall
}

type searchCall struct {
	query string
	topK  int
	docID string
}

func (s *scriptedSearch) SearchSimilar(ctx context.Context, query string, topK int, docIDFilter string) ([]vectorstore.SearchResult, error) {
	s.queries = append(s.queries, searchCall{query: query, topK: topK, docID: docIDFilter})
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestGenerate_HappyPath(t *testing.T) {
	backend := &scriptedLLM{responses: []string{
		"An API reference covering authentication endpoints.",
		"# Auth API\n\nThe authentication API exposes login and token refresh endpoints, documented below in detail with request and response examples.",
	}}
	search := &scriptedSearch{results: []vectorstore.SearchResult{
		{VectorID: "doc1_chunk_0", DocID: "doc1", ChunkText: "Existing auth docs mention JWT.", Score: 0.9},
	}}

	gen := NewGenerator(backend, search, nil)
	result, err := gen.Generate(context.Background(), "Auth API", "POST /login returns a JWT", "api", nil)
	require.NoError(t, err)

	assert.Equal(t, "Auth API", result.Title)
	assert.Equal(t, "api", result.DocType)
	assert.Equal(t, "An API reference covering authentication endpoints.", result.Intent)
	assert.Equal(t, 1, result.ContextUsed)
	assert.Contains(t, result.Content, "# Auth API")
	assert.Empty(t, result.Degraded)

	// Intent at low temperature, content at high.
	require.Len(t, backend.calls, 2)
	assert.Equal(t, 0.3, backend.calls[0].temperature)
	assert.Equal(t, 200, backend.calls[0].maxTokens)
	assert.Equal(t, 0.7, backend.calls[1].temperature)
	assert.Equal(t, 4000, backend.calls[1].maxTokens)

	// Default context search is top 5 with no document filter.
	require.Len(t, search.queries, 1)
	assert.Equal(t, 5, search.queries[0].topK)
	assert.Equal(t, "", search.queries[0].docID)
}

func TestGenerate_BackendFailingEverywhere(t *testing.T) {
	backend := &scriptedLLM{err: errors.New("model exploded")}
	search := &scriptedSearch{err: errors.New("index down")}

	source := "The frobnicator accepts a widget and returns a gadget."
	gen := NewGenerator(backend, search, nil)
	result, err := gen.Generate(context.Background(), "Frobnicator Guide", source, "guide", nil)
	require.NoError(t, err)

	// The source material must survive into the fallback document verbatim.
	assert.Contains(t, result.Content, source)
	assert.Contains(t, result.Content, "# Frobnicator Guide")
	assert.Equal(t, "Documentation for guide", result.Intent)
	assert.Equal(t, 0, result.ContextUsed)
	assert.ElementsMatch(t, []string{DegradedIntent, DegradedContext, DegradedContent}, result.Degraded)
}

func TestGenerate_ExplicitContextDocs(t *testing.T) {
	backend := &scriptedLLM{responses: []string{
		"intent summary",
		strings.Repeat("documentation body ", 10),
	}}
	search := &scriptedSearch{results: []vectorstore.SearchResult{
		{VectorID: "a_chunk_0", DocID: "a", ChunkText: "chunk", Score: 0.5},
	}}

	gen := NewGenerator(backend, search, nil)
	result, err := gen.Generate(context.Background(), "T", "source", "guide", []string{"docA", "docB"})
	require.NoError(t, err)

	// One filtered search of 3 per requested document.
	require.Len(t, search.queries, 2)
	assert.Equal(t, searchCall{query: "source", topK: 3, docID: "docA"}, search.queries[0])
	assert.Equal(t, searchCall{query: "source", topK: 3, docID: "docB"}, search.queries[1])
	assert.Equal(t, 2, result.ContextUsed)
}

func TestGenerate_LongSourceTruncatedInQuery(t *testing.T) {
	backend := &scriptedLLM{responses: []string{"intent", strings.Repeat("x", 100)}}
	search := &scriptedSearch{}

	long := strings.Repeat("z", 2*searchQueryLimit)
	gen := NewGenerator(backend, search, nil)
	_, err := gen.Generate(context.Background(), "T", long, "guide", nil)
	require.NoError(t, err)

	require.Len(t, search.queries, 1)
	assert.Len(t, search.queries[0].query, searchQueryLimit)
}

func TestGenerate_MultiByteSourceTruncatedOnCharacters(t *testing.T) {
	backend := &scriptedLLM{responses: []string{"intent", strings.Repeat("x", 100)}}
	search := &scriptedSearch{}

	long := strings.Repeat("ü", 2*searchQueryLimit)
	gen := NewGenerator(backend, search, nil)
	_, err := gen.Generate(context.Background(), "T", long, "guide", nil)
	require.NoError(t, err)

	require.Len(t, search.queries, 1)
	query := search.queries[0].query
	assert.True(t, utf8.ValidString(query), "truncation must not split a rune")
	assert.Equal(t, searchQueryLimit, utf8.RuneCountInString(query))
}

func TestGenerate_SearchFailureOnlyDegradesContext(t *testing.T) {
	backend := &scriptedLLM{responses: []string{"intent", strings.Repeat("content ", 20)}}
	search := &scriptedSearch{err: fmt.Errorf("connection refused")}

	gen := NewGenerator(backend, search, nil)
	result, err := gen.Generate(context.Background(), "T", "source", "guide", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{DegradedContext}, result.Degraded)
	assert.Equal(t, 0, result.ContextUsed)
	assert.Equal(t, "intent", result.Intent)
}
