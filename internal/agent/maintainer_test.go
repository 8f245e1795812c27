package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `# User Guide

## Installation

Run the installer and follow the prompts.

## Usage

Start the tool with the default profile.
`

func TestUpdateSection_HappyPath(t *testing.T) {
	rewritten := "# User Guide\n\n## Installation\n\nDownload the binary and place it on your PATH.\n\n## Usage\n\nStart the tool with the default profile.\n"
	backend := &scriptedLLM{responses: []string{rewritten}}
	search := &scriptedSearch{}

	m := NewMaintainer(backend, search, nil)
	result, err := m.UpdateSection(context.Background(), sampleDoc, "Installation", "Download the binary.", "installer deprecated", "doc1")
	require.NoError(t, err)

	assert.Equal(t, rewritten, result.Content)
	assert.Empty(t, result.Degraded)
	require.Len(t, backend.calls, 1)
	assert.Equal(t, 0.5, backend.calls[0].temperature)
	assert.Equal(t, 4000, backend.calls[0].maxTokens)

	// Context retrieval is scoped to the document being updated.
	require.Len(t, search.queries, 1)
	assert.Equal(t, "doc1", search.queries[0].docID)
	assert.Equal(t, 3, search.queries[0].topK)
}

func TestUpdateSection_FallbackReplacesVerbatimSection(t *testing.T) {
	backend := &scriptedLLM{err: errors.New("backend down")}
	m := NewMaintainer(backend, &scriptedSearch{}, nil)

	result, err := m.UpdateSection(context.Background(), sampleDoc, "Run the installer and follow the prompts.", "Use the package manager instead.", "", "")
	require.NoError(t, err)

	assert.Contains(t, result.Content, "Use the package manager instead.")
	assert.NotContains(t, result.Content, "Run the installer and follow the prompts.")
	assert.Contains(t, result.Degraded, DegradedRewrite)
	assert.Equal(t, "Maintenance update", result.Reason)
}

func TestUpdateSection_FallbackSectionNotPresent(t *testing.T) {
	backend := &scriptedLLM{err: errors.New("backend down")}
	m := NewMaintainer(backend, &scriptedSearch{}, nil)

	result, err := m.UpdateSection(context.Background(), sampleDoc, "Troubleshooting", "New content.", "", "")
	require.NoError(t, err)

	// Section missing and rewrite failing must never mutate the document.
	assert.Equal(t, sampleDoc, result.Content)
	assert.Contains(t, result.Degraded, DegradedRewrite)
}

func TestUpdateSection_NearEmptyRewriteKeepsOriginal(t *testing.T) {
	backend := &scriptedLLM{responses: []string{"  ok  "}}
	m := NewMaintainer(backend, &scriptedSearch{}, nil)

	result, err := m.UpdateSection(context.Background(), sampleDoc, "Usage", "New usage.", "", "")
	require.NoError(t, err)

	assert.Equal(t, sampleDoc, result.Content)
	assert.Contains(t, result.Degraded, DegradedRewrite)
}

func TestUpdateSection_ContextFailureStillRewrites(t *testing.T) {
	backend := &scriptedLLM{responses: []string{strings.Repeat("updated document ", 10)}}
	search := &scriptedSearch{err: errors.New("index down")}

	m := NewMaintainer(backend, search, nil)
	result, err := m.UpdateSection(context.Background(), sampleDoc, "Usage", "New usage.", "", "doc1")
	require.NoError(t, err)

	assert.Equal(t, []string{DegradedContext}, result.Degraded)
	assert.Equal(t, 0, result.ContextUsed)
	assert.NotEqual(t, sampleDoc, result.Content)
}

func TestAudit_BothAnalysesSucceed(t *testing.T) {
	backend := &scriptedLLM{responses: []string{
		"The Installation section references a deprecated installer.",
		"Usage contradicts Installation about the default profile.",
	}}

	m := NewMaintainer(backend, &scriptedSearch{}, nil)
	result, err := m.Audit(context.Background(), sampleDoc, "doc1")
	require.NoError(t, err)

	require.Len(t, result.OutdatedSections, 1)
	require.Len(t, result.Inconsistencies, 1)
	assert.Equal(t, "medium", result.OutdatedSections[0].Severity)
	assert.Equal(t, "low", result.Inconsistencies[0].Severity)
	assert.Empty(t, result.Degraded)

	// Both prompts carry the real section inventory.
	require.Len(t, backend.calls, 2)
	for _, call := range backend.calls {
		require.Len(t, call.messages, 2)
		assert.Contains(t, call.messages[1].Content, "Installation")
		assert.Contains(t, call.messages[1].Content, "Usage")
		assert.Equal(t, 0.3, call.temperature)
		assert.Equal(t, 500, call.maxTokens)
	}
}

func TestAudit_BackendFailureYieldsEmptyFindings(t *testing.T) {
	backend := &scriptedLLM{err: errors.New("backend down")}

	m := NewMaintainer(backend, &scriptedSearch{}, nil)
	result, err := m.Audit(context.Background(), sampleDoc, "doc1")
	require.NoError(t, err)

	assert.Empty(t, result.OutdatedSections)
	assert.Empty(t, result.Inconsistencies)
	assert.ElementsMatch(t, []string{DegradedOutdated, DegradedConsistency}, result.Degraded)
}

func TestAudit_NoHeadings(t *testing.T) {
	backend := &scriptedLLM{responses: []string{"no issues", "no issues"}}

	m := NewMaintainer(backend, &scriptedSearch{}, nil)
	result, err := m.Audit(context.Background(), "plain prose without headings", "doc1")
	require.NoError(t, err)

	require.Len(t, result.OutdatedSections, 1)
	assert.Equal(t, "document", result.OutdatedSections[0].Section)
}
