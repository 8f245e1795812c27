package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/docupilot/docupilot/internal/llm"
	"github.com/docupilot/docupilot/internal/outline"
	"github.com/docupilot/docupilot/internal/vectorstore"
)

// UpdateResult is a rewritten document plus provenance metadata.
type UpdateResult struct {
	Content     string
	Section     string
	Reason      string
	ContextUsed int
	Degraded    []string
}

// Finding is one issue reported by an audit.
type Finding struct {
	Section     string `json:"section"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// AuditResult groups audit findings by category.
type AuditResult struct {
	OutdatedSections []Finding `json:"outdated_sections"`
	Inconsistencies  []Finding `json:"inconsistencies"`
	Degraded         []string  `json:"degraded,omitempty"`
}

// Maintainer updates and audits existing documentation.
type Maintainer struct {
	llm     llm.Client
	search  searcher
	outline *outline.Extractor
	logger  *slog.Logger
}

// NewMaintainer creates a maintenance agent.
func NewMaintainer(client llm.Client, search searcher, logger *slog.Logger) *Maintainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintainer{
		llm:     client,
		search:  search,
		outline: outline.NewExtractor(),
		logger:  logger,
	}
}

// UpdateSection rewrites currentContent with the named section updated.
// If the backend fails, the fallback is a verbatim substring replacement of
// section with newContent; if section is not present verbatim, the content
// is returned unchanged. The caller's document is never lost.
func (m *Maintainer) UpdateSection(ctx context.Context, currentContent, section, newContent, reason, docID string) (*UpdateResult, error) {
	result := &UpdateResult{Section: section, Reason: reason}
	if result.Reason == "" {
		result.Reason = "Maintenance update"
	}

	var retrieved []vectorstore.SearchResult
	if docID != "" {
		var err error
		retrieved, err = m.search.SearchSimilar(ctx, section, 3, docID)
		if err != nil {
			m.logger.Warn("update context retrieval failed", "doc_id", docID, "error", err)
			result.Degraded = append(result.Degraded, DegradedContext)
			retrieved = nil
		}
	}
	result.ContextUsed = len(retrieved)

	updated, err := m.llm.Complete(ctx, []llm.Message{
		llm.System(rewriteSystemPrompt()),
		llm.User(rewriteUserPrompt(currentContent, section, newContent, reason, retrieved)),
	}, 0.5, 4000)
	if err != nil {
		m.logger.Warn("section rewrite failed, falling back to substring replacement", "section", section, "error", err)
		result.Degraded = append(result.Degraded, DegradedRewrite)
		if strings.Contains(currentContent, section) {
			result.Content = strings.Replace(currentContent, section, newContent, 1)
		} else {
			result.Content = currentContent
		}
		return result, nil
	}

	// A rewrite that collapsed the document is worse than no rewrite.
	if len(strings.TrimSpace(updated)) < minValidContentLen {
		m.logger.Warn("rewrite produced near-empty content, keeping original", "section", section)
		result.Degraded = append(result.Degraded, DegradedRewrite)
		result.Content = currentContent
		return result, nil
	}

	result.Content = updated
	return result, nil
}

// Audit checks content for outdated sections and inconsistencies with two
// independent analysis prompts. Either one failing yields an empty finding
// list for that category; an audit never fails outright.
func (m *Maintainer) Audit(ctx context.Context, content, docID string) (*AuditResult, error) {
	result := &AuditResult{
		OutdatedSections: []Finding{},
		Inconsistencies:  []Finding{},
	}

	sections, err := m.outline.Extract([]byte(content))
	if err != nil {
		m.logger.Warn("outline extraction failed, auditing without section list", "error", err)
		sections = nil
	}
	titles := outline.Titles(sections)

	system, user := auditOutdatedPrompt(content, titles)
	if response, err := m.llm.Complete(ctx, []llm.Message{llm.System(system), llm.User(user)}, 0.3, 500); err != nil {
		m.logger.Warn("outdated-section analysis failed", "doc_id", docID, "error", err)
		result.Degraded = append(result.Degraded, DegradedOutdated)
	} else {
		result.OutdatedSections = append(result.OutdatedSections, Finding{
			Section:     firstTitle(titles),
			Description: response,
			Severity:    "medium",
		})
	}

	system, user = auditConsistencyPrompt(content, titles)
	if response, err := m.llm.Complete(ctx, []llm.Message{llm.System(system), llm.User(user)}, 0.3, 500); err != nil {
		m.logger.Warn("consistency analysis failed", "doc_id", docID, "error", err)
		result.Degraded = append(result.Degraded, DegradedConsistency)
	} else {
		result.Inconsistencies = append(result.Inconsistencies, Finding{
			Section:     firstTitle(titles),
			Description: response,
			Severity:    "low",
		})
	}

	return result, nil
}

func firstTitle(titles []string) string {
	if len(titles) > 0 {
		return titles[0]
	}
	return "document"
}
