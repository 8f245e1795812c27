package agent

import (
	"fmt"
	"strings"

	"github.com/docupilot/docupilot/internal/vectorstore"
)

// Truncation limits for prompt construction. Generation backends have token
// budgets; source material and retrieved context are bounded before being
// interpolated into prompts.
const (
	intentSourceLimit  = 2000
	searchQueryLimit   = 500
	contextChunkLimit  = 300
	contextChunkCount  = 5
	rewriteDocLimit    = 4000
	rewriteChunkLimit  = 200
	auditContentLimit  = 3000
	fallbackCopyLimit  = 1000
	minValidContentLen = 50
)

func intentSystemPrompt(docType string) string {
	return fmt.Sprintf("You are a technical documentation expert. Analyze the provided source material and determine what type of documentation needs to be created. The document type is: %s.", docType)
}

func intentUserPrompt(source string) string {
	return fmt.Sprintf("Analyze this source material and provide a brief summary of what documentation should be created:\n\n%s", truncate(source, intentSourceLimit))
}

func generateSystemPrompt(docType string) string {
	return fmt.Sprintf(`You are an expert technical writer specializing in %s documentation.
Your task is to create comprehensive, accurate, and well-structured technical documentation.

Guidelines:
- Write clear, concise, and professional documentation
- Use proper formatting with headers, code blocks, and lists
- Include examples where appropriate
- Ensure technical accuracy
- Follow best practices for %s documentation
- Make it easy to understand for both beginners and experts`, docType, docType)
}

func generateUserPrompt(title, source, intent, docType string, context []vectorstore.SearchResult) string {
	return fmt.Sprintf(`Create technical documentation with the following details:

**Title:** %s
**Document Type:** %s
**Intent:** %s

**Source Material:**
%s
%s
Please generate comprehensive documentation that:
1. Clearly explains the subject matter
2. Is well-organized with proper sections
3. Includes relevant examples if applicable
4. Follows technical documentation best practices
5. Is suitable for the %s document type

Generate the complete documentation now:`, title, docType, intent, source, formatContext(context, contextChunkCount, contextChunkLimit), docType)
}

func rewriteSystemPrompt() string {
	return `You are an expert technical writer maintaining documentation.
Your task is to update documentation sections while maintaining consistency, clarity, and technical accuracy.

Guidelines:
- Preserve the overall structure and style
- Ensure the updated section fits seamlessly with the rest of the document
- Maintain technical accuracy
- Keep formatting consistent
- Update only the specified section unless necessary for coherence`
}

func rewriteUserPrompt(currentContent, section, newContent, reason string, context []vectorstore.SearchResult) string {
	if reason == "" {
		reason = "Maintenance update"
	}
	return fmt.Sprintf(`Update the following documentation section:

**Section to Update:** %s
**Reason for Update:** %s
**New Content/Instructions:** %s

**Current Document Content:**
%s
%s
Please provide the complete updated document content, ensuring:
1. The specified section is updated appropriately
2. The rest of the document remains unchanged unless necessary
3. Technical consistency is maintained
4. Formatting and style are preserved

Provide the complete updated document:`, section, reason, newContent,
		truncate(currentContent, rewriteDocLimit), formatContext(context, 3, rewriteChunkLimit))
}

func auditOutdatedPrompt(content string, sectionTitles []string) (string, string) {
	system := "You are a technical documentation auditor. Analyze the provided documentation and identify sections that may be outdated, contain deprecated information, or need updates."
	user := fmt.Sprintf("Analyze this documentation and identify outdated sections:%s\n\n%s",
		formatSectionList(sectionTitles), truncate(content, auditContentLimit))
	return system, user
}

func auditConsistencyPrompt(content string, sectionTitles []string) (string, string) {
	system := "You are a technical documentation quality checker. Analyze documentation for inconsistencies, contradictions, or errors."
	user := fmt.Sprintf("Check this documentation for inconsistencies:%s\n\n%s",
		formatSectionList(sectionTitles), truncate(content, auditContentLimit))
	return system, user
}

// fallbackDocument is the minimal document emitted when generation fails.
// It always embeds the user's source material so nothing is lost.
func fallbackDocument(title, source string) string {
	return fmt.Sprintf(`# %s

## Overview
This document provides technical documentation for %s.

## Source Material
%s

*Note: Full documentation generation encountered an error. Please review and complete manually.*
`, title, title, truncate(source, fallbackCopyLimit))
}

func formatContext(context []vectorstore.SearchResult, limit, chunkLimit int) string {
	if len(context) == 0 {
		return "\n"
	}
	var b strings.Builder
	b.WriteString("\n## Relevant Context from Existing Documentation:\n")
	for i, ctx := range context {
		if i == limit {
			break
		}
		if ctx.ChunkText == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%d. %s...\n", i+1, truncate(ctx.ChunkText, chunkLimit))
	}
	b.WriteString("\n")
	return b.String()
}

func formatSectionList(titles []string) string {
	if len(titles) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\nThe document contains these sections: %s.", strings.Join(titles, ", "))
}

// truncate caps s at limit characters without cutting a rune in half.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
