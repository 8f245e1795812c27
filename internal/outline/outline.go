// Package outline extracts the section structure of a markdown document.
// The maintenance agent uses it to enumerate real section names when
// auditing a document and mapping findings back to sections.
package outline

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Section is one heading in a document, with its full ancestry.
type Section struct {
	Title string // Heading text, e.g. "Installation"
	Path  string // Hierarchy, e.g. "# Getting Started > ## Installation"
	Level int    // Heading depth (1 = H1)
}

// Extractor parses markdown and returns its heading outline.
type Extractor struct {
	parser goldmark.Markdown
}

// NewExtractor creates an outline extractor with a configured goldmark parser.
func NewExtractor() *Extractor {
	return &Extractor{
		parser: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Extract returns the document's sections in reading order, down to H3.
// A document without headings yields an empty outline, not an error.
func (e *Extractor) Extract(source []byte) ([]Section, error) {
	reader := text.NewReader(source)
	doc := e.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(3),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect outline: %w", err)
	}

	var sections []Section
	walk(tree.Items, nil, &sections)
	return sections, nil
}

func walk(items toc.Items, ancestors []string, sections *[]Section) {
	for _, item := range items {
		path := append(ancestors, string(item.Title))
		*sections = append(*sections, Section{
			Title: string(item.Title),
			Path:  formatPath(path),
			Level: len(path),
		})
		if len(item.Items) > 0 {
			walk(item.Items, path, sections)
		}
	}
}

// formatPath builds "# Title > ## Subtitle" style hierarchy strings.
func formatPath(path []string) string {
	parts := make([]string, len(path))
	for i, segment := range path {
		parts[i] = fmt.Sprintf("%s %s", strings.Repeat("#", i+1), segment)
	}
	return strings.Join(parts, " > ")
}

// Titles returns just the section titles, in order.
func Titles(sections []Section) []string {
	titles := make([]string, len(sections))
	for i, s := range sections {
		titles[i] = s.Title
	}
	return titles
}
