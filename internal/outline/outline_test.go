package outline

import (
	"testing"
)

func TestExtract_HeadingHierarchy(t *testing.T) {
	input := `# Getting Started

Introduction text here.

## Installation

Install steps here.

### Prerequisites

Need these first.

## Configuration

Config details here.
`

	sections, err := NewExtractor().Extract([]byte(input))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []Section{
		{Title: "Getting Started", Path: "# Getting Started", Level: 1},
		{Title: "Installation", Path: "# Getting Started > ## Installation", Level: 2},
		{Title: "Prerequisites", Path: "# Getting Started > ## Installation > ### Prerequisites", Level: 3},
		{Title: "Configuration", Path: "# Getting Started > ## Configuration", Level: 2},
	}
	if len(sections) != len(want) {
		t.Fatalf("expected %d sections, got %d: %+v", len(want), len(sections), sections)
	}
	for i, w := range want {
		if sections[i] != w {
			t.Errorf("section %d: expected %+v, got %+v", i, w, sections[i])
		}
	}
}

func TestExtract_NoHeadings(t *testing.T) {
	sections, err := NewExtractor().Extract([]byte("plain prose without any headings"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(sections) != 0 {
		t.Errorf("expected no sections, got %d", len(sections))
	}
}

func TestTitles(t *testing.T) {
	sections := []Section{{Title: "One"}, {Title: "Two"}}
	titles := Titles(sections)
	if len(titles) != 2 || titles[0] != "One" || titles[1] != "Two" {
		t.Errorf("unexpected titles: %v", titles)
	}
}
