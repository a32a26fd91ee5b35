// Package parser extracts text units from document files so relations can
// be built for each of them: paragraphs of text, markdown, Word and
// PowerPoint files and PDF pages, rows of spreadsheets and Word tables.
package parser

import (
	"context"
	"errors"
)

// ErrUnsupportedFormat is returned for files no parser handles.
var ErrUnsupportedFormat = errors.New("gorus: unsupported format")

// ParseResult is what a parser produces from a document file.
type ParseResult struct {
	Sections []Section // Ordered text units extracted from the document
	Method   string    // "native"
	Metadata map[string]string
}

// Section is one text unit of a parsed document.
type Section struct {
	Heading    string
	Content    string
	Level      int // Heading level (1=top, 2=sub, etc.)
	PageNumber int
	Row        int    // 1-based spreadsheet row, 0 elsewhere
	Type       string // "paragraph", "row"
	Metadata   map[string]string
}

// Texts returns the non-empty section contents in order.
func (r *ParseResult) Texts() []string {
	var out []string
	for _, s := range r.Sections {
		if s.Content != "" {
			out = append(out, s.Content)
		}
	}
	return out
}

// Parser can parse a specific document format.
type Parser interface {
	Parse(ctx context.Context, path string) (*ParseResult, error)
	SupportedFormats() []string
}
