package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// PDFParser extracts the text layer of PDF files, one section per
// paragraph. Scanned pages without a text layer yield nothing.
type PDFParser struct{}

func (p *PDFParser) SupportedFormats() []string { return []string{"pdf"} }

func (p *PDFParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	sections := make([]Section, 0)

	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sections = append(sections, splitPageIntoSections(text, i)...)
	}

	return &ParseResult{
		Sections: sections,
		Method:   "native",
		Metadata: map[string]string{"pages": fmt.Sprintf("%d", totalPages)},
	}, nil
}

// splitPageIntoSections breaks page text into paragraphs and attaches
// detected heading lines to the paragraphs that follow them.
func splitPageIntoSections(text string, pageNum int) []Section {
	var sections []Section
	var body strings.Builder
	heading, level := "", 0

	flush := func() {
		for _, s := range splitParagraphs(body.String(), pageNum) {
			s.Heading, s.Level = heading, level
			sections = append(sections, s)
		}
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && isLikelyHeading(trimmed) {
			flush()
			heading, level = trimmed, detectHeadingLevel(trimmed)
			continue
		}
		body.WriteString(trimmed)
		body.WriteByte('\n')
	}
	flush()
	return sections
}

// headingPrefixes start heading lines in the supported languages.
var headingPrefixes = []string{
	"section ", "chapter ", "part ", "article ",
	"abschnitt ", "kapitel ", "teil ",
	"afsnit ",
	"sección ", "seccion ", "capítulo ", "capitulo ",
	"chapitre ", "partie ",
	"sezione ", "capitolo ",
	"глава ", "раздел ",
}

func isLikelyHeading(line string) bool {
	if line == "" {
		return false
	}
	// All caps and short
	if len(line) < 100 && line == strings.ToUpper(line) && line != strings.ToLower(line) && len(line) > 2 {
		return true
	}
	if len(line) >= 120 {
		return false
	}
	// Numbered section like "1. Scope", "3.9.1 Delivery"
	if line[0] >= '0' && line[0] <= '9' {
		num, rest, _ := strings.Cut(line, " ")
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(rest))
		if strings.Contains(num, ".") && strings.Trim(num, "0123456789.") == "" && unicode.IsUpper(r) {
			return true
		}
	}
	lower := strings.ToLower(line)
	for _, p := range headingPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func detectHeadingLevel(heading string) int {
	// Count dots in numbering to determine depth
	num, _, _ := strings.Cut(heading, " ")
	if dots := strings.Count(strings.TrimSuffix(num, "."), "."); dots > 0 || strings.HasSuffix(num, ".") {
		return dots + 1
	}
	// All-caps = top level
	if heading == strings.ToUpper(heading) {
		return 1
	}
	return 2
}
