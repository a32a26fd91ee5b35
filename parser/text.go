package parser

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// TextParser handles plain text (.txt) and markdown (.md) files. Every
// paragraph becomes a section; markdown headings name the sections below
// them.
type TextParser struct{}

func (p *TextParser) SupportedFormats() []string { return []string{"txt", "md"} }

func (p *TextParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}
	return &ParseResult{
		Sections: splitParagraphs(string(data), 0),
		Method:   "native",
	}, nil
}

// splitParagraphs breaks text at blank lines. Lines within a paragraph are
// joined with spaces, and a word hyphenated across a line break is
// rejoined. Markdown headings ("## Fruit") are not content; they become
// the heading of the paragraphs that follow.
func splitParagraphs(text string, pageNum int) []Section {
	var sections []Section
	var lines []string
	heading, level := "", 0

	flush := func() {
		if len(lines) == 0 {
			return
		}
		sections = append(sections, Section{
			Heading:    heading,
			Content:    joinLines(lines),
			Level:      level,
			PageNumber: pageNum,
			Type:       "paragraph",
		})
		lines = nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case isMarkdownHeading(trimmed):
			flush()
			hashes := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			heading, level = strings.TrimSpace(trimmed[hashes:]), hashes
		default:
			lines = append(lines, trimmed)
		}
	}
	flush()
	return sections
}

func isMarkdownHeading(line string) bool {
	hashes := len(line) - len(strings.TrimLeft(line, "#"))
	return hashes > 0 && hashes <= 6 && len(line) > hashes && line[hashes] == ' '
}

func joinLines(lines []string) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			prev := lines[i-1]
			if strings.HasSuffix(prev, "-") && len(prev) > 1 && l != "" && isLower(l[0]) {
				// "straw-" + "berries"
				s := sb.String()
				sb.Reset()
				sb.WriteString(s[:len(s)-1])
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(l)
	}
	return sb.String()
}

func isLower(b byte) bool { return b >= 'a' && b <= 'z' }
