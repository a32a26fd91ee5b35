// Package chunker cuts parsed document sections into texts small enough
// for one relation request.
package chunker

import (
	"strings"

	"github.com/brunobiangulo/gorus/parser"
)

// Config controls the chunking behaviour.
type Config struct {
	MaxWords int // Maximum words per chunk; a longer sentence stays whole.
}

// Chunk is one request-sized text and where it came from.
type Chunk struct {
	Text       string
	Heading    string
	PageNumber int
	Row        int
}

// Chunker converts parsed document sections into chunks.
type Chunker struct {
	cfg Config
}

// New returns a Chunker with the given configuration.
// A zero MaxWords means 200.
func New(cfg Config) *Chunker {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 200
	}
	return &Chunker{cfg: cfg}
}

// Chunk converts sections into chunks in document order. Sections
// without content are skipped. Chunks never overlap, so an entity
// mention is seen once.
func (c *Chunker) Chunk(sections []parser.Section) []Chunk {
	var chunks []Chunk
	for _, sec := range sections {
		for _, text := range c.Split(sec.Content) {
			chunks = append(chunks, Chunk{
				Text:       text,
				Heading:    sec.Heading,
				PageNumber: sec.PageNumber,
				Row:        sec.Row,
			})
		}
	}
	return chunks
}

// Split breaks text into fragments of at most MaxWords words. Paragraphs
// are kept apart; a long paragraph is packed sentence by sentence.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if countWords(text) <= c.cfg.MaxWords {
		return []string{text}
	}

	var fragments []string
	var current []string
	currentWords := 0
	flush := func() {
		if len(current) > 0 {
			fragments = append(fragments, strings.Join(current, " "))
			current, currentWords = nil, 0
		}
	}

	for _, para := range splitParagraphs(text) {
		if countWords(para) <= c.cfg.MaxWords {
			fragments = append(fragments, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			n := countWords(sent)
			if currentWords+n > c.cfg.MaxWords {
				flush()
			}
			current = append(current, sent)
			currentWords += n
		}
		flush()
	}
	return fragments
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func countWords(text string) int {
	return len(strings.Fields(text))
}

// splitParagraphs splits text on blank-line boundaries.
func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences splits on a period, question mark or exclamation mark
// followed by whitespace or the end of the text.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				if s := strings.TrimSpace(cur.String()); s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
			}
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
