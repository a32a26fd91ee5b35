// Package ud models the output of a dependency parser in the shape of
// Universal Dependencies: documents of sentences of words, each word with
// a 1-based id, a governing head (0 = ROOT), a relation label, morphology
// and character offsets into the source text.
package ud

import (
	"sort"
	"strings"
)

// Root is the reserved head id of the sentence root.
const Root = 0

// Document is a parsed text.
type Document struct {
	Text      string
	Sentences []Sentence
}

// Sentence is one sentence of a document. Words are ordered and Words[i]
// has ID i+1.
type Sentence struct {
	ID     string
	Text   string
	Words  []Word
	Tokens []MultiwordToken
}

// MultiwordToken is a surface token that the parser split into several
// syntactic words (German "zum" = "zu dem"). The offsets belong to the
// token; the words it spans carry none.
type MultiwordToken struct {
	First      int
	Last       int
	Text       string
	Misc       string
	StartChar  int
	EndChar    int
	HasOffsets bool
}

// Word is one syntactic word.
type Word struct {
	ID     int
	Text   string
	Lemma  string
	UPOS   string
	XPOS   string
	Feats  string
	Head   int
	Deprel string
	Misc   string

	// StartChar and EndChar are code point offsets into Document.Text.
	// They are only meaningful when HasOffsets is set; fragments of a
	// multiword token have none.
	StartChar  int
	EndChar    int
	HasOffsets bool
}

// Word returns the word with the given 1-based id.
func (s Sentence) Word(id int) (Word, bool) {
	if id < 1 || id > len(s.Words) {
		return Word{}, false
	}
	return s.Words[id-1], true
}

// Children returns the direct dependents of the word with the given id,
// in sentence order.
func (s Sentence) Children(id int) []Word {
	var children []Word
	for _, w := range s.Words {
		if w.Head == id && w.ID != id {
			children = append(children, w)
		}
	}
	return children
}

// Feat returns the value of a morphological feature or "".
func (w Word) Feat(key string) string {
	return ParseFeats(w.Feats)[key]
}

// WithFeat returns a copy of w with the feature key set to value.
func (w Word) WithFeat(key, value string) Word {
	feats := ParseFeats(w.Feats)
	feats[key] = value
	w.Feats = FormatFeats(feats)
	return w
}

// BaseDeprel returns the universal part of the relation label, without
// a language specific subtype ("nmod:poss" -> "nmod").
func (w Word) BaseDeprel() string {
	rel, _, _ := strings.Cut(w.Deprel, ":")
	return strings.ToLower(rel)
}

// ParseFeats parses a pipe separated Key=Value list. "_" and "" yield an
// empty map; malformed entries are skipped.
func ParseFeats(s string) map[string]string {
	feats := make(map[string]string)
	if s == "" || s == "_" {
		return feats
	}
	for _, part := range strings.Split(s, "|") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			continue
		}
		feats[key] = value
	}
	return feats
}

// FormatFeats renders features in CoNLL-U order (keys sorted case
// insensitively).
func FormatFeats(feats map[string]string) string {
	if len(feats) == 0 {
		return ""
	}
	keys := make([]string, 0, len(feats))
	for k := range feats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + feats[k]
	}
	return strings.Join(parts, "|")
}
