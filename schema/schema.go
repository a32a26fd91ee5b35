// Package schema infers, per language, how the words of a parsed sentence
// relate to each other for relation building: which word governs a word
// (head), which group it belongs to (cluster) and whether it is negated or
// contrasted.
package schema

import (
	"strings"

	"github.com/brunobiangulo/gorus/ud"
)

// Features is a set of linguistic markers attached to a word.
type Features uint8

const (
	// Negation marks a word negated by a language negator.
	Negation Features = 1 << iota
	// Contrast marks a word introduced by an exclusion marker
	// ("except", "instead of", "statt").
	Contrast
)

// Has reports whether all features in f are set.
func (fs Features) Has(f Features) bool { return fs&f == f }

// Negated reports whether fs carries Negation or Contrast.
func (fs Features) Negated() bool { return fs&(Negation|Contrast) != 0 }

func (fs Features) String() string {
	var names []string
	if fs.Has(Negation) {
		names = append(names, "NEGATION")
	}
	if fs.Has(Contrast) {
		names = append(names, "CONTRAST")
	}
	return strings.Join(names, "|")
}

// Relation is the schema's verdict for one word.
type Relation struct {
	Head     int
	Cluster  int
	Features Features
}

// Schema infers the relation of a word within its sentence.
// Implementations must be safe for concurrent use.
type Schema interface {
	InferRelation(s ud.Sentence, w ud.Word) Relation
}

// Preprocessor is implemented by schemas that adjust a parsed sentence
// before relations are inferred. The input must not be modified.
type Preprocessor interface {
	PreprocessSentence(s ud.Sentence) ud.Sentence
}

// Default treats every word as independent: its own cluster, governed by
// ROOT.
type Default struct{}

func (Default) InferRelation(_ ud.Sentence, w ud.Word) Relation {
	return Relation{Head: ud.Root, Cluster: w.ID}
}

// Preprocess applies sch's preprocessing hook if it has one.
func Preprocess(sch Schema, s ud.Sentence) ud.Sentence {
	if p, ok := sch.(Preprocessor); ok {
		return p.PreprocessSentence(s)
	}
	return s
}
