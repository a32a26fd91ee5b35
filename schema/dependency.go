package schema

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brunobiangulo/gorus/ud"
)

// Lexicon holds the marker words of one language. Entries are lower case;
// an entry ending in "*" matches every word with that prefix.
type Lexicon struct {
	// Negators are words that negate what they attach to.
	Negators []string
	// Contrasts are exclusion markers ("except", "statt").
	Contrasts []string
}

// Dependency is a schema that follows the dependency tree: a word is
// governed by its syntactic head and forms its own cluster, except for the
// parts of multi-word expressions, which join the cluster of their
// governor. Words with an exclusion marker among their dependents carry
// Contrast.
type Dependency struct {
	tag     language.Tag
	lexicon Lexicon
}

// NewDependency creates a dependency schema for a language code.
func NewDependency(code string, lexicon Lexicon) *Dependency {
	tag, err := language.Parse(code)
	if err != nil {
		tag = language.Und
	}
	return &Dependency{tag: tag, lexicon: lexicon}
}

// joining relations glue a word to its governor as one expression
// ("fruit cake", "New York", "as well as").
var joining = map[string]bool{
	"compound": true,
	"flat":     true,
	"fixed":    true,
	"goeswith": true,
}

// markers are the relations through which exclusion markers attach.
var markers = map[string]bool{
	"case":   true,
	"mark":   true,
	"cc":     true,
	"advmod": true,
	"dep":    true,
}

func (d *Dependency) InferRelation(s ud.Sentence, w ud.Word) Relation {
	rel := Relation{Head: w.Head, Cluster: w.ID}

	// Follow joining relations up to the expression's governor. The walk
	// is bounded by the sentence length so a cyclic parse cannot hang.
	gov := w
	for range len(s.Words) {
		if !joining[gov.BaseDeprel()] {
			break
		}
		next, ok := s.Word(gov.Head)
		if !ok || next.ID == gov.ID {
			break
		}
		gov = next
	}
	if gov.ID != w.ID {
		rel.Cluster = gov.ID
		rel.Head = gov.Head
	}

	if d.contrasted(s, w) {
		rel.Features |= Contrast
	}
	return rel
}

func (d *Dependency) contrasted(s ud.Sentence, w ud.Word) bool {
	if len(d.lexicon.Contrasts) == 0 {
		return false
	}
	for _, child := range s.Children(w.ID) {
		if !markers[child.BaseDeprel()] {
			continue
		}
		if d.matches(d.lexicon.Contrasts, child) {
			return true
		}
	}
	return false
}

// PreprocessSentence marks negator words the parser left without a
// negative polarity, so the relation builder recognizes them.
func (d *Dependency) PreprocessSentence(s ud.Sentence) ud.Sentence {
	if len(d.lexicon.Negators) == 0 {
		return s
	}
	out := s
	out.Words = make([]ud.Word, len(s.Words))
	copy(out.Words, s.Words)
	for i, w := range out.Words {
		if negative(w) || !d.matches(d.lexicon.Negators, w) {
			continue
		}
		out.Words[i] = w.WithFeat("Polarity", "Neg")
	}
	return out
}

func (d *Dependency) matches(entries []string, w ud.Word) bool {
	lower := cases.Lower(d.tag)
	candidates := []string{lower.String(w.Text)}
	if w.Lemma != "" {
		candidates = append(candidates, lower.String(w.Lemma))
	}
	for _, entry := range entries {
		prefix, wildcard := strings.CutSuffix(entry, "*")
		for _, c := range candidates {
			if c == entry || (wildcard && strings.HasPrefix(c, prefix)) {
				return true
			}
		}
	}
	return false
}

// negative reports whether the parser already marked w as a negator.
func negative(w ud.Word) bool {
	feats := ud.ParseFeats(w.Feats)
	return feats["Polarity"] == "Neg" || feats["PronType"] == "Neg" || feats["Negative"] == "Neg"
}
