package relations

import (
	"slices"

	"github.com/brunobiangulo/gorus/schema"
	"github.com/brunobiangulo/gorus/ud"
)

// AnnotatedWord is a parsed word together with what relation building
// derives for it. The parser's word is copied, never modified.
type AnnotatedWord struct {
	Word     ud.Word
	Head     int
	Cluster  int
	Features schema.Features

	// Entity is the mention the word belongs to, or nil.
	Entity *Entity

	// Path lists the governing words from ROOT (0) down to Head.
	Path []int
}

// Annotate infers relations for every word of s and assigns entities.
// A word belongs to the first entity (in the given order) whose span
// contains the word's start offset; words without offsets, such as the
// parts of a multiword token, get no entity.
func Annotate(s ud.Sentence, entities []Entity, sch schema.Schema) []AnnotatedWord {
	words := make([]AnnotatedWord, len(s.Words))
	for i, w := range s.Words {
		rel := sch.InferRelation(s, w)
		if rel.Head < 0 || rel.Head > len(s.Words) || rel.Head == w.ID {
			rel.Head = ud.Root
		}
		if rel.Cluster <= 0 || rel.Cluster > len(s.Words) {
			rel.Cluster = w.ID
		}
		if negated(s, w) {
			rel.Features |= schema.Negation
		}

		aw := AnnotatedWord{
			Word:     w,
			Head:     rel.Head,
			Cluster:  rel.Cluster,
			Features: rel.Features,
		}
		if w.HasOffsets {
			for j := range entities {
				e := &entities[j]
				if e.Start <= w.StartChar && w.StartChar < e.End {
					aw.Entity = e
					break
				}
			}
		}
		words[i] = aw
	}

	for i := range words {
		words[i].Path = governors(words, i)
	}
	return words
}

// governors walks the inferred heads from words[i] up to ROOT. A cycle in
// the heads ends the walk as if ROOT had been reached.
func governors(words []AnnotatedWord, i int) []int {
	seen := map[int]bool{words[i].Word.ID: true}
	var chain []int
	for cur := words[i].Head; cur > 0 && !seen[cur]; cur = words[cur-1].Head {
		seen[cur] = true
		chain = append(chain, cur)
	}
	chain = append(chain, ud.Root)
	slices.Reverse(chain)
	return chain
}

// negated reports whether w is negated: it carries the relation "neg", or
// one of its direct dependents does or is marked as a negator by its
// morphology.
func negated(s ud.Sentence, w ud.Word) bool {
	if w.BaseDeprel() == "neg" {
		return true
	}
	for _, child := range s.Children(w.ID) {
		if child.BaseDeprel() == "neg" {
			return true
		}
		feats := ud.ParseFeats(child.Feats)
		if feats["Polarity"] == "Neg" || feats["PronType"] == "Neg" || feats["Negative"] == "Neg" {
			return true
		}
	}
	return false
}
