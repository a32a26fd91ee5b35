package relations

import (
	"slices"

	"github.com/brunobiangulo/gorus/schema"
)

// Substance is the relation-building record of one entity-bearing word.
type Substance struct {
	Path     []int
	ID       int
	Head     int
	Cluster  int
	Features schema.Features
	Entity   Entity

	// lifted is set when the word's own negation is expressed by a
	// negative marker in Path, so the entity itself is not wrapped again.
	lifted bool
}

// buildSubstances creates one substance per entity-bearing word, in word
// order. Path is the word's governor chain until paths are resolved.
func buildSubstances(words []AnnotatedWord) []Substance {
	var subs []Substance
	for _, w := range words {
		if w.Entity == nil {
			continue
		}
		subs = append(subs, Substance{
			Path:     slices.Clone(w.Path),
			ID:       w.Word.ID,
			Head:     w.Head,
			Cluster:  w.Cluster,
			Features: w.Features,
			Entity:   *w.Entity,
		})
	}
	return subs
}

// negatedEntity reports whether the entity must be wrapped in its own NOT.
func (s Substance) negatedEntity() bool {
	return s.Features.Negated() && !s.lifted
}
