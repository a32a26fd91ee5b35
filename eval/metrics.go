package eval

import "github.com/brunobiangulo/gorus/relations"

// Scores compares a built tree with the expected one. Every score is in
// [0, 1]; a ratio with nothing to count is 1.
type Scores struct {
	// ExactMatch is 1 when the trees are equal with positions compared.
	ExactMatch float64 `json:"exact_match"`
	// Polarity is the share of expected mentions that are present and
	// wanted or excluded as expected.
	Polarity float64 `json:"polarity"`
	// Attachment is the share of expected mentions that are present and
	// bound to the expected entity (or to none).
	Attachment float64 `json:"attachment"`
	// ExclusionPrecision and ExclusionRecall count mentions under an odd
	// number of exclusions.
	ExclusionPrecision float64 `json:"exclusion_precision"`
	ExclusionRecall    float64 `json:"exclusion_recall"`
}

// mention identifies an entity occurrence by its offsets.
type mention struct {
	start, end int
}

type placement struct {
	excluded  bool
	parent    mention
	hasParent bool
}

// Score compares got against want.
func Score(got, want relations.Node) Scores {
	var s Scores
	if relations.Equal(got, want, relations.Literal) {
		s.ExactMatch = 1
	}

	g, w := placements(got), placements(want)

	var polarity, attachment int
	var gotExcluded, wantExcluded, bothExcluded int
	for m, wp := range w {
		if wp.excluded {
			wantExcluded++
		}
		gp, ok := g[m]
		if !ok {
			continue
		}
		if gp.excluded == wp.excluded {
			polarity++
		}
		if gp.hasParent == wp.hasParent && gp.parent == wp.parent {
			attachment++
		}
		if gp.excluded && wp.excluded {
			bothExcluded++
		}
	}
	for _, gp := range g {
		if gp.excluded {
			gotExcluded++
		}
	}

	s.Polarity = ratio(polarity, len(w))
	s.Attachment = ratio(attachment, len(w))
	s.ExclusionPrecision = ratio(bothExcluded, gotExcluded)
	s.ExclusionRecall = ratio(bothExcluded, wantExcluded)
	return s
}

// placements records for every entity mention in n whether it is excluded
// and which entity it is bound to.
func placements(n relations.Node) map[mention]placement {
	out := make(map[mention]placement)
	if n == nil {
		return out
	}
	var walk func(n relations.Node, negated bool, parent *mention)
	walk = func(n relations.Node, negated bool, parent *mention) {
		switch n := n.(type) {
		case relations.Not:
			for _, c := range n.Relations() {
				walk(c, !negated, parent)
			}
		case relations.EntityNode:
			e := n.Entity()
			m := mention{e.Start, e.End}
			p := placement{excluded: negated}
			if parent != nil {
				p.parent, p.hasParent = *parent, true
			}
			out[m] = p
			for _, c := range n.Relations() {
				walk(c, negated, &m)
			}
		default:
			for _, c := range n.Relations() {
				walk(c, negated, parent)
			}
		}
	}
	walk(n, false, nil)
	return out
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 1
	}
	return float64(num) / float64(den)
}
