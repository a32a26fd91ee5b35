package relations

import (
	"fmt"
	"slices"
	"sort"
)

// draft is a finalized node together with the position of its first word,
// which orders siblings as they appear in the sentence.
type draft struct {
	node  Node
	order int
}

// finalize turns the arena below root into an immutable tree. An empty
// result collapses to Empty.
func (a *assembler) finalize(root int) (Node, error) {
	d, err := a.build(root)
	if err != nil {
		return nil, err
	}
	if d.node == nil {
		return Empty{}, nil
	}
	return d.node, nil
}

// build finalizes one cluster. A nil node means the cluster has nothing
// to contribute.
//
//   - an exclusion cluster becomes Not(members)
//   - an element-less cluster becomes Set(children)
//   - a single element becomes Entity(children), or Not([Entity]) when the
//     element is negated on its own
//   - several elements become Set(elements, children) with negated
//     elements wrapped individually
//
// Elements of an exclusion cluster, or of a cluster below an exclusion
// marker, are not wrapped again.
func (a *assembler) build(k int) (draft, error) {
	c := a.arena[k]

	var kids []draft
	for _, child := range c.children {
		d, err := a.build(child)
		if err != nil {
			return draft{}, err
		}
		if d.node != nil {
			kids = append(kids, d)
		}
	}

	excluded := c.negated || slices.ContainsFunc(c.path, func(id int) bool { return id < 0 })

	elems := make([]draft, 0, len(c.elements))
	wrapped := false
	for _, e := range c.elements {
		s := a.subs[e]
		var n Node = NewEntityNode(s.Entity)
		if s.negatedEntity() && !excluded {
			n = MustNot(n)
			wrapped = true
		}
		elems = append(elems, draft{node: n, order: s.ID})
	}

	all := sortDrafts(slices.Concat(elems, kids))
	order := 0
	if len(all) > 0 {
		order = all[0].order
	}

	switch {
	case c.negated:
		if len(all) == 0 {
			return draft{}, fmt.Errorf("%w: exclusion cluster %d has no relations", ErrConstructionViolation, c.id)
		}
		n, err := NewNot(nodes(all)...)
		if err != nil {
			return draft{}, err
		}
		return draft{node: n, order: order}, nil

	case len(elems) == 0:
		if len(kids) == 0 {
			return draft{}, nil
		}
		return draft{node: a.union(all), order: order}, nil

	case len(elems) == 1 && !wrapped:
		s := a.subs[c.elements[0]]
		return draft{node: NewEntityNode(s.Entity, flatten(sortDrafts(kids))...), order: order}, nil

	case len(elems) == 1 && len(kids) == 0:
		return elems[0], nil

	default:
		return draft{node: a.union(all), order: order}, nil
	}
}

// union builds a Set. In semantic mode entity members naming the same
// thing collapse into the first one, which takes over the relations of
// the others.
func (a *assembler) union(members []draft) Set {
	if a.opts.Equality == Literal {
		return NewSet(nodes(members)...)
	}

	var out []Node
	for _, m := range members {
		en, ok := m.node.(EntityNode)
		if !ok {
			out = append(out, m.node)
			continue
		}
		dup := -1
		for i, prev := range out {
			if pe, ok := prev.(EntityNode); ok && pe.entity.Equal(en.entity, Semantic) {
				dup = i
				break
			}
		}
		if dup < 0 {
			out = append(out, en)
			continue
		}
		if len(en.relations) > 0 {
			pe := out[dup].(EntityNode)
			out[dup] = NewEntityNode(pe.entity, append(pe.Relations(), en.relations...)...)
		}
	}
	return NewSet(out...)
}

// flatten splices Set members into the relations of an entity: relations
// of an entity are a union already.
func flatten(members []draft) []Node {
	var out []Node
	for _, m := range members {
		if s, ok := m.node.(Set); ok {
			out = append(out, s.relations...)
			continue
		}
		out = append(out, m.node)
	}
	return out
}

func sortDrafts(ds []draft) []draft {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].order < ds[j].order })
	return ds
}

func nodes(ds []draft) []Node {
	out := make([]Node, len(ds))
	for i, d := range ds {
		out[i] = d.node
	}
	return out
}
