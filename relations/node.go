package relations

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Kind identifies a node variant.
type Kind int

const (
	KindEmpty Kind = iota
	KindEntity
	KindSet
	KindNot
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "EMPTY"
	case KindEntity:
		return "ENTITY"
	case KindSet:
		return "SET"
	case KindNot:
		return "NOT"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is an element of a relation tree. The variants are Empty,
// EntityNode, Set and Not; the set is closed. Nodes are immutable:
// Relations returns a copy.
type Node interface {
	Kind() Kind
	Relations() []Node
	node()
}

// Empty is the tree without relations.
type Empty struct{}

// EntityNode is a single mention, optionally owning relations bound to it.
type EntityNode struct {
	entity    Entity
	relations []Node
}

// Set is a union: every member is jointly relevant.
type Set struct {
	relations []Node
}

// Not is an exclusion: every member is excluded. It is never empty.
type Not struct {
	relations []Node
}

// NewEntityNode creates an entity node owning the given relations.
func NewEntityNode(e Entity, relations ...Node) EntityNode {
	return EntityNode{entity: e, relations: slices.Clone(relations)}
}

// NewSet creates a union of the given nodes.
func NewSet(relations ...Node) Set {
	return Set{relations: slices.Clone(relations)}
}

// NewNot creates an exclusion of the given nodes. An exclusion of nothing
// is a construction violation.
func NewNot(relations ...Node) (Not, error) {
	if len(relations) == 0 {
		return Not{}, fmt.Errorf("%w: NOT requires at least one relation", ErrConstructionViolation)
	}
	return Not{relations: slices.Clone(relations)}, nil
}

// MustNot is like NewNot but panics on an empty argument list.
func MustNot(relations ...Node) Not {
	n, err := NewNot(relations...)
	if err != nil {
		panic(err)
	}
	return n
}

func (Empty) Kind() Kind      { return KindEmpty }
func (EntityNode) Kind() Kind { return KindEntity }
func (Set) Kind() Kind        { return KindSet }
func (Not) Kind() Kind        { return KindNot }

func (Empty) Relations() []Node        { return nil }
func (n EntityNode) Relations() []Node { return slices.Clone(n.relations) }
func (n Set) Relations() []Node        { return slices.Clone(n.relations) }
func (n Not) Relations() []Node        { return slices.Clone(n.relations) }

func (Empty) node()      {}
func (EntityNode) node() {}
func (Set) node()        {}
func (Not) node()        {}

// Entity returns the mention of an entity node.
func (n EntityNode) Entity() Entity { return n.entity }

// Equal reports whether two trees are structurally equal. Relations are
// compared as multisets, so member order does not matter. Entities are
// compared under mode.
func Equal(a, b Node, mode Equality) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if ea, ok := a.(EntityNode); ok {
		eb := b.(EntityNode)
		if !ea.entity.Equal(eb.entity, mode) {
			return false
		}
	}
	return sameMembers(nodeRelations(a), nodeRelations(b), mode)
}

// nodeRelations returns the members without copying.
func nodeRelations(n Node) []Node {
	switch n := n.(type) {
	case Empty:
		return nil
	case EntityNode:
		return n.relations
	case Set:
		return n.relations
	case Not:
		return n.relations
	}
	panic(fmt.Sprintf("relations: unknown node type %T", n))
}

func sameMembers(a, b []Node, mode Equality) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for j, y := range b {
			if !used[j] && Equal(x, y, mode) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

type nodeJSON struct {
	Type      string  `json:"type"`
	Entity    *Entity `json:"entity,omitempty"`
	Relations []Node  `json:"relations,omitempty"`
}

func (Empty) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{Type: KindEmpty.String()})
}

func (n EntityNode) MarshalJSON() ([]byte, error) {
	e := n.entity
	return json.Marshal(nodeJSON{Type: KindEntity.String(), Entity: &e, Relations: n.relations})
}

func (n Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{Type: KindSet.String(), Relations: n.relations})
}

func (n Not) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{Type: KindNot.String(), Relations: n.relations})
}

type nodeWire struct {
	Type      string            `json:"type"`
	Entity    *Entity           `json:"entity"`
	Relations []json.RawMessage `json:"relations"`
}

// DecodeNode parses the JSON form produced by marshaling a Node.
func DecodeNode(data []byte) (Node, error) {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding node: %w", err)
	}

	members := make([]Node, 0, len(w.Relations))
	for _, raw := range w.Relations {
		m, err := DecodeNode(raw)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	switch w.Type {
	case KindEmpty.String():
		return Empty{}, nil
	case KindEntity.String():
		if w.Entity == nil {
			return nil, fmt.Errorf("decoding node: ENTITY without entity")
		}
		return NewEntityNode(*w.Entity, members...), nil
	case KindSet.String():
		return NewSet(members...), nil
	case KindNot.String():
		return NewNot(members...)
	default:
		return nil, fmt.Errorf("decoding node: unknown type %q", w.Type)
	}
}
