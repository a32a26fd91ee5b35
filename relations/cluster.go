package relations

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/brunobiangulo/gorus/schema"
)

// cluster is the mutable construction state of one tree node. Clusters
// live in the assembler's arena and refer to each other by arena index.
// A negative id marks the exclusion wrapper of the positive cluster -id.
type cluster struct {
	id       int
	path     []int
	head     int
	features schema.Features
	negated  bool
	anchored bool

	elements []int // substance indices
	children []int // arena indices
}

// assembler groups resolved substances into clusters and nests them.
type assembler struct {
	subs  []Substance
	arena []cluster
	index map[int]int // cluster id -> arena index
	opts  Options
}

func newAssembler(subs []Substance, opts Options) *assembler {
	return &assembler{
		subs:  subs,
		index: make(map[int]int),
		opts:  opts,
	}
}

// assemble runs the cluster steps in order and returns the arena index of
// the root cluster.
func (a *assembler) assemble() (int, error) {
	a.group()
	a.promoteExclusions()
	a.synthesizeConvergence()
	a.normalize()
	a.insertRoot()
	root := a.selectRoot()
	if err := a.nest(root); err != nil {
		return -1, err
	}
	return root, nil
}

// ensure returns the arena index of cluster id, creating it with path if
// it does not exist yet.
func (a *assembler) ensure(id int, path []int) int {
	if k, ok := a.index[id]; ok {
		return k
	}
	a.arena = append(a.arena, cluster{
		id:      id,
		path:    slices.Clone(path),
		negated: id < 0,
	})
	k := len(a.arena) - 1
	a.index[id] = k
	return k
}

// group creates one cluster per substance cluster id and one per negative
// marker. The substance whose word anchors the cluster (id == cluster)
// fixes the cluster's canonical path; without an anchor the first
// element's path is used. Words of one mention split by the parser are
// kept as a single element.
func (a *assembler) group() {
	for i, s := range a.subs {
		for j, id := range s.Path {
			if id < 0 {
				a.ensure(id, s.Path[:j+1])
			}
		}

		k := a.ensure(s.Cluster, s.Path)
		c := &a.arena[k]
		if s.ID == s.Cluster && !c.anchored {
			c.path = slices.Clone(s.Path)
			c.features = s.Features
			c.anchored = true
		}

		merged := false
		for _, e := range c.elements {
			if a.subs[e].Entity == s.Entity {
				merged = true
				break
			}
		}
		if !merged {
			c.elements = append(c.elements, i)
		}
	}
}

// promoteExclusions lets an exclusion marker govern everything reached
// through its positive id: every path containing p without -p gets -p
// inserted before p.
func (a *assembler) promoteExclusions() {
	for _, neg := range a.arena {
		if !neg.negated {
			continue
		}
		p := -neg.id
		for k := range a.arena {
			c := &a.arena[k]
			if c.id == neg.id || slices.Contains(c.path, neg.id) {
				continue
			}
			if at := slices.Index(c.path, p); at >= 0 {
				c.path = slices.Insert(c.path, at, neg.id)
			}
		}
	}
}

// synthesizeConvergence materializes shared ancestors. Each cluster's path
// is scanned right to left from its parent; every positive id met before
// the first existing cluster is a candidate. A candidate reached from two
// or more clusters becomes an element-less cluster, with the sub-path of
// its first discovery as canonical path.
func (a *assembler) synthesizeConvergence() {
	type candidate struct {
		path     []int
		clusters []int
	}
	candidates := make(map[int]*candidate)
	var order []int

	for _, c := range a.arena {
		for i := len(c.path) - 2; i >= 0; i-- {
			id := c.path[i]
			if _, ok := a.index[id]; ok || id <= 0 {
				break
			}
			cand, ok := candidates[id]
			if !ok {
				cand = &candidate{path: c.path[:i+1]}
				candidates[id] = cand
				order = append(order, id)
			}
			if !slices.Contains(cand.clusters, c.id) {
				cand.clusters = append(cand.clusters, c.id)
			}
		}
	}

	for _, id := range order {
		if cand := candidates[id]; len(cand.clusters) >= 2 {
			a.ensure(id, cand.path)
		}
	}
}

// normalize strips every id that is neither ROOT nor a cluster from all
// paths and re-derives the heads.
func (a *assembler) normalize() {
	for k := range a.arena {
		c := &a.arena[k]
		path := make([]int, 0, len(c.path))
		for _, id := range c.path {
			if _, ok := a.index[id]; ok || id == 0 {
				path = append(path, id)
			}
		}
		c.path = path
		c.head = 0
		if len(path) >= 2 {
			c.head = path[len(path)-2]
		}
	}
}

// insertRoot adds an element-less ROOT cluster when there is none and the
// clusters start with at least two different top-level ids.
func (a *assembler) insertRoot() {
	if _, ok := a.index[0]; ok {
		return
	}
	tops := make(map[int]bool)
	for _, c := range a.arena {
		if len(c.path) >= 2 {
			tops[c.path[1]] = true
		}
	}
	if len(tops) > 1 {
		a.ensure(0, []int{0})
	}
}

// selectRoot returns the cluster with the shortest path; ties go to the
// lowest id.
func (a *assembler) selectRoot() int {
	root := 0
	for k, c := range a.arena {
		r := a.arena[root]
		if len(c.path) < len(r.path) || (len(c.path) == len(r.path) && c.id < r.id) {
			root = k
		}
	}
	return root
}

// nest attaches every non-root cluster to the cluster named by its head.
// A cluster whose head is not a cluster is dropped, or reported as a
// construction violation in strict mode.
func (a *assembler) nest(root int) error {
	for k, c := range a.arena {
		if k == root {
			continue
		}
		parent, ok := a.index[c.head]
		if !ok || parent == k {
			if a.opts.Strict {
				return fmt.Errorf("%w: cluster %d has no parent cluster %d", ErrConstructionViolation, c.id, c.head)
			}
			slog.Debug("relations: orphan cluster dropped", "cluster", c.id, "head", c.head)
			continue
		}
		a.arena[parent].children = append(a.arena[parent].children, k)
	}
	return nil
}
