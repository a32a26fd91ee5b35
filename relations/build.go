// Package relations builds Retrieval-Union Semantics trees: from a parsed
// sentence and the entities found in its text, a small logical tree of
// which entities belong together (SET), which are excluded (NOT) and which
// are bound to another entity (nesting).
//
// Construction runs in fixed steps per sentence. Entity-bearing words
// become substances, substances get dependency paths, paths are reduced to
// their branching points, substances are grouped into clusters in an
// arena, and the arena is finalized into immutable nodes.
package relations

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/gorus/schema"
	"github.com/brunobiangulo/gorus/ud"
)

// Options control relation building.
type Options struct {
	// Equality selects how duplicate entities within one union are found.
	Equality Equality

	// Strict reports clusters without a parent as ErrConstructionViolation
	// instead of dropping them.
	Strict bool

	// Concurrency limits how many sentences are built in parallel.
	// Zero means one per CPU.
	Concurrency int
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.NumCPU()
}

// BuildSentence builds the relation tree of one sentence. Entity offsets
// refer to the whole document text. A sentence without entity-bearing
// words yields Empty.
func BuildSentence(s ud.Sentence, entities []Entity, sch schema.Schema, opts Options) (Node, error) {
	if sch == nil {
		sch = schema.Default{}
	}
	s = schema.Preprocess(sch, s)

	words := Annotate(s, entities, sch)
	subs := buildSubstances(words)
	if len(subs) == 0 {
		return Empty{}, nil
	}
	subs = resolvePaths(words, subs)

	a := newAssembler(subs, opts)
	root, err := a.assemble()
	if err != nil {
		return nil, err
	}
	return a.finalize(root)
}

// BuildDocument builds the trees of all sentences and merges them: no
// tree gives Empty, one tree is returned as is, several are wrapped in a
// Set in sentence order. Sentences are built concurrently.
func BuildDocument(ctx context.Context, doc *ud.Document, entities []Entity, sch schema.Schema, opts Options) (Node, error) {
	if doc == nil || len(entities) == 0 {
		return Empty{}, nil
	}

	trees := make([]Node, len(doc.Sentences))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency())
	for i, s := range doc.Sentences {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tree, err := BuildSentence(s, entities, sch, opts)
			if err != nil {
				return fmt.Errorf("sentence %d: %w", i+1, err)
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []Node
	for _, t := range trees {
		if t.Kind() != KindEmpty {
			merged = append(merged, t)
		}
	}
	switch len(merged) {
	case 0:
		return Empty{}, nil
	case 1:
		return merged[0], nil
	default:
		return NewSet(merged...), nil
	}
}
