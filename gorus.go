// Package gorus builds Retrieval-Union Semantics relation trees for
// natural language requests: given a text, its language and the entity
// mentions found in it, it returns a tree telling which entities are
// wanted together, which are excluded and which qualify another entity.
package gorus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brunobiangulo/gorus/annotate"
	"github.com/brunobiangulo/gorus/nlp"
	"github.com/brunobiangulo/gorus/relations"
	"github.com/brunobiangulo/gorus/schema"
	"github.com/brunobiangulo/gorus/store"
	"github.com/brunobiangulo/gorus/ud"
)

// Engine is the main entry point for relation building.
type Engine interface {
	// Relations parses text and builds the relation tree of the given
	// entity spans. Offsets are code point offsets into text.
	Relations(ctx context.Context, lang, text string, spans []relations.Span, opts ...Option) (relations.Node, error)

	// Sentences returns the dependency parse of text.
	Sentences(ctx context.Context, lang, text string) (*ud.Document, error)

	// Annotate finds entity spans with the configured patterns.
	Annotate(text string) ([]relations.Span, error)

	// Languages returns the supported language codes.
	Languages() []string

	// Close cleanly shuts down the engine.
	Close() error
}

// Option configures a single Relations call.
type Option func(*options)

type options struct {
	equality relations.Equality
	strict   bool
}

// WithLiteralEquality keeps entities with the same label and text apart
// when they are different mentions.
func WithLiteralEquality() Option {
	return func(o *options) { o.equality = relations.Literal }
}

// WithSemanticEquality merges entities with the same label and text.
func WithSemanticEquality() Option {
	return func(o *options) { o.equality = relations.Semantic }
}

// WithStrictOrphans fails with ErrConstructionViolation instead of
// dropping clusters that cannot be attached.
func WithStrictOrphans() Option {
	return func(o *options) { o.strict = true }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg       Config
	store     *store.Store
	parser    nlp.Engine
	allow     *schema.AllowList
	annotator *annotate.Annotator
	defaults  options
}

// New creates a new gorus engine with the given configuration.
func New(cfg Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	allow, err := schema.NewAllowList(cfg.Languages...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	equality, _ := relations.ParseEquality(cfg.Equality)

	base, err := nlp.New(cfg.NLP)
	if err != nil {
		return nil, fmt.Errorf("creating nlp engine: %w", err)
	}

	var annotator *annotate.Annotator
	if cfg.Patterns != "" {
		annotator, err = annotate.Load(cfg.Patterns)
		if err != nil {
			return nil, fmt.Errorf("loading patterns: %w", err)
		}
	}

	var s *store.Store
	var cache nlp.Cache
	if !cfg.DisableCache {
		s, err = store.New(cfg.resolveDBPath())
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		cache = s
	}

	slog.Debug("gorus: engine ready",
		"nlp", base.Name(), "languages", allow.Codes(), "cache", !cfg.DisableCache)

	return &engine{
		cfg:       cfg,
		store:     s,
		parser:    nlp.NewCached(base, cache, cfg.MemoryCacheEntries),
		allow:     allow,
		annotator: annotator,
		defaults:  options{equality: equality, strict: cfg.StrictOrphans},
	}, nil
}

// Relations validates the language first, so an unsupported language is
// reported even for empty input. Blank text and missing spans give Empty
// without consulting the linguistic engine.
func (e *engine) Relations(ctx context.Context, lang, text string, spans []relations.Span, opts ...Option) (relations.Node, error) {
	o := e.defaults
	for _, opt := range opts {
		opt(&o)
	}

	lang, err := e.allow.Validate(lang)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" || len(spans) == 0 {
		return relations.Empty{}, nil
	}

	entities, err := relations.NewEntities(text, spans)
	if err != nil {
		return nil, err
	}

	doc, err := e.parser.Parse(ctx, lang, text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s text: %w", lang, err)
	}

	return relations.BuildDocument(ctx, doc, entities, schema.Lookup(lang), relations.Options{
		Equality:    o.equality,
		Strict:      o.strict,
		Concurrency: e.cfg.Concurrency,
	})
}

// Sentences returns the parse of text as seen by relation building, with
// the language's preprocessing applied.
func (e *engine) Sentences(ctx context.Context, lang, text string) (*ud.Document, error) {
	lang, err := e.allow.Validate(lang)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return &ud.Document{Text: text}, nil
	}

	doc, err := e.parser.Parse(ctx, lang, text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s text: %w", lang, err)
	}

	sch := schema.Lookup(lang)
	out := &ud.Document{Text: doc.Text, Sentences: make([]ud.Sentence, len(doc.Sentences))}
	for i, s := range doc.Sentences {
		out.Sentences[i] = schema.Preprocess(sch, s)
	}
	return out, nil
}

func (e *engine) Annotate(text string) ([]relations.Span, error) {
	if e.annotator == nil {
		return nil, ErrNoPatterns
	}
	return e.annotator.Annotate(text)
}

func (e *engine) Languages() []string {
	return e.allow.Codes()
}

// Close shuts down the engine.
func (e *engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}
