package nlp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/brunobiangulo/gorus/ud"
)

// Cache persists parses as CoNLL-U between runs.
type Cache interface {
	Get(ctx context.Context, key string) (conllu string, ok bool, err error)
	Put(ctx context.Context, key, engine, lang, conllu string) error
}

// loadTimeout bounds one shared parse.
const loadTimeout = 2 * time.Minute

// Cached memoizes an engine. Parses are kept in process and, when a Cache
// is given, persisted. Concurrent requests for the same text share one
// engine call.
type Cached struct {
	engine Engine
	cache  Cache

	mu   sync.Mutex
	docs map[string]*ud.Document
	max  int

	group singleflight.Group
}

// NewCached wraps e. cache may be nil. maxEntries bounds the in-process
// map; zero means 1024.
func NewCached(e Engine, cache Cache, maxEntries int) *Cached {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &Cached{
		engine: e,
		cache:  cache,
		docs:   make(map[string]*ud.Document),
		max:    maxEntries,
	}
}

// CacheKey identifies the parse of text in lang by engine.
func CacheKey(engine, lang, text string) string {
	sum := sha256.Sum256([]byte(text))
	return engine + ":" + lang + ":" + hex.EncodeToString(sum[:])
}

func (c *Cached) Name() string { return c.engine.Name() }

func (c *Cached) Parse(ctx context.Context, lang, text string) (*ud.Document, error) {
	key := CacheKey(c.engine.Name(), lang, text)

	c.mu.Lock()
	doc, ok := c.docs[key]
	c.mu.Unlock()
	if ok {
		return doc, nil
	}

	// The shared load outlives a caller that gives up; each caller waits
	// on its own context.
	ch := c.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return c.load(lctx, key, lang, text)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	doc = res.Val.(*ud.Document)

	c.mu.Lock()
	if len(c.docs) >= c.max {
		clear(c.docs)
	}
	c.docs[key] = doc
	c.mu.Unlock()
	return doc, nil
}

// load consults the persistent cache before asking the engine. Cache
// failures are logged and never fail a parse.
func (c *Cached) load(ctx context.Context, key, lang, text string) (*ud.Document, error) {
	if c.cache != nil {
		conllu, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			slog.Warn("nlp: parse cache read failed", "error", err)
		case ok:
			doc, err := ud.ParseCoNLLU(conllu)
			if err == nil {
				doc.Text = text
				slog.Debug("nlp: parse cache hit", "lang", lang)
				return doc, nil
			}
			slog.Warn("nlp: discarding unreadable cached parse", "error", err)
		}
	}

	doc, err := c.engine.Parse(ctx, lang, text)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, c.engine.Name(), lang, ud.FormatCoNLLU(doc)); err != nil {
			slog.Warn("nlp: parse cache write failed", "error", fmt.Errorf("storing parse: %w", err))
		}
	}
	return doc, nil
}
