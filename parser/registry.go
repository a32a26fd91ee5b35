package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

type Registry struct {
	parsers map[string]Parser
}

func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range []Parser{&TextParser{}, &PDFParser{}, &XLSXParser{}, &DOCXParser{}, &PPTXParser{}} {
		for _, f := range p.SupportedFormats() {
			r.parsers[f] = p
		}
	}
	return r
}

func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: no parser for format: %s", ErrUnsupportedFormat, format)
	}
	return p, nil
}

func (r *Registry) Register(format string, p Parser) {
	r.parsers[format] = p
}

// Formats lists the registered formats.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ParseFile picks the parser by file extension.
func (r *Registry) ParseFile(ctx context.Context, path string) (*ParseResult, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	p, err := r.Get(format)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, path)
}
