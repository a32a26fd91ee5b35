// Package annotate finds entity mentions in text with regular expression
// patterns. Patterns use .NET style syntax, so lookbehind and lookahead
// are available for context rules ("apples" but not "apple juice").
package annotate

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/gorus/relations"
)

// ErrInvalidPattern is returned for patterns that do not compile or lack a
// label.
var ErrInvalidPattern = errors.New("gorus: invalid pattern")

// matchTimeout bounds a single pattern search against catastrophic
// backtracking.
const matchTimeout = 2 * time.Second

// Pattern labels every match of Expr.
type Pattern struct {
	Label      string `json:"label" yaml:"label"`
	Expr       string `json:"expr" yaml:"expr"`
	IgnoreCase bool   `json:"ignore_case,omitempty" yaml:"ignore_case,omitempty"`
}

// Annotator applies compiled patterns. It is safe for concurrent use.
type Annotator struct {
	patterns []Pattern
	compiled []*regexp2.Regexp
}

// New compiles patterns.
func New(patterns []Pattern) (*Annotator, error) {
	a := &Annotator{patterns: patterns}
	for i, p := range patterns {
		if strings.TrimSpace(p.Label) == "" {
			return nil, fmt.Errorf("%w: pattern %d has no label", ErrInvalidPattern, i+1)
		}
		opts := regexp2.None
		if p.IgnoreCase {
			opts |= regexp2.IgnoreCase
		}
		re, err := regexp2.Compile(p.Expr, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, p.Label, err)
		}
		re.MatchTimeout = matchTimeout
		a.compiled = append(a.compiled, re)
	}
	return a, nil
}

// Patterns returns the patterns the annotator was built from.
func (a *Annotator) Patterns() []Pattern {
	return append([]Pattern(nil), a.patterns...)
}

// Annotate returns the spans of all non-empty matches, in code point
// offsets, ordered by start and then by pattern order. Matches of
// different patterns may overlap; the relation builder assigns a word to
// the first span containing it.
func (a *Annotator) Annotate(text string) ([]relations.Span, error) {
	type hit struct {
		span    relations.Span
		pattern int
	}
	var hits []hit
	for i, re := range a.compiled {
		m, err := re.FindStringMatch(text)
		for ; m != nil && err == nil; m, err = re.FindNextMatch(m) {
			if m.Length == 0 {
				continue
			}
			hits = append(hits, hit{
				span:    relations.Span{Start: m.Index, End: m.Index + m.Length, Label: a.patterns[i].Label},
				pattern: i,
			})
		}
		if err != nil {
			return nil, fmt.Errorf("matching %s: %w", a.patterns[i].Label, err)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].span.Start != hits[j].span.Start {
			return hits[i].span.Start < hits[j].span.Start
		}
		return hits[i].pattern < hits[j].pattern
	})

	spans := make([]relations.Span, len(hits))
	for i, h := range hits {
		spans[i] = h.span
	}
	return spans, nil
}

// patternFile is the YAML layout of a pattern file.
type patternFile struct {
	Patterns []Pattern `yaml:"patterns"`
}

// ParsePatterns reads patterns from YAML, either a top-level list or a
// document with a "patterns" key.
func ParsePatterns(data []byte) ([]Pattern, error) {
	var list []Pattern
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var f patternFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return f.Patterns, nil
}

// LoadPatterns reads a YAML pattern file.
func LoadPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading patterns: %w", err)
	}
	return ParsePatterns(data)
}

// Load reads a pattern file and compiles it.
func Load(path string) (*Annotator, error) {
	patterns, err := LoadPatterns(path)
	if err != nil {
		return nil, err
	}
	return New(patterns)
}
