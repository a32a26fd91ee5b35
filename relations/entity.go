package relations

import (
	"fmt"
	"strings"
)

// Span is a caller supplied entity location: a half-open range of code
// point offsets into the text plus a label.
type Span struct {
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
	Label string `json:"label" yaml:"label"`
}

// Entity is a labeled mention in the text. Text is the literal substring
// [Start, End) of the source text.
type Entity struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

func (e Entity) String() string {
	return fmt.Sprintf("%s:%q", e.Label, e.Text)
}

// Equality selects how entities are compared.
type Equality int

const (
	// Semantic compares label and text only, so repeated mentions of the
	// same thing are equal.
	Semantic Equality = iota
	// Literal compares all fields including the position.
	Literal
)

func (m Equality) String() string {
	if m == Literal {
		return "literal"
	}
	return "semantic"
}

// ParseEquality maps "semantic" or "literal" to an Equality.
func ParseEquality(s string) (Equality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "semantic":
		return Semantic, nil
	case "literal":
		return Literal, nil
	default:
		return Semantic, fmt.Errorf("unknown equality mode: %s", s)
	}
}

// Equal compares two entities under the given mode.
func (e Entity) Equal(o Entity, mode Equality) bool {
	if mode == Literal {
		return e == o
	}
	return e.Label == o.Label && e.Text == o.Text
}

// NewEntities resolves spans against text. Offsets count code points, not
// bytes.
func NewEntities(text string, spans []Span) ([]Entity, error) {
	runes := []rune(text)
	entities := make([]Entity, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 || s.End > len(runes) || s.Start >= s.End {
			return nil, fmt.Errorf("%w: span %d:%d outside text of length %d", ErrInvalidEntity, s.Start, s.End, len(runes))
		}
		if strings.TrimSpace(s.Label) == "" {
			return nil, fmt.Errorf("%w: span %d:%d has no label", ErrInvalidEntity, s.Start, s.End)
		}
		entities = append(entities, Entity{
			Start: s.Start,
			End:   s.End,
			Label: s.Label,
			Text:  string(runes[s.Start:s.End]),
		})
	}
	return entities, nil
}
