package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// ErrInvalidLanguage is returned for an empty or unsupported language code.
var ErrInvalidLanguage = errors.New("gorus: invalid language")

var lexicons = map[string]Lexicon{
	"da": {
		Negators:  []string{"ikke", "ingen", "intet", "aldrig", "uden", "hverken"},
		Contrasts: []string{"undtagen", "bortset"},
	},
	"de": {
		Negators:  []string{"nicht", "nichts", "kein*", "nie", "niemals", "ohne", "weder"},
		Contrasts: []string{"statt", "anstatt", "außer", "ausser", "ausgenommen", "ausgeschlossen"},
	},
	"en": {
		Negators:  []string{"not", "n't", "no", "never", "none", "nothing", "neither", "nor", "without"},
		Contrasts: []string{"except", "excluding", "instead", "rather", "besides", "unlike"},
	},
	"es": {
		Negators:  []string{"no", "nunca", "jamás", "ningún", "ninguna", "ninguno", "nada", "sin", "ni"},
		Contrasts: []string{"excepto", "salvo"},
	},
	"fr": {
		Negators:  []string{"ne", "n'", "pas", "jamais", "aucun*", "sans", "ni", "rien"},
		Contrasts: []string{"sauf", "excepté", "hormis"},
	},
	"it": {
		Negators:  []string{"non", "mai", "nessun*", "niente", "senza", "né"},
		Contrasts: []string{"tranne", "eccetto", "salvo"},
	},
	"ru": {
		Negators:  []string{"не", "ни", "нет", "без", "никогда", "никак*"},
		Contrasts: []string{"кроме", "вместо"},
	},
}

// registry maps language codes to their schemas. Languages not listed
// fall back to Default.
var registry = func() map[string]Schema {
	m := make(map[string]Schema, len(lexicons))
	for code, lex := range lexicons {
		m[code] = NewDependency(code, lex)
	}
	return m
}()

// aliases maps legacy or country style codes onto language codes.
var aliases = map[string]string{
	"dk": "da",
}

// Lookup returns the schema for a normalized language code, or Default.
func Lookup(code string) Schema {
	if s, ok := registry[code]; ok {
		return s
	}
	return Default{}
}

// Builtin returns the codes of all languages with a registered schema.
func Builtin() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Normalize canonicalizes a language code: "DE" and "de-DE" become "de",
// "dk" becomes "da".
func Normalize(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("%w: language is required", ErrInvalidLanguage)
	}
	if alias, ok := aliases[code]; ok {
		code = alias
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: unsupported language: %s", ErrInvalidLanguage, code)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// AllowList is the explicit set of supported languages. Having a schema
// does not make a language supported and vice versa: extra languages are
// served by the default schema.
type AllowList struct {
	codes map[string]bool
}

// NewAllowList returns an allow-list of the builtin languages plus extra.
func NewAllowList(extra ...string) (*AllowList, error) {
	a := &AllowList{codes: make(map[string]bool)}
	for _, code := range Builtin() {
		a.codes[code] = true
	}
	for _, code := range extra {
		norm, err := Normalize(code)
		if err != nil {
			return nil, err
		}
		a.codes[norm] = true
	}
	return a, nil
}

// Validate normalizes code and checks it against the allow-list.
func (a *AllowList) Validate(code string) (string, error) {
	norm, err := Normalize(code)
	if err != nil {
		return "", err
	}
	if !a.codes[norm] {
		return "", fmt.Errorf("%w: unsupported language: %s", ErrInvalidLanguage, norm)
	}
	return norm, nil
}

// Codes returns the supported codes in sorted order.
func (a *AllowList) Codes() []string {
	codes := make([]string, 0, len(a.codes))
	for code := range a.codes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}
