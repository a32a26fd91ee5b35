// Package nlp connects relation building to a linguistic engine: a service
// that splits text into sentences and words and parses them into
// Universal Dependencies trees.
package nlp

import (
	"context"
	"errors"
	"fmt"

	"github.com/brunobiangulo/gorus/ud"
)

var (
	// ErrEngineUnavailable is returned when the linguistic engine cannot
	// be reached or has no parse for the input.
	ErrEngineUnavailable = errors.New("gorus: linguistic engine unavailable")

	// ErrParsingFailed is returned when the engine answered with output
	// that is not a usable parse.
	ErrParsingFailed = errors.New("gorus: parsing failed")
)

// Engine parses text of one language into a dependency document.
// Implementations must be safe for concurrent use. The returned document
// is shared and must not be modified.
type Engine interface {
	Parse(ctx context.Context, lang, text string) (*ud.Document, error)

	// Name identifies the engine and its models in cache keys.
	Name() string
}

// Config configures a linguistic engine.
type Config struct {
	Provider string `json:"provider" yaml:"provider"` // udpipe, recorded
	BaseURL  string `json:"base_url" yaml:"base_url"`

	// Models maps language codes to engine model names. Languages
	// without an entry use the engine's default model for the language.
	Models map[string]string `json:"models" yaml:"models"`

	// Dir holds CoNLL-U recordings for the recorded provider.
	Dir string `json:"dir" yaml:"dir"`

	// TimeoutSeconds bounds a single engine request. Zero means 60.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
}

// New creates an engine from configuration.
func New(cfg Config) (Engine, error) {
	switch cfg.Provider {
	case "udpipe":
		return NewUDPipe(cfg), nil
	case "recorded":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("recorded nlp provider needs a directory")
		}
		return NewRecorded(cfg.Dir), nil
	case "":
		return nil, fmt.Errorf("nlp provider not specified")
	default:
		return nil, fmt.Errorf("unknown nlp provider: %s", cfg.Provider)
	}
}
