package gorus

import (
	"errors"

	"github.com/brunobiangulo/gorus/nlp"
	"github.com/brunobiangulo/gorus/parser"
	"github.com/brunobiangulo/gorus/relations"
	"github.com/brunobiangulo/gorus/schema"
)

var (
	// ErrInvalidLanguage is returned for a missing, malformed or
	// unsupported language code.
	ErrInvalidLanguage = schema.ErrInvalidLanguage

	// ErrInvalidEntity is returned for entity spans outside the text,
	// empty spans and spans without label.
	ErrInvalidEntity = relations.ErrInvalidEntity

	// ErrConstructionViolation is returned when a relation tree cannot be
	// built consistently.
	ErrConstructionViolation = relations.ErrConstructionViolation

	// ErrEngineUnavailable is returned when the linguistic engine cannot
	// be reached.
	ErrEngineUnavailable = nlp.ErrEngineUnavailable

	// ErrParsingFailed is returned when the linguistic engine's output is
	// unusable.
	ErrParsingFailed = nlp.ErrParsingFailed

	// ErrUnsupportedFormat is returned for unrecognized file formats.
	ErrUnsupportedFormat = parser.ErrUnsupportedFormat

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("gorus: invalid configuration")

	// ErrNoPatterns is returned by Annotate when no pattern file is
	// configured.
	ErrNoPatterns = errors.New("gorus: no entity patterns configured")
)
