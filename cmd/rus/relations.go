package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/gorus"
	"github.com/brunobiangulo/gorus/relations"
)

var (
	relLang     string
	relText     string
	relEntities []string
	relPatterns string
	relLiteral  bool
	relStrict   bool
	relFormat   string
)

var relationsCmd = &cobra.Command{
	Use:   "relations",
	Short: "Build the relation tree of a text",
	Long: `Build the relation tree of the entity mentions in a text.

Entities are given as start:end:label with code point offsets. Without
--entity the configured (or --patterns) entity patterns find them.

Examples:
  rus relations --lang en --text "I want apples but no pears" --entity 7:13:FRUIT --entity 21:26:FRUIT
  rus relations --lang de --text "Äpfel und Birnen" --patterns groceries.yaml --format tree`,
	Args: cobra.NoArgs,
	RunE: runRelations,
}

func init() {
	relationsCmd.Flags().StringVar(&relLang, "lang", "en", "Language code")
	relationsCmd.Flags().StringVar(&relText, "text", "", "Text to analyze")
	relationsCmd.Flags().StringArrayVar(&relEntities, "entity", nil, "Entity mention as start:end:label (repeatable)")
	relationsCmd.Flags().StringVar(&relPatterns, "patterns", "", "Entity pattern file (YAML)")
	relationsCmd.Flags().BoolVar(&relLiteral, "literal", false, "Keep repeated mentions of the same entity apart")
	relationsCmd.Flags().BoolVar(&relStrict, "strict", false, "Fail on clusters that cannot be attached")
	relationsCmd.Flags().StringVar(&relFormat, "format", "json", "Output format (json, tree)")
	rootCmd.AddCommand(relationsCmd)
}

func runRelations(cmd *cobra.Command, _ []string) error {
	spans, err := parseEntities(relEntities)
	if err != nil {
		return err
	}

	engine, err := newEngine(relPatterns)
	if err != nil {
		return err
	}
	defer engine.Close()

	if len(spans) == 0 {
		found, err := engine.Annotate(relText)
		switch {
		case errors.Is(err, gorus.ErrNoPatterns):
		case err != nil:
			return err
		default:
			spans = found
		}
	}

	var opts []gorus.Option
	if relLiteral {
		opts = append(opts, gorus.WithLiteralEquality())
	}
	if relStrict {
		opts = append(opts, gorus.WithStrictOrphans())
	}

	tree, err := engine.Relations(cmd.Context(), relLang, relText, spans, opts...)
	if err != nil {
		return err
	}
	return printTree(cmd.OutOrStdout(), tree, relFormat)
}

func parseEntities(values []string) ([]relations.Span, error) {
	spans := make([]relations.Span, 0, len(values))
	for _, v := range values {
		s, err := parseEntity(v)
		if err != nil {
			return nil, err
		}
		spans = append(spans, s)
	}
	return spans, nil
}

// parseEntity reads start:end:label. The label may contain colons.
func parseEntity(v string) (relations.Span, error) {
	parts := strings.SplitN(v, ":", 3)
	if len(parts) != 3 {
		return relations.Span{}, fmt.Errorf("invalid entity %q: want start:end:label", v)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return relations.Span{}, fmt.Errorf("invalid entity %q: bad start: %w", v, err)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return relations.Span{}, fmt.Errorf("invalid entity %q: bad end: %w", v, err)
	}
	return relations.Span{Start: start, End: end, Label: parts[2]}, nil
}
