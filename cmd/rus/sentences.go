package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/gorus/nlp"
	"github.com/brunobiangulo/gorus/ud"
)

var (
	sentLang   string
	sentText   string
	sentFormat string
	sentRecord string
)

var sentencesCmd = &cobra.Command{
	Use:   "sentences",
	Short: "Show the dependency parse of a text",
	Long: `Show the dependency parse of a text as relation building sees it.

With --record the parse is also stored in a directory usable by the
"recorded" nlp provider.

Examples:
  rus sentences --lang en --text "Get apples but no pears"
  rus sentences --lang de --text "Ich möchte keine Äpfel" --format conllu
  rus sentences --lang en --text "Get apples" --record testdata/parses`,
	Args: cobra.NoArgs,
	RunE: runSentences,
}

func init() {
	sentencesCmd.Flags().StringVar(&sentLang, "lang", "en", "Language code")
	sentencesCmd.Flags().StringVar(&sentText, "text", "", "Text to parse")
	sentencesCmd.Flags().StringVar(&sentFormat, "format", "tree", "Output format (tree, conllu)")
	sentencesCmd.Flags().StringVar(&sentRecord, "record", "", "Directory to record the parse in")
	rootCmd.AddCommand(sentencesCmd)
}

func runSentences(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine("")
	if err != nil {
		return err
	}
	defer engine.Close()

	doc, err := engine.Sentences(cmd.Context(), sentLang, sentText)
	if err != nil {
		return err
	}

	if sentRecord != "" {
		if err := nlp.Record(sentRecord, sentLang, sentText, doc); err != nil {
			return err
		}
	}
	return printDocument(cmd.OutOrStdout(), doc, sentFormat)
}

func printDocument(w io.Writer, doc *ud.Document, format string) error {
	switch format {
	case "tree":
		for i, s := range doc.Sentences {
			if i > 0 {
				fmt.Fprintln(w)
			}
			ud.RenderTree(w, s)
		}
		return nil
	case "conllu":
		return ud.WriteCoNLLU(w, doc)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
