package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/gorus"
	"github.com/brunobiangulo/gorus/chunker"
	"github.com/brunobiangulo/gorus/parser"
	"github.com/brunobiangulo/gorus/relations"
)

var (
	batchLang        string
	batchPatterns    string
	batchInput       string
	batchColumn      string
	batchConcurrency int
	batchMaxWords    int
	batchLiteral     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Build relation trees for every paragraph or row of a file",
	Long: `Build relation trees for every paragraph (txt, md, docx, pptx), page section (pdf)
or row (xlsx, docx tables) of a file. Long paragraphs are cut at sentence boundaries
into texts of at most --max-words words. Entities are found with the
entity patterns. Output is one JSON object per line, in input order.

Examples:
  rus batch --lang en --patterns groceries.yaml --input requests.txt
  rus batch --lang de --patterns groceries.yaml --input requests.xlsx --column Anfrage`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchLang, "lang", "en", "Language code")
	batchCmd.Flags().StringVar(&batchPatterns, "patterns", "", "Entity pattern file (YAML)")
	batchCmd.Flags().StringVar(&batchInput, "input", "", "Input file (txt, md, pdf, xlsx, docx, pptx)")
	batchCmd.Flags().StringVar(&batchColumn, "column", "", "Spreadsheet column holding the text (default: whole row)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", runtime.NumCPU(), "Texts processed in parallel")
	batchCmd.Flags().IntVar(&batchMaxWords, "max-words", 200, "Maximum words per text sent to the linguistic engine")
	batchCmd.Flags().BoolVar(&batchLiteral, "literal", false, "Keep repeated mentions of the same entity apart")
	batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

type batchResult struct {
	Index    int              `json:"index"`
	Page     int              `json:"page,omitempty"`
	Row      int              `json:"row,omitempty"`
	Text     string           `json:"text"`
	Entities []relations.Span `json:"entities"`
	Tree     relations.Node   `json:"tree,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	reg := parser.NewRegistry()
	if batchColumn != "" {
		x := &parser.XLSXParser{Column: batchColumn}
		for _, f := range x.SupportedFormats() {
			reg.Register(f, x)
		}
	}
	parsed, err := reg.ParseFile(ctx, batchInput)
	if err != nil {
		return fmt.Errorf("reading %s: %w", batchInput, err)
	}

	engine, err := newEngine(batchPatterns)
	if err != nil {
		return err
	}
	defer engine.Close()
	if _, err := engine.Annotate(""); errors.Is(err, gorus.ErrNoPatterns) {
		return fmt.Errorf("batch needs entity patterns (--patterns or config): %w", err)
	}

	var opts []gorus.Option
	if batchLiteral {
		opts = append(opts, gorus.WithLiteralEquality())
	}

	chunks := chunker.New(chunker.Config{MaxWords: batchMaxWords}).Chunk(parsed.Sections)
	results := make([]batchResult, len(chunks))
	for i, c := range chunks {
		results[i] = batchResult{Index: i + 1, Page: c.PageNumber, Row: c.Row, Text: c.Text}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(batchConcurrency, 1))
	for i := range results {
		r := &results[i]
		g.Go(func() error {
			spans, err := engine.Annotate(r.Text)
			if err != nil {
				return err
			}
			r.Entities = spans
			tree, err := engine.Relations(gctx, batchLang, r.Text, spans, opts...)
			switch {
			case errors.Is(err, gorus.ErrInvalidLanguage):
				return err
			case err != nil:
				r.Error = err.Error()
			default:
				r.Tree = tree
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
