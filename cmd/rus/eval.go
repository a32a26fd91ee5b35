package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/gorus"
	"github.com/brunobiangulo/gorus/eval"
)

var (
	evalDataset     string
	evalOutput      string
	evalConcurrency int
	evalLiteral     bool
	evalMinExact    float64
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score relation trees against a gold dataset",
	Long: `Build the relation tree of every test in a YAML dataset and compare it
with the expected tree. Prints a summary; --output writes the full JSON
report. With --min-exact the command fails below that exact match rate.

Examples:
  rus eval --dataset eval/testdata/groceries_en.yaml
  rus eval --dataset gold.yaml --output report.json --min-exact 0.9`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalDataset, "dataset", "", "Dataset file (YAML)")
	evalCmd.Flags().StringVar(&evalOutput, "output", "", "Path to write the JSON report")
	evalCmd.Flags().IntVar(&evalConcurrency, "concurrency", runtime.NumCPU(), "Tests run in parallel")
	evalCmd.Flags().BoolVar(&evalLiteral, "literal", false, "Keep repeated mentions of the same entity apart")
	evalCmd.Flags().Float64Var(&evalMinExact, "min-exact", 0, "Fail when the exact match rate is lower")
	evalCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	ds, err := eval.LoadDataset(evalDataset)
	if err != nil {
		return err
	}

	engine, err := newEngine("")
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []gorus.Option
	if evalLiteral {
		opts = append(opts, gorus.WithLiteralEquality())
	}

	ev := eval.NewEvaluator(engine)
	ev.SetConcurrency(evalConcurrency)
	report, err := ev.Run(cmd.Context(), ds, opts...)
	if err != nil {
		return err
	}

	if evalOutput != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		if err := os.WriteFile(evalOutput, data, 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	report.WriteSummary(cmd.OutOrStdout())
	if report.Metrics.AvgExactMatch < evalMinExact {
		return fmt.Errorf("exact match %.3f below %.3f", report.Metrics.AvgExactMatch, evalMinExact)
	}
	return nil
}
