// Package eval measures relation trees against gold datasets.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/gorus"
	"github.com/brunobiangulo/gorus/relations"
)

// Evaluator runs datasets against a gorus engine.
type Evaluator struct {
	engine      gorus.Engine
	concurrency int
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(engine gorus.Engine) *Evaluator {
	return &Evaluator{engine: engine, concurrency: runtime.NumCPU()}
}

// SetConcurrency limits how many tests run at once.
func (e *Evaluator) SetConcurrency(n int) {
	e.concurrency = max(n, 1)
}

// Report holds the results of an evaluation run.
type Report struct {
	Dataset         string                      `json:"dataset"`
	TotalTests      int                         `json:"total_tests"`
	Passed          int                         `json:"passed"`
	Failed          int                         `json:"failed"`
	Errors          int                         `json:"errors"`
	Metrics         AggregateMetrics            `json:"metrics"`
	CategoryMetrics map[string]AggregateMetrics `json:"category_metrics,omitempty"`
	Results         []TestResult                `json:"results"`
	RunTime         time.Duration               `json:"run_time"`
}

// AggregateMetrics holds averaged scores.
type AggregateMetrics struct {
	AvgExactMatch         float64 `json:"avg_exact_match"`
	AvgPolarity           float64 `json:"avg_polarity"`
	AvgAttachment         float64 `json:"avg_attachment"`
	AvgExclusionPrecision float64 `json:"avg_exclusion_precision"`
	AvgExclusionRecall    float64 `json:"avg_exclusion_recall"`
}

// TestResult holds the result of a single test case.
type TestResult struct {
	Text     string         `json:"text"`
	Language string         `json:"language"`
	Category string         `json:"category,omitempty"`
	Expected relations.Node `json:"expected"`
	Got      relations.Node `json:"got,omitempty"`
	Scores   Scores         `json:"scores"`
	Passed   bool           `json:"passed"`
	Error    string         `json:"error,omitempty"`

	ElapsedMs int64 `json:"elapsed_ms"`
}

// Run executes a dataset against the engine. Tests run concurrently;
// results keep dataset order. Engine errors fail the test, not the run.
func (e *Evaluator) Run(ctx context.Context, dataset Dataset, opts ...gorus.Option) (*Report, error) {
	start := time.Now()
	report := &Report{
		Dataset:         dataset.Name,
		TotalTests:      len(dataset.Tests),
		CategoryMetrics: make(map[string]AggregateMetrics),
		Results:         make([]TestResult, len(dataset.Tests)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.concurrency, 1))
	for i, test := range dataset.Tests {
		g.Go(func() error {
			report.Results[i] = e.runTest(gctx, test, opts...)
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catCounts := make(map[string]int)
	catSums := make(map[string]AggregateMetrics)
	scored := 0

	for i, result := range report.Results {
		status := "PASS"
		switch {
		case result.Error != "":
			status = "ERROR"
			report.Errors++
		case !result.Passed:
			status = "FAIL"
		}
		slog.Debug("eval: test complete",
			"progress", fmt.Sprintf("%d/%d", i+1, len(report.Results)),
			"status", status,
			"polarity", fmt.Sprintf("%.2f", result.Scores.Polarity),
			"elapsed_ms", result.ElapsedMs,
			"text", truncate(result.Text, 80))

		if result.Passed {
			report.Passed++
		} else {
			report.Failed++
		}

		// Errors have no tree to score.
		if result.Error != "" {
			continue
		}
		scored++
		report.Metrics.add(result.Scores)
		if result.Category != "" {
			catCounts[result.Category]++
			sum := catSums[result.Category]
			sum.add(result.Scores)
			catSums[result.Category] = sum
		}
	}

	report.Metrics.divide(scored)
	for cat, count := range catCounts {
		sum := catSums[cat]
		sum.divide(count)
		report.CategoryMetrics[cat] = sum
	}

	report.RunTime = time.Since(start)
	slog.Info("eval: run complete",
		"dataset", dataset.Name, "passed", report.Passed, "total", report.TotalTests,
		"errors", report.Errors, "run_time", report.RunTime.Round(time.Millisecond))
	return report, nil
}

func (e *Evaluator) runTest(ctx context.Context, test TestCase, opts ...gorus.Option) TestResult {
	testStart := time.Now()
	result := TestResult{
		Text:     test.Text,
		Language: test.Language,
		Category: test.Category,
		Expected: test.Expected,
	}

	got, err := e.engine.Relations(ctx, test.Language, test.Text, test.Entities, opts...)
	result.ElapsedMs = time.Since(testStart).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Got = got
	result.Scores = Score(got, test.Expected)
	result.Passed = result.Scores.ExactMatch == 1
	return result
}

func (m *AggregateMetrics) add(s Scores) {
	m.AvgExactMatch += s.ExactMatch
	m.AvgPolarity += s.Polarity
	m.AvgAttachment += s.Attachment
	m.AvgExclusionPrecision += s.ExclusionPrecision
	m.AvgExclusionRecall += s.ExclusionRecall
}

func (m *AggregateMetrics) divide(n int) {
	if n == 0 {
		return
	}
	d := float64(n)
	m.AvgExactMatch /= d
	m.AvgPolarity /= d
	m.AvgAttachment /= d
	m.AvgExclusionPrecision /= d
	m.AvgExclusionRecall /= d
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
