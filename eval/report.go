package eval

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/brunobiangulo/gorus/relations"
)

// WriteSummary prints the aggregate scores and the outline of every test
// that did not pass.
func (r *Report) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "dataset: %s\n", r.Dataset)
	fmt.Fprintf(w, "passed:  %d/%d (errors: %d)\n", r.Passed, r.TotalTests, r.Errors)
	writeMetrics(w, "", r.Metrics)

	cats := make([]string, 0, len(r.CategoryMetrics))
	for c := range r.CategoryMetrics {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(w, "\n[%s]\n", c)
		writeMetrics(w, "  ", r.CategoryMetrics[c])
	}

	for i, res := range r.Results {
		if res.Passed {
			continue
		}
		fmt.Fprintf(w, "\n#%d %q\n", i+1, res.Text)
		if res.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", res.Error)
			continue
		}
		fmt.Fprintf(w, "  expected:\n%s", indent(relations.Sprint(res.Expected), "    "))
		fmt.Fprintf(w, "  got:\n%s", indent(relations.Sprint(res.Got), "    "))
	}
}

func writeMetrics(w io.Writer, prefix string, m AggregateMetrics) {
	fmt.Fprintf(w, "%sexact match:         %.3f\n", prefix, m.AvgExactMatch)
	fmt.Fprintf(w, "%spolarity:            %.3f\n", prefix, m.AvgPolarity)
	fmt.Fprintf(w, "%sattachment:          %.3f\n", prefix, m.AvgAttachment)
	fmt.Fprintf(w, "%sexclusion precision: %.3f\n", prefix, m.AvgExclusionPrecision)
	fmt.Fprintf(w, "%sexclusion recall:    %.3f\n", prefix, m.AvgExclusionRecall)
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, l := range lines {
		if l != "" {
			sb.WriteString(prefix + l)
		}
	}
	return sb.String()
}
