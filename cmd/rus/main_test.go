package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brunobiangulo/gorus/nlp"
	"github.com/brunobiangulo/gorus/relations"
	"github.com/brunobiangulo/gorus/ud"
)

const applesAndPears = "Get apples and pears."

const applesAndPearsCoNLLU = "# text = Get apples and pears.\n" +
	"1\tGet\tget\tVERB\t_\t_\t0\troot\t_\tTokenRange=0:3\n" +
	"2\tapples\tapple\tNOUN\t_\tNumber=Plur\t1\tobj\t_\tTokenRange=4:10\n" +
	"3\tand\tand\tCCONJ\t_\t_\t4\tcc\t_\tTokenRange=11:14\n" +
	"4\tpears\tpear\tNOUN\t_\tNumber=Plur\t2\tconj\t_\tTokenRange=15:20\n" +
	"5\t.\t.\tPUNCT\t_\t_\t1\tpunct\t_\tTokenRange=20:21\n\n"

// useRecordedParses points the CLI at a directory of recorded parses.
func useRecordedParses(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	doc, err := ud.ParseCoNLLU(applesAndPearsCoNLLU)
	if err != nil {
		t.Fatalf("ParseCoNLLU: %v", err)
	}
	if err := nlp.Record(dir, "en", applesAndPears, doc); err != nil {
		t.Fatalf("Record: %v", err)
	}
	t.Setenv("GORUS_NLP_PROVIDER", "recorded")
	t.Setenv("GORUS_NLP_DIR", dir)
	t.Setenv("GORUS_DISABLE_CACHE", "true")
	t.Setenv("GORUS_PATTERNS", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseEntity(t *testing.T) {
	tests := []struct {
		in      string
		want    relations.Span
		wantErr bool
	}{
		{"4:10:FRUIT", relations.Span{Start: 4, End: 10, Label: "FRUIT"}, false},
		{"0:3:schema:org/Thing", relations.Span{Start: 0, End: 3, Label: "schema:org/Thing"}, false},
		{"4:10", relations.Span{}, true},
		{"a:10:FRUIT", relations.Span{}, true},
		{"4:b:FRUIT", relations.Span{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseEntity(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPrintTree(t *testing.T) {
	tree := relations.NewSet(relations.NewEntityNode(relations.Entity{Start: 4, End: 10, Label: "FRUIT", Text: "apples"}))

	var buf bytes.Buffer
	if err := printTree(&buf, tree, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	back, err := relations.DecodeNode(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	if !relations.Equal(tree, back, relations.Literal) {
		t.Errorf("round trip differs: %s", buf.String())
	}

	buf.Reset()
	if err := printTree(&buf, tree, "tree"); err != nil {
		t.Fatalf("tree: %v", err)
	}
	if buf.String() != relations.Sprint(tree) {
		t.Errorf("tree output = %q", buf.String())
	}

	if err := printTree(&buf, tree, "yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func TestRelationsCommand(t *testing.T) {
	useRecordedParses(t)

	out, err := run(t, "relations", "--lang", "en", "--text", applesAndPears,
		"--entity", "4:10:FRUIT", "--entity", "15:20:FRUIT", "--format", "tree")
	if err != nil {
		t.Fatalf("relations: %v", err)
	}
	if !strings.Contains(out, "text:apples") || !strings.Contains(out, "text:pears") {
		t.Errorf("output = %q", out)
	}
}

func TestBatchCommand(t *testing.T) {
	useRecordedParses(t)

	input := filepath.Join(t.TempDir(), "requests.txt")
	if err := os.WriteFile(input, []byte(applesAndPears+"\n\n"+applesAndPears+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	patterns := filepath.Join("..", "..", "annotate", "testdata", "groceries.yaml")

	out, err := run(t, "batch", "--lang", "en", "--patterns", patterns, "--input", input, "--concurrency", "2")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	for i, line := range lines {
		var r struct {
			Index    int              `json:"index"`
			Entities []relations.Span `json:"entities"`
			Tree     json.RawMessage  `json:"tree"`
			Error    string           `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if r.Index != i+1 || len(r.Entities) != 2 || r.Error != "" || len(r.Tree) == 0 {
			t.Errorf("line %d = %s", i, line)
		}
	}
}

func TestLanguagesCommand(t *testing.T) {
	t.Setenv("GORUS_LANGUAGES", "nl")
	out, err := run(t, "languages")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	codes := strings.Fields(out)
	if len(codes) != 8 || !strings.Contains(out, "nl\n") || !strings.Contains(out, "en\n") {
		t.Errorf("codes = %v", codes)
	}
}

func TestLoggingFlags(t *testing.T) {
	t.Cleanup(func() {
		logLevel, logFormat = "warn", "text"
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"languages", "--log-level", "debug", "--log-format", "json"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("languages: %v", err)
	}
	if !strings.Contains(errOut.String(), `"level":"DEBUG"`) {
		t.Errorf("stderr = %q, want a JSON debug record", errOut.String())
	}

	if _, err := run(t, "languages", "--log-level", "loud"); err == nil {
		t.Error("expected error for unknown log level")
	}
}

func TestEvalCommand(t *testing.T) {
	useRecordedParses(t)

	dir := t.TempDir()
	dataset := filepath.Join(dir, "gold.yaml")
	report := filepath.Join(dir, "report.json")
	gold := `name: coordination
language: en
tests:
  - text: Get apples and pears.
    category: union
    entities:
      - {start: 4, end: 10, label: FRUIT}
      - {start: 15, end: 20, label: FRUIT}
    expected:
      type: SET
      relations:
        - {type: ENTITY, entity: {start: 4, end: 10, label: FRUIT, text: apples}}
        - {type: ENTITY, entity: {start: 15, end: 20, label: FRUIT, text: pears}}
`
	if err := os.WriteFile(dataset, []byte(gold), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "eval", "--dataset", dataset, "--output", report, "--min-exact", "1")
	if err != nil {
		t.Fatalf("eval: %v\n%s", err, out)
	}
	if !strings.Contains(out, "passed:  1/1") {
		t.Errorf("summary = %q", out)
	}
	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var r struct {
		Passed int `json:"passed"`
	}
	if err := json.Unmarshal(data, &r); err != nil || r.Passed != 1 {
		t.Errorf("report = %s (%v)", data, err)
	}
}
