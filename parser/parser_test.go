package parser

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ---------------------------------------------------------------------------
// Registry tests
// ---------------------------------------------------------------------------

func TestRegistryBuiltInParsers(t *testing.T) {
	reg := NewRegistry()

	formats := []struct {
		format     string
		wantParser string
	}{
		{"txt", "*parser.TextParser"},
		{"md", "*parser.TextParser"},
		{"pdf", "*parser.PDFParser"},
		{"xlsx", "*parser.XLSXParser"},
		{"xlsm", "*parser.XLSXParser"},
		{"docx", "*parser.DOCXParser"},
		{"pptx", "*parser.PPTXParser"},
	}

	for _, tt := range formats {
		t.Run(tt.format, func(t *testing.T) {
			p, err := reg.Get(tt.format)
			if err != nil {
				t.Fatalf("Get(%q) returned error: %v", tt.format, err)
			}
			supported := p.SupportedFormats()
			found := false
			for _, f := range supported {
				if f == tt.format {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("parser for %q does not list %q in SupportedFormats(): %v",
					tt.format, tt.format, supported)
			}
		})
	}
}

func TestRegistryUnknown(t *testing.T) {
	reg := NewRegistry()

	for _, format := range []string{"odt", "csv", "html", ""} {
		t.Run("format_"+format, func(t *testing.T) {
			p, err := reg.Get(format)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("Get(%q) error = %v, want ErrUnsupportedFormat", format, err)
			}
			if p != nil {
				t.Errorf("Get(%q) expected nil parser for unknown format", format)
			}
		})
	}

	_, err := reg.ParseFile(context.Background(), "notes.odt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFile error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRegistryCustomParser(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Get("rst"); err == nil {
		t.Fatal("expected error for unregistered format")
	}
	reg.Register("rst", &TextParser{})
	if _, err := reg.Get("rst"); err != nil {
		t.Fatalf("Get(\"rst\") after Register returned error: %v", err)
	}
	want := []string{"docx", "md", "pdf", "pptx", "rst", "txt", "xlsm", "xlsx"}
	got := reg.Formats()
	if len(got) != len(want) {
		t.Fatalf("Formats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Formats()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// ---------------------------------------------------------------------------
// Text and markdown
// ---------------------------------------------------------------------------

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestTextParser(t *testing.T) {
	path := writeFile(t, "list.TXT", "Get apples for the\nfruit cake.\n\n\nNo straw-\nberries, please.\r\n")

	res, err := NewRegistry().ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	got := res.Texts()
	want := []string{"Get apples for the fruit cake.", "No strawberries, please."}
	if len(got) != len(want) {
		t.Fatalf("Texts() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Texts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if res.Method != "native" {
		t.Errorf("Method = %q", res.Method)
	}
}

func TestMarkdownHeadings(t *testing.T) {
	path := writeFile(t, "list.md", "# Shopping\n\nGet apples.\n\n## Bakery\nGet cake.\nAnd cookies.\n\n#hashtag stays\n")

	res, err := (&TextParser{}).Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Sections) != 3 {
		t.Fatalf("got %d sections: %+v", len(res.Sections), res.Sections)
	}
	if s := res.Sections[0]; s.Heading != "Shopping" || s.Level != 1 || s.Content != "Get apples." {
		t.Errorf("section 0 = %+v", s)
	}
	if s := res.Sections[1]; s.Heading != "Bakery" || s.Level != 2 || s.Content != "Get cake. And cookies." {
		t.Errorf("section 1 = %+v", s)
	}
	if s := res.Sections[2]; s.Content != "#hashtag stays" {
		t.Errorf("section 2 = %+v", s)
	}
}

func TestTextParserMissingFile(t *testing.T) {
	if _, err := (&TextParser{}).Parse(context.Background(), filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEmptyText(t *testing.T) {
	res, err := (&TextParser{}).Parse(context.Background(), writeFile(t, "empty.txt", " \n\n  \n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Sections) != 0 || len(res.Texts()) != 0 {
		t.Errorf("expected no sections, got %+v", res.Sections)
	}
}

// ---------------------------------------------------------------------------
// PDF page splitting
// ---------------------------------------------------------------------------

func TestSplitPageIntoSections(t *testing.T) {
	text := `INTRODUCTION
Get apples for the
fruit cake.

1.1 Bakery
Chocolate for the cookies.

Kapitel 2
Keine Erdbeeren.`

	sections := splitPageIntoSections(text, 4)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(sections), sections)
	}

	want := []struct {
		heading, content string
		level            int
	}{
		{"INTRODUCTION", "Get apples for the fruit cake.", 1},
		{"1.1 Bakery", "Chocolate for the cookies.", 2},
		{"Kapitel 2", "Keine Erdbeeren.", 2},
	}
	for i, w := range want {
		s := sections[i]
		if s.Heading != w.heading || s.Content != w.content || s.Level != w.level || s.PageNumber != 4 {
			t.Errorf("section %d = %+v, want heading %q content %q level %d", i, s, w.heading, w.content, w.level)
		}
	}
}

func TestSplitPageIntoSectionsNoHeadings(t *testing.T) {
	sections := splitPageIntoSections("Just a paragraph.\nStill the same one.", 5)
	if len(sections) != 1 || sections[0].Content != "Just a paragraph. Still the same one." {
		t.Fatalf("sections = %+v", sections)
	}
	if sections[0].PageNumber != 5 || sections[0].Type != "paragraph" {
		t.Errorf("section = %+v", sections[0])
	}
}

func TestSplitPageIntoSectionsWhitespaceOnly(t *testing.T) {
	if sections := splitPageIntoSections("   \n\n   \n  ", 1); len(sections) != 0 {
		t.Errorf("expected 0 sections for whitespace-only text, got %d", len(sections))
	}
}

func TestIsLikelyHeading(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"all_caps_short", "INTRODUCTION", true},
		{"all_caps_too_short", "AB", false},
		{"numbered_1.1", "1.1 Scope", true},
		{"numbered_single_dot", "3. Overview", true},
		{"section_prefix", "Section 5 General", true},
		{"german_prefix", "Abschnitt 4", true},
		{"russian_prefix", "Глава 1", true},
		{"number_in_sentence", "3 apples and 2 pears.", false},
		{"decimal_amount", "2.5 kg of apples are enough", false},
		{"regular_sentence", "This is a regular sentence.", false},
		{"digits_only", "2024", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLikelyHeading(tt.line); got != tt.want {
				t.Errorf("isLikelyHeading(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestDetectHeadingLevel(t *testing.T) {
	tests := []struct {
		heading string
		want    int
	}{
		{"1. Introduction", 1},
		{"1.2 Scope", 2},
		{"1.2.3 Detailed", 3},
		{"INTRODUCTION", 1},
		{"Summary", 2},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			if got := detectHeadingLevel(tt.heading); got != tt.want {
				t.Errorf("detectHeadingLevel(%q) = %d, want %d", tt.heading, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Spreadsheets
// ---------------------------------------------------------------------------

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestXLSXRows(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"id", "order"},
		{1, "Get apples."},
		{},
		{3, "No cake."},
	})

	res, err := (&XLSXParser{}).Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Sections) != 3 {
		t.Fatalf("got %d sections: %+v", len(res.Sections), res.Sections)
	}
	if s := res.Sections[1]; s.Content != "1 Get apples." || s.Row != 2 || s.Type != "row" || s.Heading != "Sheet1" {
		t.Errorf("section 1 = %+v", s)
	}
	if s := res.Sections[2]; s.Row != 4 {
		t.Errorf("section 2 row = %d, want 4", s.Row)
	}
}

func TestXLSXColumn(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"id", "Order"},
		{1, "Get apples."},
		{2},
		{3, "No cake."},
	})

	res, err := (&XLSXParser{Column: "order"}).Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := res.Texts()
	if len(got) != 2 || got[0] != "Get apples." || got[1] != "No cake." {
		t.Errorf("Texts() = %q", got)
	}

	if _, err := (&XLSXParser{Column: "comment"}).Parse(context.Background(), path); err == nil {
		t.Error("expected error for missing column")
	}
}

// ---------------------------------------------------------------------------
// Office documents
// ---------------------------------------------------------------------------

func writeZip(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive: %v", err)
	}
	zw := zip.NewWriter(f)
	for member, content := range files {
		w, err := zw.Create(member)
		if err != nil {
			t.Fatalf("adding %s: %v", member, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing %s: %v", member, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing file: %v", err)
	}
	return path
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func TestDOCXParser(t *testing.T) {
	doc := `<w:document ` + wordNS + `><w:body>
<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Groceries</w:t></w:r></w:p>
<w:p><w:r><w:t>Get apples </w:t></w:r><w:r><w:t>and pears.</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>No strawberries.</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>chocolate</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>for the cookies</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
</w:body></w:document>`
	path := writeZip(t, "list.docx", map[string]string{"word/document.xml": doc})

	result, err := NewRegistry().ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	want := []Section{
		{Heading: "Groceries", Content: "Get apples and pears.", Level: 2, Type: "paragraph"},
		{Heading: "Groceries", Content: "No strawberries.", Level: 2, Type: "paragraph"},
		{Content: "chocolate for the cookies", Row: 1, Type: "row"},
	}
	if len(result.Sections) != len(want) {
		t.Fatalf("got %d sections: %+v", len(result.Sections), result.Sections)
	}
	for i, w := range want {
		got := result.Sections[i]
		if got.Heading != w.Heading || got.Content != w.Content || got.Level != w.Level || got.Row != w.Row || got.Type != w.Type {
			t.Errorf("section %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestDOCXMissingDocument(t *testing.T) {
	path := writeZip(t, "empty.docx", map[string]string{"word/styles.xml": "<styles/>"})
	if _, err := (&DOCXParser{}).Parse(context.Background(), path); err == nil {
		t.Error("expected error for archive without word/document.xml")
	}
}

func TestPPTXParser(t *testing.T) {
	slide := func(paras ...string) string {
		var body string
		for _, p := range paras {
			body += `<a:p><a:r><a:t>` + p + `</a:t></a:r></a:p>`
		}
		return `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
			`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
			`<p:cSld><p:spTree><p:sp><p:txBody>` + body + `</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	}
	path := writeZip(t, "deck.pptx", map[string]string{
		"ppt/slides/slide10.xml":           slide("No nuts."),
		"ppt/slides/slide2.xml":            slide("Get apples.", " "),
		"ppt/slides/slide1.xml":            slide("Shopping"),
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
	})

	result, err := NewRegistry().ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	want := []struct {
		page    int
		content string
	}{{1, "Shopping"}, {2, "Get apples."}, {10, "No nuts."}}
	if len(result.Sections) != len(want) {
		t.Fatalf("got %d sections: %+v", len(result.Sections), result.Sections)
	}
	for i, w := range want {
		got := result.Sections[i]
		if got.PageNumber != w.page || got.Content != w.content || got.Heading != fmt.Sprintf("Slide %d", w.page) {
			t.Errorf("section %d = %+v", i, got)
		}
	}
}

func TestExtractSlideNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"ppt/slides/slide1.xml", 1},
		{"ppt/slides/slide12.xml", 12},
		{"ppt/slides/_rels/slide1.xml.rels", 0},
		{"ppt/slideLayouts/slideLayout1.xml", 0},
		{"ppt/slides/slideX.xml", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractSlideNumber(tt.name); got != tt.want {
				t.Errorf("extractSlideNumber(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}
