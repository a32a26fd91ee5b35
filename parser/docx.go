package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DOCXParser reads Word documents. Every body paragraph becomes a section
// headed by the last heading-styled paragraph; every table row becomes a
// section of its own.
type DOCXParser struct{}

func (p *DOCXParser) SupportedFormats() []string { return []string{"docx"} }

func (p *DOCXParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer r.Close()

	data, err := readZipFile(&r.Reader, "word/document.xml")
	if err != nil {
		return nil, err
	}

	sections, err := parseDocxXML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing DOCX XML: %w", err)
	}
	return &ParseResult{Sections: sections, Method: "native"}, nil
}

// readZipFile returns the contents of one archive member.
func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	f, err := r.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%s not found in archive: %w", name, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// DOCX XML structures (simplified)
type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docxBody `xml:"body"`
}

type docxBody struct {
	Paras  []docxPara  `xml:"p"`
	Tables []docxTable `xml:"tbl"`
}

type docxPara struct {
	PPr  *docxParaPr `xml:"pPr"`
	Runs []docxRun   `xml:"r"`
}

type docxParaPr struct {
	PStyle *docxPStyle `xml:"pStyle"`
}

type docxPStyle struct {
	Val string `xml:"val,attr"`
}

type docxRun struct {
	Text []string `xml:"t"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paras []docxPara `xml:"p"`
}

func parseDocxXML(data []byte) ([]Section, error) {
	var doc docxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var sections []Section
	heading, level := "", 0
	for _, para := range doc.Body.Paras {
		text := strings.TrimSpace(paraText(para))
		if text == "" {
			continue
		}
		style := ""
		if para.PPr != nil && para.PPr.PStyle != nil {
			style = strings.ToLower(para.PPr.PStyle.Val)
		}
		if strings.HasPrefix(style, "heading") || strings.HasPrefix(style, "title") {
			heading, level = text, headingStyleLevel(style)
			continue
		}
		sections = append(sections, Section{
			Heading: heading,
			Content: text,
			Level:   level,
			Type:    "paragraph",
		})
	}

	for _, tbl := range doc.Body.Tables {
		for i, row := range tbl.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				var parts []string
				for _, p := range cell.Paras {
					parts = append(parts, paraText(p))
				}
				cells = append(cells, strings.Join(parts, " "))
			}
			if content := joinCells(cells); content != "" {
				sections = append(sections, Section{Content: content, Row: i + 1, Type: "row"})
			}
		}
	}
	return sections, nil
}

func paraText(para docxPara) string {
	var b strings.Builder
	for _, run := range para.Runs {
		for _, t := range run.Text {
			b.WriteString(t)
		}
	}
	return b.String()
}

// headingStyleLevel reads the level from "heading2"; titles are level 1.
func headingStyleLevel(style string) int {
	if strings.Contains(style, "title") {
		return 1
	}
	for i := 1; i <= 9; i++ {
		if strings.Contains(style, fmt.Sprint(i)) {
			return i
		}
	}
	return 1
}
