package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// PPTXParser reads PowerPoint decks. Every text paragraph of a slide is a
// section; PageNumber is the slide number.
type PPTXParser struct{}

func (p *PPTXParser) SupportedFormats() []string { return []string{"pptx"} }

func (p *PPTXParser) Parse(ctx context.Context, path string) (*ParseResult, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening PPTX: %w", err)
	}
	defer r.Close()

	// ppt/slides/slide1.xml, slide2.xml, ...
	slides := make(map[int]string)
	for _, f := range r.File {
		if num := extractSlideNumber(f.Name); num > 0 {
			slides[num] = f.Name
		}
	}
	nums := make([]int, 0, len(slides))
	for n := range slides {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var sections []Section
	for _, num := range nums {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := readZipFile(&r.Reader, slides[num])
		if err != nil {
			slog.Debug("pptx: skipping slide", "slide", num, "error", err)
			continue
		}
		for _, text := range extractPPTXSlideText(data) {
			sections = append(sections, Section{
				Heading:    fmt.Sprintf("Slide %d", num),
				Content:    text,
				Level:      1,
				PageNumber: num,
				Type:       "paragraph",
			})
		}
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("no text found in PPTX")
	}
	return &ParseResult{Sections: sections, Method: "native"}, nil
}

// pptxSlide simplified XML structure
type pptxSlide struct {
	CSld struct {
		SpTree struct {
			SPs []pptxSP `xml:"sp"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

type pptxSP struct {
	TxBody *pptxTxBody `xml:"txBody"`
}

type pptxTxBody struct {
	Paras []pptxAPara `xml:"p"`
}

type pptxAPara struct {
	Runs []pptxARun `xml:"r"`
}

type pptxARun struct {
	Text string `xml:"t"`
}

// extractPPTXSlideText returns the non-empty paragraphs of one slide.
func extractPPTXSlideText(data []byte) []string {
	var slide pptxSlide
	if err := xml.Unmarshal(data, &slide); err != nil {
		return nil
	}

	var paras []string
	for _, sp := range slide.CSld.SpTree.SPs {
		if sp.TxBody == nil {
			continue
		}
		for _, para := range sp.TxBody.Paras {
			var line strings.Builder
			for _, run := range para.Runs {
				line.WriteString(run.Text)
			}
			if t := strings.TrimSpace(line.String()); t != "" {
				paras = append(paras, t)
			}
		}
	}
	return paras
}

// extractSlideNumber returns N for "ppt/slides/slideN.xml", 0 otherwise.
func extractSlideNumber(name string) int {
	rest, ok := strings.CutPrefix(name, "ppt/slides/slide")
	if !ok {
		return 0
	}
	rest, ok = strings.CutSuffix(rest, ".xml")
	if !ok {
		return 0
	}
	var num int
	if _, err := fmt.Sscanf(rest, "%d", &num); err != nil {
		return 0
	}
	return num
}
