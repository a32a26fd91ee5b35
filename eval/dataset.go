package eval

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/gorus/relations"
)

// Dataset is a collection of gold relation trees.
type Dataset struct {
	Name     string     `json:"name"`
	Language string     `json:"language"` // default for tests without one
	Tests    []TestCase `json:"tests"`
}

// TestCase is one text with its entities and the tree they should form.
type TestCase struct {
	Text     string           `json:"text"`
	Language string           `json:"language,omitempty"`
	Entities []relations.Span `json:"entities"`
	Category string           `json:"category,omitempty"` // union, negation, contrast, attachment, ...
	Expected relations.Node   `json:"expected"`
}

type datasetFile struct {
	Name     string     `yaml:"name"`
	Language string     `yaml:"language"`
	Tests    []caseFile `yaml:"tests"`
}

type caseFile struct {
	Text     string           `yaml:"text"`
	Language string           `yaml:"language"`
	Entities []relations.Span `yaml:"entities"`
	Category string           `yaml:"category"`
	Expected any              `yaml:"expected"`
}

// ParseDataset reads a YAML dataset. Expected trees use the JSON node
// form ({type: SET, relations: [...]}) written as YAML.
func ParseDataset(data []byte) (Dataset, error) {
	var f datasetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Dataset{}, fmt.Errorf("parsing dataset: %w", err)
	}

	ds := Dataset{Name: f.Name, Language: f.Language, Tests: make([]TestCase, len(f.Tests))}
	for i, c := range f.Tests {
		if c.Expected == nil {
			return Dataset{}, fmt.Errorf("test %d: expected tree missing", i+1)
		}
		raw, err := json.Marshal(c.Expected)
		if err != nil {
			return Dataset{}, fmt.Errorf("test %d: %w", i+1, err)
		}
		expected, err := relations.DecodeNode(raw)
		if err != nil {
			return Dataset{}, fmt.Errorf("test %d: %w", i+1, err)
		}
		lang := c.Language
		if lang == "" {
			lang = f.Language
		}
		ds.Tests[i] = TestCase{
			Text:     c.Text,
			Language: lang,
			Entities: c.Entities,
			Category: c.Category,
			Expected: expected,
		}
	}
	return ds, nil
}

// LoadDataset reads a YAML dataset file.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("reading dataset: %w", err)
	}
	ds, err := ParseDataset(data)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}
