package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

type fixtureFile struct {
	Passages []fixturePassage `yaml:"passages"`
}

type fixturePassage struct {
	ID        string    `yaml:"id"`
	Document  string    `yaml:"document"`
	Text      string    `yaml:"text"`
	Section   string    `yaml:"section"`
	Page      int       `yaml:"page"`
	Source    string    `yaml:"source"`
	Embedding []float32 `yaml:"embedding"`
}

// LoadFixture reads passages from a YAML file of the form
//
//	passages:
//	  - id: install-1
//	    document: admin-guide
//	    section: Installation
//	    page: 12
//	    source: official
//	    text: ...
//	    embedding: [0.1, 0.2]   # optional
func LoadFixture(path string) ([]passage.Passage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}

	out := make([]passage.Passage, len(f.Passages))
	for i, fp := range f.Passages {
		out[i] = passage.Passage{
			ID:         fp.ID,
			DocumentID: fp.Document,
			Text:       fp.Text,
			Section:    fp.Section,
			Page:       fp.Page,
			Source:     fp.Source,
			Embedding:  fp.Embedding,
		}
	}
	return out, nil
}
