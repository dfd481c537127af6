// Package vocabulary holds the controlled set of canonical domain terms that
// query normalization corrects towards.
package vocabulary

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmpty is returned when a vocabulary would contain no terms.
var ErrEmpty = errors.New("vocabulary has no terms")

// Term is a canonical spelling plus alternative spellings that should also
// resolve to it.
type Term struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases,omitempty"`
}

// UnmarshalYAML accepts either a plain scalar or a mapping.
func (t *Term) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.Canonical = node.Value
		return nil
	}
	type plain Term
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("decode term: %w", err)
	}
	*t = Term(p)
	return nil
}

// Vocabulary is an immutable snapshot of terms. Build one with New, Default
// or Load and share it freely between goroutines.
type Vocabulary struct {
	terms     []Term
	forms     []string
	canonical map[string]string
	known     map[string]struct{}
	maxWords  int
}

// New builds a vocabulary. Duplicate canonical terms are merged, blank
// entries are ignored.
func New(terms []Term) (*Vocabulary, error) {
	v := &Vocabulary{
		canonical: make(map[string]string),
		known:     make(map[string]struct{}),
	}
	index := make(map[string]int)

	for _, t := range terms {
		c := strings.TrimSpace(t.Canonical)
		if c == "" {
			continue
		}
		i, seen := index[c]
		if !seen {
			i = len(v.terms)
			index[c] = i
			v.terms = append(v.terms, Term{Canonical: c})
			v.addForm(c, c)
		}
		for _, a := range t.Aliases {
			a = strings.TrimSpace(a)
			if a == "" || a == c {
				continue
			}
			v.terms[i].Aliases = append(v.terms[i].Aliases, a)
			v.addForm(a, c)
		}
	}
	if len(v.terms) == 0 {
		return nil, ErrEmpty
	}
	return v, nil
}

func (v *Vocabulary) addForm(form, canonical string) {
	if _, dup := v.canonical[form]; dup {
		return
	}
	v.forms = append(v.forms, form)
	v.canonical[form] = canonical
	v.known[strings.ToLower(form)] = struct{}{}
	v.maxWords = max(v.maxWords, len(strings.Fields(form)))
}

// Terms returns a copy of the terms in insertion order.
func (v *Vocabulary) Terms() []Term {
	out := make([]Term, len(v.terms))
	for i, t := range v.terms {
		out[i] = Term{Canonical: t.Canonical, Aliases: append([]string(nil), t.Aliases...)}
	}
	return out
}

// Forms lists every canonical and alias spelling, canonical forms first
// within a term, in insertion order.
func (v *Vocabulary) Forms() []string {
	return append([]string(nil), v.forms...)
}

// Resolve maps a spelling returned by Forms to its canonical term.
func (v *Vocabulary) Resolve(form string) (string, bool) {
	c, ok := v.canonical[form]
	return c, ok
}

// Known reports whether s already equals some spelling, ignoring case.
func (v *Vocabulary) Known(s string) bool {
	_, ok := v.known[strings.ToLower(s)]
	return ok
}

// MaxWords is the word count of the longest spelling.
func (v *Vocabulary) MaxWords() int {
	return v.maxWords
}

// Len returns the number of canonical terms.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

type file struct {
	Terms []Term `yaml:"terms"`
}

// Load reads a YAML vocabulary file of the form
//
//	terms:
//	  - PostgreSQL
//	  - canonical: primary key
//	    aliases: [pk]
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	v, err := New(f.Terms)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", path, err)
	}
	return v, nil
}
