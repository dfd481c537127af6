package docqa

import (
	"github.com/kailas-cloud/docqa/internal/domain/passage"
	"github.com/kailas-cloud/docqa/internal/domain/vocabulary"
	"github.com/kailas-cloud/docqa/internal/usecase/normalize"
	"github.com/kailas-cloud/docqa/internal/usecase/retrieval"
)

// Term is a canonical vocabulary spelling with optional aliases.
type Term struct {
	Canonical string
	Aliases   []string
}

// Passage is a unit of documentation text. Embedding may be left empty,
// Ingest then computes it with the configured Embedder.
type Passage struct {
	ID         string
	DocumentID string
	Text       string
	Section    string
	Page       int
	Source     string
	Embedding  []float32
}

// ScoredPassage is a retrieved passage with its scores.
type ScoredPassage struct {
	Passage
	Semantic float64
	Lexical  float64
	Score    float64
}

// Scope restricts retrieval to documents and source tags.
// Empty slices mean no restriction.
type Scope struct {
	DocumentIDs []string
	Sources     []string
}

// Correction is one vocabulary substitution applied to a query.
type Correction struct {
	Original  string
	Corrected string
	Score     float64
}

// NormalizeResult is a corrected query.
type NormalizeResult struct {
	Query       string
	Corrections []Correction
}

// RetrieveResult is the cited context for a question. Context equals
// NoContext when nothing relevant was found or retrieval failed.
type RetrieveResult struct {
	Context     string
	Outcome     string // "ok", "no_context" or "clarify"
	Query       string
	Corrections []Correction
	Passages    []ScoredPassage
}

// IngestStats summarizes an Ingest call.
type IngestStats struct {
	Passages    int
	Embedded    int
	TotalTokens int
}

func toDomainTerms(terms []Term) []vocabulary.Term {
	out := make([]vocabulary.Term, len(terms))
	for i, t := range terms {
		out[i] = vocabulary.Term{Canonical: t.Canonical, Aliases: t.Aliases}
	}
	return out
}

func toDomainPassages(ps []Passage) []passage.Passage {
	out := make([]passage.Passage, len(ps))
	for i, p := range ps {
		out[i] = passage.Passage(p)
	}
	return out
}

func fromScored(ps []passage.Scored) []ScoredPassage {
	out := make([]ScoredPassage, len(ps))
	for i, p := range ps {
		out[i] = ScoredPassage{
			Passage:  Passage(p.Passage),
			Semantic: p.Semantic,
			Lexical:  p.Lexical,
			Score:    p.Combined,
		}
	}
	return out
}

func fromCorrections(cs []normalize.Correction) []Correction {
	out := make([]Correction, len(cs))
	for i, c := range cs {
		out[i] = Correction(c)
	}
	return out
}

func fromRetrieval(r retrieval.Result) RetrieveResult {
	return RetrieveResult{
		Context:     r.Context,
		Outcome:     string(r.Outcome),
		Query:       r.Query,
		Corrections: fromCorrections(r.Corrections),
		Passages:    fromScored(r.Passages),
	}
}
