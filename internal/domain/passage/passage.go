// Package passage defines retrievable document passages and their
// read-time scored projections.
package passage

// Passage is an immutable unit of retrievable text.
type Passage struct {
	ID         string
	DocumentID string
	Text       string
	Section    string
	Page       int
	Source     string
	Embedding  []float32
}

// HasEmbedding reports whether the passage can take part in semantic search.
func (p Passage) HasEmbedding() bool {
	return len(p.Embedding) > 0
}

// Scored is a Passage with the retrieval signals that surfaced it.
// Semantic is a cosine similarity in [0,1], Lexical is a non-negative
// full-text rank. Combined holds the fused score.
type Scored struct {
	Passage
	Semantic    float64
	Lexical     float64
	Combined    float64
	HasSemantic bool
	HasLexical  bool
}

// Scope restricts a store query to given documents and source tags.
// Empty slices mean no restriction.
type Scope struct {
	DocumentIDs []string
	Sources     []string
}

// IsZero reports whether the scope applies no restriction.
func (s Scope) IsZero() bool {
	return len(s.DocumentIDs) == 0 && len(s.Sources) == 0
}

// Allows reports whether p falls inside the scope.
func (s Scope) Allows(p Passage) bool {
	return contains(s.DocumentIDs, p.DocumentID) && contains(s.Sources, p.Source)
}

func contains(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
