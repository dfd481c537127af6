// Package passage maps passages onto a db.Store index: one hash-like
// document per passage, tag fields for scoping, a TEXT field for lexical
// search and a VECTOR field for semantic search.
package passage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

// Indexed field names.
const (
	FieldContent  = "__content"
	FieldDocument = "__document"
	FieldSection  = "__section"
	FieldPage     = "__page"
	FieldSource   = "__source"
	FieldVector   = "__vector"
)

var returnFields = []string{FieldContent, FieldDocument, FieldSection, FieldPage, FieldSource}

// store is the consumer interface for passage persistence and search (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	Upsert(ctx context.Context, index string, docs []db.Document) error
	Delete(ctx context.Context, index string, keys ...string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Options describe the passage index.
type Options struct {
	KeyPrefix       string
	IndexName       string
	Dimensions      int
	HNSWM           int
	HNSWEFConstruct int
}

// Repo implements the passage store port used by hybrid search.
type Repo struct {
	store store
	opts  Options
}

// New creates a passage repository.
func New(s store, opts Options) *Repo {
	return &Repo{store: s, opts: opts}
}

// IndexDefinition returns the schema the repository reads and writes.
func (r *Repo) IndexDefinition() *db.IndexDefinition {
	return db.NewIndex(r.opts.IndexName).
		Prefix(r.keyPrefix()).
		Text(FieldContent).
		Tag(FieldDocument).
		Tag(FieldSource).
		Tag(FieldSection).
		Numeric(FieldPage).
		VectorHNSW(FieldVector, r.opts.Dimensions, db.DistanceCosine, r.opts.HNSWM, r.opts.HNSWEFConstruct).
		MustBuild()
}

// EnsureIndex creates the index, treating an existing one as success.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	err := r.store.CreateIndex(ctx, r.IndexDefinition())
	if err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("ensure index %s: %w", r.opts.IndexName, err)
	}
	return nil
}

// Upsert writes passages, replacing any with the same ID.
func (r *Repo) Upsert(ctx context.Context, passages []passage.Passage) error {
	docs := make([]db.Document, 0, len(passages))
	for _, p := range passages {
		if p.ID == "" {
			return errors.New("passage id is required")
		}
		docs = append(docs, db.Document{
			Key:    r.key(p.ID),
			Fields: toFields(p),
			Vector: p.Embedding,
		})
	}
	if err := r.store.Upsert(ctx, r.opts.IndexName, docs); err != nil {
		return fmt.Errorf("upsert %d passages: %w", len(docs), err)
	}
	return nil
}

// Delete removes passages by ID.
func (r *Repo) Delete(ctx context.Context, ids ...string) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	if err := r.store.Delete(ctx, r.opts.IndexName, keys...); err != nil {
		return fmt.Errorf("delete passages: %w", err)
	}
	return nil
}

// SemanticSearch returns up to limit passages with an embedding, ordered by
// cosine similarity descending.
func (r *Repo) SemanticSearch(
	ctx context.Context, vector []float32, scope passage.Scope, limit int,
) ([]passage.Scored, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.opts.IndexName,
		Filters:      scopeFilters(scope),
		Vector:       vector,
		K:            limit,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return r.toScored(sr, true), nil
}

// LexicalSearch returns up to limit passages whose text matches query,
// ordered by full-text rank descending.
func (r *Repo) LexicalSearch(
	ctx context.Context, query string, scope passage.Scope, limit int,
) ([]passage.Scored, error) {
	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    r.opts.IndexName,
		Query:        query,
		Filters:      scopeFilters(scope),
		TopK:         limit,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return r.toScored(sr, false), nil
}

func (r *Repo) keyPrefix() string {
	return r.opts.KeyPrefix + "passage:"
}

func (r *Repo) key(id string) string {
	return r.keyPrefix() + id
}

func scopeFilters(scope passage.Scope) []db.TagFilter {
	var filters []db.TagFilter
	if len(scope.DocumentIDs) > 0 {
		filters = append(filters, db.TagFilter{Field: FieldDocument, Values: scope.DocumentIDs})
	}
	if len(scope.Sources) > 0 {
		filters = append(filters, db.TagFilter{Field: FieldSource, Values: scope.Sources})
	}
	return filters
}

func toFields(p passage.Passage) map[string]string {
	fields := map[string]string{
		FieldContent:  p.Text,
		FieldDocument: p.DocumentID,
		FieldSource:   p.Source,
	}
	if p.Section != "" {
		fields[FieldSection] = p.Section
	}
	if p.Page > 0 {
		fields[FieldPage] = strconv.Itoa(p.Page)
	}
	return fields
}

func (r *Repo) toScored(sr *db.SearchResult, semantic bool) []passage.Scored {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	prefix := r.keyPrefix()
	out := make([]passage.Scored, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		s := passage.Scored{Passage: fromFields(strings.TrimPrefix(e.Key, prefix), e.Fields)}
		if semantic {
			s.Semantic, s.HasSemantic = e.Score, true
		} else {
			s.Lexical, s.HasLexical = max(0, e.Score), true
		}
		out = append(out, s)
	}
	return out
}

func fromFields(id string, fields map[string]string) passage.Passage {
	p := passage.Passage{
		ID:         id,
		DocumentID: fields[FieldDocument],
		Text:       fields[FieldContent],
		Section:    fields[FieldSection],
		Source:     fields[FieldSource],
	}
	if v, ok := fields[FieldPage]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			p.Page = n
		}
	}
	return p
}
