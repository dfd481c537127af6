package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docqa/internal/db"
)

// SearchKNN ranks rows with an embedding by cosine similarity
// 1 - (embedding <=> query), clamped to [0,1].
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, errors.New("vector is required")
	}
	if q.K <= 0 {
		return nil, errors.New("k must be positive")
	}
	def, err := s.indexes.Get(q.IndexName)
	if err != nil {
		return nil, err
	}
	vf := def.VectorField()
	if vf == nil {
		return nil, fmt.Errorf("index %s has no vector field: %w", q.IndexName, db.ErrInvalidQuery)
	}
	if len(q.Vector) != vf.VectorDim {
		return nil, fmt.Errorf("%w: expected %d, got %d", db.ErrVectorDimMismatch, vf.VectorDim, len(q.Vector))
	}

	stmt, args := buildKNN(def.Name, q, vectorLiteral(q.Vector))
	return s.query(ctx, def, stmt, args, q.ReturnFields, true)
}

// SearchText ranks rows whose content matches plainto_tsquery('english', query)
// by ts_rank.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if strings.TrimSpace(q.Query) == "" {
		return nil, errors.New("query is required")
	}
	if q.TopK <= 0 {
		return nil, errors.New("topK must be positive")
	}
	def, err := s.indexes.Get(q.IndexName)
	if err != nil {
		return nil, err
	}
	if def.TextField() == "" {
		return nil, fmt.Errorf("index %s has no text field: %w", q.IndexName, db.ErrInvalidQuery)
	}

	stmt, args := buildText(def.Name, q)
	return s.query(ctx, def, stmt, args, q.ReturnFields, false)
}

func buildKNN(table string, q *db.KNNQuery, vec string) (string, []any) {
	args := []any{vec}
	where := []string{"embedding IS NOT NULL"}
	where, args = appendFilters(where, args, q.Filters)

	stmt := fmt.Sprintf(`SELECT key, fields, content, 1 - (embedding <=> $1::vector) AS score
FROM %s
WHERE %s
ORDER BY embedding <=> $1::vector, key
LIMIT %d`, quoteIdent(table), strings.Join(where, " AND "), q.K)
	return stmt, args
}

func buildText(table string, q *db.TextQuery) (string, []any) {
	args := []any{q.Query}
	where := []string{"to_tsvector('english', content) @@ plainto_tsquery('english', $1)"}
	where, args = appendFilters(where, args, q.Filters)

	stmt := fmt.Sprintf(`SELECT key, fields, content, ts_rank(to_tsvector('english', content), plainto_tsquery('english', $1)) AS score
FROM %s
WHERE %s
ORDER BY score DESC, key
LIMIT %d`, quoteIdent(table), strings.Join(where, " AND "), q.TopK)
	return stmt, args
}

// appendFilters adds one fields->>name = ANY(values) clause per tag filter.
func appendFilters(where []string, args []any, filters []db.TagFilter) ([]string, []any) {
	for _, f := range filters {
		if len(f.Values) == 0 {
			continue
		}
		n := len(args)
		where = append(where, "fields->>$"+strconv.Itoa(n+1)+" = ANY($"+strconv.Itoa(n+2)+")")
		args = append(args, f.Field, f.Values)
	}
	return where, args
}

func (s *Store) query(
	ctx context.Context, def *db.IndexDefinition, stmt string, args []any, returnFields []string, similarity bool,
) (*db.SearchResult, error) {
	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer rows.Close()

	textField := def.TextField()
	var entries []db.SearchEntry
	for rows.Next() {
		var (
			key     string
			fields  map[string]string
			content string
			score   float64
		)
		if err := rows.Scan(&key, &fields, &content, &score); err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		if fields == nil {
			fields = make(map[string]string, 1)
		}
		if textField != "" {
			fields[textField] = content
		}
		if similarity {
			score = min(1, max(0, score))
		}
		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: db.Project(fields, returnFields),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}
