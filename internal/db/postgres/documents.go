package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docqa/internal/db"
)

// Upsert writes all documents in one multi-row INSERT ... ON CONFLICT.
func (s *Store) Upsert(ctx context.Context, index string, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}
	def, err := s.indexes.Get(index)
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", index, err)
	}

	stmt, args, err := buildUpsert(def, docs)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, stmt, args...); err != nil {
		return &db.Error{Op: db.OpUpsert, Err: err}
	}
	return nil
}

// Delete removes documents by key.
func (s *Store) Delete(ctx context.Context, index string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM `+quoteIdent(index)+` WHERE key = ANY($1)`, keys)
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

func buildUpsert(def *db.IndexDefinition, docs []db.Document) (string, []any, error) {
	textField := def.TextField()
	vf := def.VectorField()

	cols := []string{"key", "fields", "content"}
	if vf != nil {
		cols = append(cols, "embedding")
	}
	perRow := len(cols)

	args := make([]any, 0, len(docs)*perRow)
	rows := make([]string, 0, len(docs))
	placeholders := make([]string, perRow)

	for i, doc := range docs {
		fields := make(map[string]string, len(doc.Fields))
		var content string
		for k, v := range doc.Fields {
			if k == textField {
				content = v
				continue
			}
			fields[k] = v
		}
		raw, err := json.Marshal(fields)
		if err != nil {
			return "", nil, fmt.Errorf("key %s: encode fields: %w", doc.Key, err)
		}
		args = append(args, doc.Key, string(raw), content)

		if len(doc.Vector) > 0 && vf == nil {
			return "", nil, fmt.Errorf("key %s: index %s has no vector field: %w",
				doc.Key, def.Name, db.ErrInvalidQuery)
		}
		if vf != nil {
			var vec any
			if len(doc.Vector) > 0 {
				if len(doc.Vector) != vf.VectorDim {
					return "", nil, fmt.Errorf("key %s: %w: expected %d, got %d",
						doc.Key, db.ErrVectorDimMismatch, vf.VectorDim, len(doc.Vector))
				}
				vec = vectorLiteral(doc.Vector)
			}
			args = append(args, vec)
		}

		for j := range placeholders {
			placeholders[j] = "$" + strconv.Itoa(i*perRow+j+1)
		}
		if vf != nil {
			placeholders[perRow-1] += "::vector"
		}
		rows = append(rows, "("+strings.Join(placeholders, ", ")+")")
	}

	set := make([]string, 0, perRow-1)
	for _, c := range cols[1:] {
		set = append(set, c+" = EXCLUDED."+c)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT (key) DO UPDATE SET %s",
		quoteIdent(def.Name), strings.Join(cols, ", "), strings.Join(rows, ", "), strings.Join(set, ", "))
	return stmt, args, nil
}

// vectorLiteral renders v in pgvector's text format, e.g. [0.1,0.2].
func vectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.Grow(len(v) * 8)
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
