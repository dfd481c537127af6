package postgres

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docqa/internal/db"
)

const undefinedTable = "42P01"

// CreateIndex creates the backing table plus full-text and HNSW indexes.
// An existing table is reported as db.ErrIndexExists after the definition
// is registered.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	exists, err := s.IndexExists(ctx, def.Name)
	if err != nil {
		return err
	}
	if exists {
		s.indexes.Put(def)
		return db.ErrIndexExists
	}

	for _, stmt := range buildCreateStatements(def) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &db.Error{Op: db.OpCreateIndex, Err: err}
		}
	}
	s.indexes.Put(def)
	return nil
}

// DropIndex drops the backing table and its rows.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, `DROP TABLE `+quoteIdent(name)); err != nil {
		if isPgCode(err, undefinedTable) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	s.indexes.Remove(name)
	return nil
}

// IndexExists checks the catalog for the backing table.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, quoteIdent(name)).Scan(&exists)
	if err != nil {
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return exists, nil
}

func buildCreateStatements(def *db.IndexDefinition) []string {
	table := quoteIdent(def.Name)
	stmts := make([]string, 0, 4)

	vf := def.VectorField()
	if vf != nil {
		stmts = append(stmts, `CREATE EXTENSION IF NOT EXISTS vector`)
	}

	cols := "key text PRIMARY KEY, fields jsonb NOT NULL DEFAULT '{}', content text NOT NULL DEFAULT ''"
	if vf != nil {
		cols += fmt.Sprintf(", embedding vector(%d)", vf.VectorDim)
	}
	stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, cols))

	if def.TextField() != "" {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s USING gin (to_tsvector('english', content))",
			quoteIdent(def.Name+"_content_idx"), table))
	}

	if vf != nil {
		ops := opsClass(vf.VectorDistance)
		if vf.VectorAlgo == db.VectorHNSW {
			m, ef := vf.VectorM, vf.VectorEFConstruct
			if m <= 0 {
				m = 16
			}
			if ef <= 0 {
				ef = 64
			}
			stmts = append(stmts, fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding %s) WITH (m = %d, ef_construction = %d)",
				quoteIdent(def.Name+"_embedding_idx"), table, ops, m, ef))
		}
	}

	return stmts
}

func opsClass(d db.DistanceMetric) string {
	switch d {
	case db.DistanceL2:
		return "vector_l2_ops"
	case db.DistanceIP:
		return "vector_ip_ops"
	default:
		return "vector_cosine_ops"
	}
}
