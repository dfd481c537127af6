package redis

import (
	"cmp"
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/docqa/internal/db"
)

// CreateIndex creates an FT index over hashes from the given definition.
// The definition is remembered even when the index already exists, so a
// restarted process can write to and search an index it did not create.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			s.indexes.Put(def)
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	s.indexes.Put(def)
	return nil
}

// DropIndex removes an FT index by name. Indexed hashes are kept.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	s.indexes.Remove(name)
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// fieldKeywords maps scalar field types to their FT.CREATE schema keyword.
var fieldKeywords = map[db.IndexFieldType]string{
	db.IndexFieldNumeric: "NUMERIC",
	db.IndexFieldText:    "TEXT",
	db.IndexFieldTag:     "TAG",
}

// buildCreateArgs renders the FT.CREATE arguments after the command name:
// index, ON HASH, optional PREFIX block and the SCHEMA.
func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}

	args := []string{idx.Name, "ON", "HASH"}
	if n := len(idx.Prefixes); n > 0 {
		args = append(append(args, "PREFIX", strconv.Itoa(n)), idx.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Type == db.IndexFieldVector {
			args = append(append(args, f.Name), vectorSchema(f)...)
			continue
		}
		kw, ok := fieldKeywords[f.Type]
		if !ok {
			return nil, fmt.Errorf("field %s: unknown field type %d", f.Name, f.Type)
		}
		args = append(args, f.Name, kw)
	}
	return args, nil
}

// vectorSchema renders "VECTOR <algo> <nargs> <attrs...>". Missing algorithm
// and metric fall back to FLAT and COSINE; HNSW tuning is sent only when set.
func vectorSchema(f *db.IndexField) []string {
	algo := cmp.Or(f.VectorAlgo, db.VectorFlat)
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.VectorDim),
		"DISTANCE_METRIC", string(cmp.Or(f.VectorDistance, db.DistanceCosine)),
	}
	if algo == db.VectorHNSW {
		if f.VectorM > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
		}
		if f.VectorEFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
		}
	}
	return append([]string{"VECTOR", string(algo), strconv.Itoa(len(attrs))}, attrs...)
}
