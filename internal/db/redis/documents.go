package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docqa/internal/db"
)

// Upsert stores documents as hashes in a single DoMulti round-trip. The
// vector, when present, is written to the index's VECTOR field as packed
// little-endian float32.
func (s *Store) Upsert(ctx context.Context, index string, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}
	def, err := s.indexes.Get(index)
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", index, err)
	}
	vf := def.VectorField()

	for _, doc := range docs {
		if vf != nil && len(doc.Vector) > 0 && len(doc.Vector) != vf.VectorDim {
			return fmt.Errorf("key %s: %w: expected %d, got %d",
				doc.Key, db.ErrVectorDimMismatch, vf.VectorDim, len(doc.Vector))
		}
	}

	cmds := make([]rueidis.Completed, len(docs))
	for i, doc := range docs {
		cmd := s.b().Hset().Key(doc.Key).FieldValue()
		for k, v := range doc.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		if vf != nil && len(doc.Vector) > 0 {
			cmd = cmd.FieldValue(vf.Name, vectorToBytes(doc.Vector))
		}
		cmds[i] = cmd.Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", docs[i].Key, err)}
		}
	}
	return nil
}

// Delete removes documents by key.
func (s *Store) Delete(ctx context.Context, _ string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	cmd := s.b().Del().Key(keys...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}
