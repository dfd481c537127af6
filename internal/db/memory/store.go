// Package memory implements db.Store in process memory. Vector search is
// an exhaustive cosine scan and text search uses keyword overlap, which is
// enough for fixtures, local runs and tests.
package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain/similarity"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type kvEntry struct {
	value     []byte
	expiresAt time.Time
}

type index struct {
	def  *db.IndexDefinition
	docs map[string]db.Document
}

// Store keeps indexes and key-value entries in maps guarded by one RWMutex.
type Store struct {
	mu      sync.RWMutex
	kv      map[string]kvEntry
	indexes map[string]*index
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		kv:      make(map[string]kvEntry),
		indexes: make(map[string]*index),
		now:     time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get returns a copy of the live value for key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.kv[key]
	if !ok || (!e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)) {
		return nil, db.ErrKeyNotFound
	}
	return slices.Clone(e.value), nil
}

// GetMany returns live values for keys, nil for misses.
func (s *Store) GetMany(_ context.Context, keys []string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]byte, len(keys))
	now := s.now()
	for i, k := range keys {
		e, ok := s.kv[k]
		if !ok || (!e.expiresAt.IsZero() && !now.Before(e.expiresAt)) {
			continue
		}
		out[i] = slices.Clone(e.value)
	}
	return out, nil
}

// Set stores value without expiration.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = kvEntry{value: slices.Clone(value)}
	return nil
}

// SetWithTTL stores value until ttl elapses.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = kvEntry{value: slices.Clone(value), expiresAt: s.now().Add(ttl)}
	return nil
}

// CreateIndex registers an empty index.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	s.indexes[def.Name] = &index{def: def, docs: make(map[string]db.Document)}
	return nil
}

// DropIndex removes an index and its documents.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

// IndexExists reports whether name was created.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// Upsert replaces documents by key.
func (s *Store) Upsert(_ context.Context, name string, docs []db.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		return fmt.Errorf("upsert into %s: %w", name, db.ErrIndexNotFound)
	}
	vf := idx.def.VectorField()
	for _, d := range docs {
		if len(d.Vector) > 0 {
			if vf == nil {
				return fmt.Errorf("key %s: index %s has no vector field: %w", d.Key, name, db.ErrInvalidQuery)
			}
			if len(d.Vector) != vf.VectorDim {
				return fmt.Errorf("key %s: %w: expected %d, got %d",
					d.Key, db.ErrVectorDimMismatch, vf.VectorDim, len(d.Vector))
			}
		}
	}
	for _, d := range docs {
		fields := make(map[string]string, len(d.Fields))
		for k, v := range d.Fields {
			fields[k] = v
		}
		idx.docs[d.Key] = db.Document{Key: d.Key, Fields: fields, Vector: slices.Clone(d.Vector)}
	}
	return nil
}

// Delete removes documents by key.
func (s *Store) Delete(_ context.Context, name string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[name]
	if !ok {
		return db.ErrIndexNotFound
	}
	for _, k := range keys {
		delete(idx.docs, k)
	}
	return nil
}

// SearchKNN scores every document with a vector by cosine similarity.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, errors.New("vector is required")
	}
	if q.K <= 0 {
		return nil, errors.New("k must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	vf := idx.def.VectorField()
	if vf == nil {
		return nil, fmt.Errorf("index %s has no vector field: %w", q.IndexName, db.ErrInvalidQuery)
	}
	if len(q.Vector) != vf.VectorDim {
		return nil, fmt.Errorf("%w: expected %d, got %d", db.ErrVectorDimMismatch, vf.VectorDim, len(q.Vector))
	}

	entries := make([]db.SearchEntry, 0, len(idx.docs))
	for _, d := range idx.docs {
		if len(d.Vector) == 0 || !db.MatchesFilters(d.Fields, q.Filters) {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    d.Key,
			Score:  similarity.Cosine(q.Vector, d.Vector),
			Fields: db.Project(d.Fields, q.ReturnFields),
		})
	}
	return topK(entries, q.K), nil
}

// SearchText scores documents by keyword overlap with the TEXT field and
// keeps those with a positive score.
func (s *Store) SearchText(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if strings.TrimSpace(q.Query) == "" {
		return nil, errors.New("query is required")
	}
	if q.TopK <= 0 {
		return nil, errors.New("topK must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}
	tf := idx.def.TextField()
	if tf == "" {
		return nil, fmt.Errorf("index %s has no text field: %w", q.IndexName, db.ErrInvalidQuery)
	}

	var entries []db.SearchEntry
	for _, d := range idx.docs {
		if !db.MatchesFilters(d.Fields, q.Filters) {
			continue
		}
		score := similarity.KeywordScore(q.Query, d.Fields[tf])
		if score <= 0 {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    d.Key,
			Score:  score,
			Fields: db.Project(d.Fields, q.ReturnFields),
		})
	}
	return topK(entries, q.TopK), nil
}

// topK orders entries by score descending, then key, and truncates to k.
func topK(entries []db.SearchEntry, k int) *db.SearchResult {
	slices.SortFunc(entries, func(a, b db.SearchEntry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}
}
