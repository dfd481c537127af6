package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/docqa/internal/db"
)

// Get retrieves a live value by key. Expired rows read as missing.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM `+kvTable+` WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return value, nil
}

// GetMany reads all live keys in one round-trip.
func (s *Store) GetMany(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT key, value FROM `+kvTable+` WHERE key = ANY($1) AND (expires_at IS NULL OR expires_at > now())`,
		keys,
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	defer rows.Close()

	pos := make(map[string]int, len(keys))
	for i, k := range keys {
		pos[k] = i
	}
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
		if i, ok := pos[key]; ok {
			out[i] = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	return out, nil
}

// Set stores a value without expiration.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.put(ctx, key, value, nil)
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	at := time.Now().Add(ttl).UTC()
	return s.put(ctx, key, value, &at)
}

func (s *Store) put(ctx context.Context, key string, value []byte, expiresAt *time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+kvTable+` (key, value, expires_at) VALUES ($1, $2, $3)
 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
