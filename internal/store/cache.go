package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/starford/lisearch/internal/apperr"
)

// CacheEntry is one memoized query result. Key uniquely encodes the
// query inputs; Size is the byte length of the serialized Data.
type CacheEntry struct {
	Key       string
	Data      []byte
	Timestamp time.Time
	Size      int
}

// CacheGet returns the entry for key, or ok=false when absent.
func (s *Store) CacheGet(ctx context.Context, key string) (CacheEntry, bool, error) {
	var e CacheEntry
	var ts int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT key, data, timestamp, size FROM cache WHERE key = ?`, key).
		Scan(&e.Key, &e.Data, &ts, &e.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, &apperr.DatabaseError{Op: "cache get", Err: err}
	}
	e.Timestamp = time.UnixMilli(ts)
	return e, true, nil
}

// CachePut inserts or overwrites an entry. Overwrites are last-write-wins:
// entries are content-addressed, so racing writers store the same page.
func (s *Store) CachePut(ctx context.Context, e CacheEntry) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO cache (key, data, timestamp, size) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data      = excluded.data,
			timestamp = excluded.timestamp,
			size      = excluded.size
	`, e.Key, e.Data, e.Timestamp.UnixMilli(), e.Size)
	if err != nil {
		return &apperr.DatabaseError{Op: "cache put", Err: err}
	}
	return nil
}

// CacheSize returns the summed size of all cache entries in bytes.
func (s *Store) CacheSize(ctx context.Context) (int64, error) {
	var total int64
	if err := s.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(size), 0) FROM cache`).Scan(&total); err != nil {
		return 0, &apperr.DatabaseError{Op: "cache size", Err: err}
	}
	return total, nil
}

// CacheSweep removes entries older than cutoff, then, if the summed size
// still exceeds budget, evicts additional entries oldest-first until under
// budget. Returns the number of entries removed.
func (s *Store) CacheSweep(ctx context.Context, cutoff time.Time, budget int64) (int, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM cache WHERE timestamp < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, &apperr.DatabaseError{Op: "cache sweep expire", Err: err}
	}
	removed64, _ := res.RowsAffected()
	removed := int(removed64)

	total, err := s.CacheSize(ctx)
	if err != nil {
		return removed, err
	}
	for total > budget {
		var key string
		var size int
		err := s.conn.QueryRowContext(ctx,
			`SELECT key, size FROM cache ORDER BY timestamp ASC, key ASC LIMIT 1`).
			Scan(&key, &size)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if err != nil {
			return removed, &apperr.DatabaseError{Op: "cache sweep evict", Err: err}
		}
		if _, err := s.conn.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key); err != nil {
			return removed, &apperr.DatabaseError{Op: "cache sweep evict", Err: err}
		}
		removed++
		total -= int64(size)
	}
	return removed, nil
}

// CacheClear removes every cache entry.
func (s *Store) CacheClear(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM cache`); err != nil {
		return &apperr.DatabaseError{Op: "cache clear", Err: err}
	}
	return nil
}
