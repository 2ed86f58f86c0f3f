package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/starford/lisearch/internal/apperr"
)

// Settings keys.
const (
	SettingLuckyCount         = "feelLuckyGeneratorCounts"
	SettingLastImportChecksum = "lastImportChecksum"
)

// Bounds for the lucky generator count setting.
const (
	LuckyCountMin     = 1
	LuckyCountMax     = 20
	LuckyCountDefault = 5
)

// Visited returns the set of record ids already lucky-picked for a
// collection.
func (s *Store) Visited(ctx context.Context, collection string) (map[int64]struct{}, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT record_id FROM visited WHERE collection = ?`, collection)
	if err != nil {
		return nil, &apperr.DatabaseError{Op: "visited " + collection, Err: err}
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &apperr.DatabaseError{Op: "visited " + collection, Err: err}
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// MarkVisited records the given ids as visited in one transaction, so a
// whole lucky batch is persisted atomically or not at all.
func (s *Store) MarkVisited(ctx context.Context, collection string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return &apperr.DatabaseError{Op: "mark visited: begin tx", Err: err}
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO visited (collection, record_id) VALUES (?, ?)`)
	if err != nil {
		return &apperr.DatabaseError{Op: "mark visited: prepare", Err: err}
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, collection, id); err != nil {
			return &apperr.DatabaseError{Op: "mark visited: insert", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &apperr.DatabaseError{Op: "mark visited: commit", Err: err}
	}
	return nil
}

// ResetVisited clears the visited sets for all collections. Idempotent.
func (s *Store) ResetVisited(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM visited`); err != nil {
		return &apperr.DatabaseError{Op: "reset visited", Err: err}
	}
	return nil
}

// ResetAll wipes every collection: records, cache, visited sets, and
// settings. Idempotent.
func (s *Store) ResetAll(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return &apperr.DatabaseError{Op: "reset all: begin tx", Err: err}
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"connections", "companies", "positions", "cache", "visited", "settings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return &apperr.DatabaseError{Op: "reset all: clear " + table, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &apperr.DatabaseError{Op: "reset all: commit", Err: err}
	}
	return nil
}

// Setting returns the raw value for key, or "" when unset.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &apperr.DatabaseError{Op: "setting " + key, Err: err}
	}
	return v, nil
}

// PutSetting upserts a settings value.
func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return &apperr.DatabaseError{Op: "put setting " + key, Err: err}
	}
	return nil
}

// LuckyCount returns the configured lucky-pick batch size, clamped to
// [1, 20] with a default of 5 when unset or unparsable.
func (s *Store) LuckyCount(ctx context.Context) int {
	raw, err := s.Setting(ctx, SettingLuckyCount)
	if err != nil || raw == "" {
		return LuckyCountDefault
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return LuckyCountDefault
	}
	if n < LuckyCountMin {
		return LuckyCountMin
	}
	if n > LuckyCountMax {
		return LuckyCountMax
	}
	return n
}

// PutLuckyCount validates and persists the lucky-pick batch size.
func (s *Store) PutLuckyCount(ctx context.Context, n int) error {
	if n < LuckyCountMin || n > LuckyCountMax {
		return &apperr.ValidationError{
			Field:  SettingLuckyCount,
			Reason: "must be between 1 and 20",
		}
	}
	return s.PutSetting(ctx, SettingLuckyCount, strconv.Itoa(n))
}
