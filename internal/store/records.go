package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/lisearch/internal/apperr"
	"github.com/starford/lisearch/internal/models"
)

// ImportAll atomically replaces the three primary collections: within one
// transaction every existing record is deleted and the new set inserted,
// with the validation hook applied to every record. Either all three
// collections are replaced or none are. The query cache is cleared in the
// same transaction since every derived page is stale after a replacement.
func (s *Store) ImportAll(ctx context.Context, contacts []models.Contact, employers []models.Employer, positions []models.Position) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return &apperr.DatabaseError{Op: "import: begin tx", Err: err}
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, table := range []string{"connections", "companies", "positions", "cache"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return &apperr.DatabaseError{Op: "import: clear " + table, Err: err}
		}
	}

	if err := insertContacts(ctx, tx, contacts); err != nil {
		return err
	}
	if err := insertEmployers(ctx, tx, employers); err != nil {
		return err
	}
	if err := insertPositions(ctx, tx, positions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &apperr.DatabaseError{Op: "import: commit", Err: err}
	}
	return nil
}

func insertContacts(ctx context.Context, tx *sql.Tx, contacts []models.Contact) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO connections (first_name, last_name, full_name, email_address, company, position, connected_on, extra, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return &apperr.DatabaseError{Op: "import: prepare connections", Err: err}
	}
	defer stmt.Close()

	for _, c := range contacts {
		if err := validateContact(c); err != nil {
			return err
		}
		extra := "{}"
		if len(c.ExtraFields) > 0 {
			raw, _ := json.Marshal(c.ExtraFields)
			extra = string(raw)
		}
		updated := c.UpdatedAt
		if updated.IsZero() {
			updated = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, c.FirstName, c.LastName, c.FullName,
			c.EmailAddress, c.Company, c.Position, c.ConnectedOn, extra, updated); err != nil {
			return &apperr.DatabaseError{Op: "import: insert connection", Err: err}
		}
	}
	return nil
}

func insertEmployers(ctx context.Context, tx *sql.Tx, employers []models.Employer) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO companies (company, connections) VALUES (?, ?)`)
	if err != nil {
		return &apperr.DatabaseError{Op: "import: prepare companies", Err: err}
	}
	defer stmt.Close()

	for _, e := range employers {
		if err := validateEmployer(e); err != nil {
			return err
		}
		refs, _ := json.Marshal(e.Connections)
		if _, err := stmt.ExecContext(ctx, e.Company, string(refs)); err != nil {
			return &apperr.DatabaseError{Op: "import: insert company", Err: err}
		}
	}
	return nil
}

func insertPositions(ctx context.Context, tx *sql.Tx, positions []models.Position) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO positions (title, position, company) VALUES (?, ?, ?)`)
	if err != nil {
		return &apperr.DatabaseError{Op: "import: prepare positions", Err: err}
	}
	defer stmt.Close()

	for _, p := range positions {
		if err := validatePosition(p); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, p.Title, p.Position, p.Company); err != nil {
			return &apperr.DatabaseError{Op: "import: insert position", Err: err}
		}
	}
	return nil
}

// Count returns the number of records in the named collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if !models.ValidCollection(collection) {
		return 0, fmt.Errorf("store: unknown collection %q", collection)
	}
	var n int
	if err := s.conn.QueryRowContext(ctx, "SELECT count(*) FROM "+collection).Scan(&n); err != nil {
		return 0, &apperr.DatabaseError{Op: "count " + collection, Err: err}
	}
	return n, nil
}

// GetContact returns a single contact by id.
func (s *Store) GetContact(ctx context.Context, id int64) (*models.Contact, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, full_name, email_address, company, position, connected_on, extra, updated_at
		FROM connections WHERE id = ?`, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, &apperr.DatabaseError{Op: "get contact", Err: err}
	}
	return c, nil
}

// GetEmployer returns a single employer by id.
func (s *Store) GetEmployer(ctx context.Context, id int64) (*models.Employer, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT id, company, connections FROM companies WHERE id = ?`, id)
	e, err := scanEmployer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, &apperr.DatabaseError{Op: "get employer", Err: err}
	}
	return e, nil
}

// GetPosition returns a single position by id.
func (s *Store) GetPosition(ctx context.Context, id int64) (*models.Position, error) {
	var p models.Position
	err := s.conn.QueryRowContext(ctx, `SELECT id, title, position, company FROM positions WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Position, &p.Company)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, &apperr.DatabaseError{Op: "get position", Err: err}
	}
	return &p, nil
}

// Contacts returns the full connections collection in id order.
// Full scan; intended for small collections and the lucky picker.
func (s *Store) Contacts(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, first_name, last_name, full_name, email_address, company, position, connected_on, extra, updated_at
		FROM connections ORDER BY id`)
	if err != nil {
		return nil, &apperr.DatabaseError{Op: "scan connections", Err: err}
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, &apperr.DatabaseError{Op: "scan connections", Err: err}
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Employers returns the full companies collection in id order.
func (s *Store) Employers(ctx context.Context) ([]models.Employer, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, company, connections FROM companies ORDER BY id`)
	if err != nil {
		return nil, &apperr.DatabaseError{Op: "scan companies", Err: err}
	}
	defer rows.Close()

	var out []models.Employer
	for rows.Next() {
		e, err := scanEmployer(rows)
		if err != nil {
			return nil, &apperr.DatabaseError{Op: "scan companies", Err: err}
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Positions returns the full positions collection in id order.
func (s *Store) Positions(ctx context.Context) ([]models.Position, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, title, position, company FROM positions ORDER BY id`)
	if err != nil {
		return nil, &apperr.DatabaseError{Op: "scan positions", Err: err}
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.Title, &p.Position, &p.Company); err != nil {
			return nil, &apperr.DatabaseError{Op: "scan positions", Err: err}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(r rowScanner) (*models.Contact, error) {
	var c models.Contact
	var extra string
	if err := r.Scan(&c.ID, &c.FirstName, &c.LastName, &c.FullName, &c.EmailAddress,
		&c.Company, &c.Position, &c.ConnectedOn, &extra, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if extra != "" && extra != "{}" {
		_ = json.Unmarshal([]byte(extra), &c.ExtraFields)
	}
	return &c, nil
}

func scanEmployer(r rowScanner) (*models.Employer, error) {
	var e models.Employer
	var refs string
	if err := r.Scan(&e.ID, &e.Company, &refs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(refs), &e.Connections); err != nil {
		return nil, fmt.Errorf("decode connection refs: %w", err)
	}
	return &e, nil
}
