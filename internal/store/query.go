package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/lisearch/internal/apperr"
	"github.com/starford/lisearch/internal/models"
)

// searchFields lists the indexed columns a free-text term is matched
// against, per collection. The first entry is the primary field used for
// selectivity probes.
var searchFields = map[string][]string{
	models.CollectionConnections: {"full_name", "company", "position"},
	models.CollectionCompanies:   {"company"},
	models.CollectionPositions:   {"title"},
}

// sortColumns whitelists caller-facing sort keys per collection. Anything
// outside the map falls back to the collection default.
var sortColumns = map[string]map[string]string{
	models.CollectionConnections: {
		"fullName":  "full_name",
		"company":   "company",
		"position":  "position",
		"updatedAt": "updated_at",
	},
	models.CollectionCompanies: {
		"company": "company",
	},
	models.CollectionPositions: {
		"title":    "title",
		"position": "position",
		"company":  "company",
	},
}

var defaultSort = map[string]string{
	models.CollectionConnections: "full_name",
	models.CollectionCompanies:   "company",
	models.CollectionPositions:   "title",
}

// SearchCount returns the number of records in collection matching term.
// An empty term matches everything.
func (s *Store) SearchCount(ctx context.Context, collection, term string) (int, error) {
	where, args, err := s.buildSearch(ctx, collection, term)
	if err != nil {
		return 0, err
	}
	q := "SELECT count(*) FROM " + collection + where
	var n int
	if err := s.conn.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, wrapQueryErr(ctx, "count "+collection, err)
	}
	return n, nil
}

// SearchPage returns one sorted page of records matching term. Items are
// the collection's native record type boxed as any, so one page shape
// serves all three views.
func (s *Store) SearchPage(ctx context.Context, collection, term string, sort models.SortOptions, limit, offset int) ([]any, error) {
	where, args, err := s.buildSearch(ctx, collection, term)
	if err != nil {
		return nil, err
	}
	order := orderClause(collection, sort)
	args = append(args, limit, offset)

	switch collection {
	case models.CollectionConnections:
		q := `SELECT id, first_name, last_name, full_name, email_address, company, position, connected_on, extra, updated_at
			FROM connections` + where + order + ` LIMIT ? OFFSET ?`
		rows, err := s.conn.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, wrapQueryErr(ctx, "page connections", err)
		}
		defer rows.Close()
		var out []any
		for rows.Next() {
			c, err := scanContact(rows)
			if err != nil {
				return nil, &apperr.DatabaseError{Op: "page connections", Err: err}
			}
			out = append(out, *c)
		}
		return out, rows.Err()

	case models.CollectionCompanies:
		q := `SELECT id, company, connections FROM companies` + where + order + ` LIMIT ? OFFSET ?`
		rows, err := s.conn.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, wrapQueryErr(ctx, "page companies", err)
		}
		defer rows.Close()
		var out []any
		for rows.Next() {
			e, err := scanEmployer(rows)
			if err != nil {
				return nil, &apperr.DatabaseError{Op: "page companies", Err: err}
			}
			out = append(out, *e)
		}
		return out, rows.Err()

	case models.CollectionPositions:
		q := `SELECT id, title, position, company FROM positions` + where + order + ` LIMIT ? OFFSET ?`
		rows, err := s.conn.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, wrapQueryErr(ctx, "page positions", err)
		}
		defer rows.Close()
		var out []any
		for rows.Next() {
			var p models.Position
			if err := rows.Scan(&p.ID, &p.Title, &p.Position, &p.Company); err != nil {
				return nil, &apperr.DatabaseError{Op: "page positions", Err: err}
			}
			out = append(out, p)
		}
		return out, rows.Err()
	}
	return nil, fmt.Errorf("store: unknown collection %q", collection)
}

// buildSearch assembles the WHERE clause for a free-text term. Every word
// of the term must appear as a substring in at least one search field. For
// multi-word terms the words are ordered by ascending prefix-match count
// against the primary indexed field, so the rarest word leads and shrinks
// the candidate set before the remaining substring filters run.
func (s *Store) buildSearch(ctx context.Context, collection, term string) (string, []any, error) {
	fields, ok := searchFields[collection]
	if !ok {
		return "", nil, fmt.Errorf("store: unknown collection %q", collection)
	}
	words := strings.Fields(strings.ToLower(strings.TrimSpace(term)))
	if len(words) == 0 {
		return "", nil, nil
	}

	if len(words) > 1 {
		ordered, err := s.orderBySelectivity(ctx, collection, fields[0], words)
		if err != nil {
			return "", nil, err
		}
		words = ordered
	}

	var conds []string
	var args []any
	for _, w := range words {
		var perField []string
		for _, f := range fields {
			perField = append(perField, f+` LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(w)+"%")
		}
		conds = append(conds, "("+strings.Join(perField, " OR ")+")")
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// likeEscaper quotes LIKE metacharacters so a search word matches as a
// literal substring rather than a pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// orderBySelectivity probes the index with a prefix count per word and
// returns the words sorted by ascending match count.
func (s *Store) orderBySelectivity(ctx context.Context, collection, field string, words []string) ([]string, error) {
	type wc struct {
		word  string
		count int
	}
	counts := make([]wc, 0, len(words))
	q := "SELECT count(*) FROM " + collection + " WHERE " + field + ` LIKE ? ESCAPE '\'`
	for _, w := range words {
		var n int
		if err := s.conn.QueryRowContext(ctx, q, escapeLike(w)+"%").Scan(&n); err != nil {
			return nil, wrapQueryErr(ctx, "selectivity probe "+collection, err)
		}
		counts = append(counts, wc{word: w, count: n})
	}
	// Insertion sort keeps equal-count words in their original order.
	for i := 1; i < len(counts); i++ {
		for j := i; j > 0 && counts[j].count < counts[j-1].count; j-- {
			counts[j], counts[j-1] = counts[j-1], counts[j]
		}
	}
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.word
	}
	return out, nil
}

func orderClause(collection string, sort models.SortOptions) string {
	col, ok := sortColumns[collection][sort.SortBy]
	if !ok {
		col = defaultSort[collection]
	}
	dir := " ASC"
	switch strings.ToLower(sort.SortOrder) {
	case "desc", "descend":
		dir = " DESC"
	}
	return " ORDER BY " + col + dir + ", id ASC"
}

// wrapQueryErr distinguishes context-deadline failures (surfaced as query
// timeouts upstream) from engine failures.
func wrapQueryErr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return &apperr.QueryTimeoutError{Op: op}
	}
	return &apperr.DatabaseError{Op: op, Err: err}
}
