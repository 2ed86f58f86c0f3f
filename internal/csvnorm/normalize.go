// Package csvnorm turns a raw contact-export CSV into typed Contact
// records and derives the deduplicated Employer and Position views.
// All functions are pure: no I/O, deterministic for identical input.
package csvnorm

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/starford/lisearch/internal/apperr"
	"github.com/starford/lisearch/internal/models"
)

// Positional columns of the standard contact export. Header names are not
// trusted for mapping; only columns beyond these seed ExtraFields.
const (
	colFirstName = iota
	colLastName
	colEmailAddress
	colCompany
	colPosition
	colConnectedOn
	numFixedCols
)

// ReadCSV parses raw CSV text into a 2-D string table. Rows may have
// varying column counts; structural checks happen in Normalize.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, &apperr.FormatError{Reason: fmt.Sprintf("parse: %v", err)}
	}
	return rows, nil
}

// Normalize converts a raw table (row 0 = header) into Contact records.
//
// Each cell is trimmed. A row whose firstName AND lastName are empty after
// trimming is silently skipped; export files contain separator rows and
// that is not an error. A row where the name columns are positionally
// absent (fewer than two cells) is a FormatError, distinct from "empty
// string" which is tolerated.
func Normalize(rows [][]string) ([]models.Contact, error) {
	if len(rows) < 1 {
		return nil, &apperr.FormatError{Reason: "missing header row"}
	}

	header := rows[0]
	extraKeys := extraFieldKeys(header)

	now := time.Now().UTC()
	out := make([]models.Contact, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, &apperr.FormatError{
				Reason: fmt.Sprintf("row %d: name columns absent (%d cells)", i+1, len(row)),
			}
		}

		first := strings.TrimSpace(cell(row, colFirstName))
		last := strings.TrimSpace(cell(row, colLastName))
		if first == "" && last == "" {
			continue
		}

		c := models.Contact{
			FirstName:    first,
			LastName:     last,
			FullName:     first + " " + last,
			EmailAddress: strings.TrimSpace(cell(row, colEmailAddress)),
			Company:      strings.TrimSpace(cell(row, colCompany)),
			Position:     strings.TrimSpace(cell(row, colPosition)),
			ConnectedOn:  strings.TrimSpace(cell(row, colConnectedOn)),
			UpdatedAt:    now,
		}
		if len(extraKeys) > 0 {
			c.ExtraFields = make(map[string]string, len(extraKeys))
			for j, key := range extraKeys {
				c.ExtraFields[key] = strings.TrimSpace(cell(row, numFixedCols+j))
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// cell returns row[i] or "" when the row is short. Missing trailing cells
// are treated as empty, not structural errors.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// extraFieldKeys camelCases header names beyond the fixed columns. They
// seed the ExtraFields map for forward compatibility with extra export
// columns.
func extraFieldKeys(header []string) []string {
	if len(header) <= numFixedCols {
		return nil
	}
	keys := make([]string, 0, len(header)-numFixedCols)
	for _, h := range header[numFixedCols:] {
		keys = append(keys, camelCase(h))
	}
	return keys
}

// camelCase converts a header like "Connected On" to "connectedOn".
// The case change applies to the first rune, not the first byte, so
// non-ASCII header words survive intact.
func camelCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if i == 0 {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		b.WriteString(w[size:])
	}
	return b.String()
}
