// Package models defines the domain types for lisearch.
package models

import "time"

// Collection names as stored and addressed throughout the app.
const (
	CollectionConnections = "connections"
	CollectionCompanies   = "companies"
	CollectionPositions   = "positions"
)

// Collections lists the three primary record collections.
var Collections = []string{CollectionConnections, CollectionCompanies, CollectionPositions}

// ValidCollection reports whether name is one of the primary collections.
func ValidCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Contact is one row of the source export.
//
// FullName is always derived as FirstName + " " + LastName during
// normalization and never edited independently. ExtraFields holds values
// from CSV columns beyond the six positional ones, keyed by the camelCased
// header name.
type Contact struct {
	ID           int64             `json:"id"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	FullName     string            `json:"fullName"`
	EmailAddress string            `json:"emailAddress,omitempty"`
	Company      string            `json:"company,omitempty"`
	Position     string            `json:"position,omitempty"`
	ConnectedOn  string            `json:"connectedOn,omitempty"`
	ExtraFields  map[string]string `json:"extraFields,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// ConnectionRef is a lightweight member reference carried by an Employer,
// deliberately not a full Contact to avoid duplication.
type ConnectionRef struct {
	FullName string `json:"fullName"`
	Position string `json:"position,omitempty"`
}

// Employer is one distinct company value observed across all contacts.
// Connections is non-empty at creation time; its length is the employee
// count shown to users.
type Employer struct {
	ID          int64           `json:"id"`
	Company     string          `json:"company"`
	Connections []ConnectionRef `json:"connections"`
}

// Position is one distinct (title, company) pair. Title is the dedup key,
// formatted as "<position> at <company>".
type Position struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Position string `json:"position"`
	Company  string `json:"company"`
}

// Page is the result of a paginated query over a collection.
type Page struct {
	Items      []any  `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
	FromCache  bool   `json:"fromCache"`
	Collection string `json:"collection"`
}

// SortOptions controls result ordering for paginated queries.
type SortOptions struct {
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"` // "asc" or "desc"
}
