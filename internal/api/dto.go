package api

import (
	"github.com/starford/lisearch/internal/importer"
	"github.com/starford/lisearch/internal/lucky"
	"github.com/starford/lisearch/internal/models"
)

// PageResponse is the paginated query response (aliased from the domain layer).
type PageResponse = models.Page

// ImportResponse reports import counts (aliased from the domain layer).
type ImportResponse = importer.Summary

// LuckyResponse wraps one "feel lucky" batch. Exhausted is true when every
// record of the collection has already been shown; the picks are then empty.
type LuckyResponse struct {
	Picks     []lucky.Item `json:"picks" validate:"required"`
	Exhausted bool         `json:"exhausted" example:"false" validate:"required"`
}

// ConfigResponse is the persisted user configuration.
type ConfigResponse struct {
	FeelLuckyGeneratorCounts int `json:"feelLuckyGeneratorCounts" example:"5" validate:"required"`
}

// UpdateConfigRequest is the request body for updating the configuration.
type UpdateConfigRequest struct {
	FeelLuckyGeneratorCounts int `json:"feelLuckyGeneratorCounts" example:"5" validate:"required"`
}

// ResetResponse acknowledges a reset operation.
type ResetResponse struct {
	Reset string `json:"reset" example:"visited" validate:"required"`
}
