package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/lisearch/internal/apperr"
	"github.com/starford/lisearch/internal/importer"
	"github.com/starford/lisearch/internal/lucky"
	"github.com/starford/lisearch/internal/models"
	"github.com/starford/lisearch/internal/queryservice"
	"github.com/starford/lisearch/internal/store"
)

const (
	defaultPageSize = 10
	maxImportBytes  = 50 << 20
)

// Handler holds API route handlers.
type Handler struct {
	store    *store.Store
	query    *queryservice.Service
	selector *lucky.Selector
	importer *importer.Importer
}

// NewHandler creates a new Handler.
func NewHandler(st *store.Store, query *queryservice.Service, selector *lucky.Selector, imp *importer.Importer) *Handler {
	return &Handler{store: st, query: query, selector: selector, importer: imp}
}

// writeErr maps domain errors onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	var (
		verr *apperr.ValidationError
		ferr *apperr.FormatError
		terr *apperr.QueryTimeoutError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody(verr.Error()))
	case errors.As(err, &ferr):
		writeJSON(w, http.StatusBadRequest, errorBody(ferr.Error()))
	case errors.As(err, &terr):
		writeJSON(w, http.StatusGatewayTimeout, errorBody("query timed out"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetPage handles GET /api/{collection}.
//
//	@Summary		Paginated, searchable view of one collection
//	@Tags			collections
//	@Produce		json
//	@Param			collection	path		string	true	"Collection name"	Enums(connections, companies, positions)
//	@Param			page		query		int		false	"1-indexed page"
//	@Param			pageSize	query		int		false	"Items per page"
//	@Param			q			query		string	false	"Search terms"
//	@Param			sortBy		query		string	false	"Sort field"
//	@Param			sortOrder	query		string	false	"asc or desc"
//	@Success		200			{object}	PageResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/{collection} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		page, _ = strconv.Atoi(v)
	}
	pageSize := defaultPageSize
	if v := q.Get("pageSize"); v != "" {
		pageSize, _ = strconv.Atoi(v)
	}
	sort := models.SortOptions{
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	result, err := h.query.GetPage(r.Context(), chi.URLParam(r, "collection"), page, pageSize, q.Get("q"), sort)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetRecord handles GET /api/{collection}/{id}.
//
//	@Summary		Fetch a single record by id
//	@Tags			collections
//	@Produce		json
//	@Param			collection	path		string	true	"Collection name"
//	@Param			id			path		int		true	"Record id"
//	@Success		200			{object}	any
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/{collection}/{id} [get]
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}

	var record any
	switch collection {
	case models.CollectionConnections:
		record, err = h.store.GetContact(r.Context(), id)
	case models.CollectionCompanies:
		record, err = h.store.GetEmployer(r.Context(), id)
	case models.CollectionPositions:
		record, err = h.store.GetPosition(r.Context(), id)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("unknown collection"))
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Import handles POST /api/import. The body is the raw CSV export.
//
//	@Summary		Replace all collections from a CSV export
//	@Tags			import
//	@Accept			plain
//	@Produce		json
//	@Success		200	{object}	ImportResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	sum, err := h.importer.ImportCSV(r.Context(), raw)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// FeelLucky handles POST /api/lucky/{collection}.
//
//	@Summary		Open a random batch of not-yet-visited records
//	@Tags			lucky
//	@Produce		json
//	@Param			collection	path		string	true	"Collection name"
//	@Success		200			{object}	LuckyResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lucky/{collection} [post]
func (h *Handler) FeelLucky(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	items, err := h.luckyItems(r.Context(), collection)
	if err != nil {
		writeErr(w, err)
		return
	}

	picks, err := h.selector.Pick(r.Context(), collection, items)
	if errors.Is(err, apperr.ErrLuckyExhausted) {
		// Informational, not a failure.
		writeJSON(w, http.StatusOK, LuckyResponse{Picks: []lucky.Item{}, Exhausted: true})
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LuckyResponse{Picks: picks})
}

// luckyItems loads the full id/label list for one collection.
func (h *Handler) luckyItems(ctx context.Context, collection string) ([]lucky.Item, error) {
	switch collection {
	case models.CollectionConnections:
		contacts, err := h.store.Contacts(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]lucky.Item, 0, len(contacts))
		for _, c := range contacts {
			items = append(items, lucky.Item{ID: c.ID, Label: c.FullName})
		}
		return items, nil
	case models.CollectionCompanies:
		employers, err := h.store.Employers(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]lucky.Item, 0, len(employers))
		for _, e := range employers {
			items = append(items, lucky.Item{ID: e.ID, Label: e.Company})
		}
		return items, nil
	case models.CollectionPositions:
		positions, err := h.store.Positions(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]lucky.Item, 0, len(positions))
		for _, p := range positions {
			items = append(items, lucky.Item{ID: p.ID, Label: p.Title})
		}
		return items, nil
	default:
		return nil, &apperr.ValidationError{Field: "collection", Reason: "unknown collection " + strconv.Quote(collection)}
	}
}

// GetConfig handles GET /api/config.
//
//	@Summary		Read the persisted user configuration
//	@Tags			config
//	@Produce		json
//	@Success		200	{object}	ConfigResponse
//	@Security		BearerAuth
//	@Router			/config [get]
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConfigResponse{
		FeelLuckyGeneratorCounts: h.store.LuckyCount(r.Context()),
	})
}

// UpdateConfig handles PUT /api/config.
//
//	@Summary		Update the persisted user configuration
//	@Tags			config
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateConfigRequest	true	"New configuration"
//	@Success		200		{object}	ConfigResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/config [put]
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.PutLuckyCount(r.Context(), req.FeelLuckyGeneratorCounts); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{
		FeelLuckyGeneratorCounts: h.store.LuckyCount(r.Context()),
	})
}

// ResetVisited handles POST /api/reset/visited.
//
//	@Summary		Forget all visited marks
//	@Tags			reset
//	@Produce		json
//	@Success		200	{object}	ResetResponse
//	@Security		BearerAuth
//	@Router			/reset/visited [post]
func (h *Handler) ResetVisited(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetVisited(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Reset: "visited"})
}

// ResetAll handles POST /api/reset/all.
//
//	@Summary		Wipe all imported data, caches, visited marks, and settings
//	@Tags			reset
//	@Produce		json
//	@Success		200	{object}	ResetResponse
//	@Security		BearerAuth
//	@Router			/reset/all [post]
func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetAll(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Reset: "all"})
}
