// Package queryservice serves paginated, filtered, sorted slices of a
// collection, memoizing results in the store's cache collection.
package queryservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/lisearch/internal/apperr"
	"github.com/starford/lisearch/internal/models"
	"github.com/starford/lisearch/internal/store"
)

// Backend is the slice of store behavior the query service depends on.
// Consumers take the interface so tests can substitute slow or failing
// stores.
type Backend interface {
	SearchPage(ctx context.Context, collection, term string, sort models.SortOptions, limit, offset int) ([]any, error)
	SearchCount(ctx context.Context, collection, term string) (int, error)
	CacheGet(ctx context.Context, key string) (store.CacheEntry, bool, error)
	CachePut(ctx context.Context, e store.CacheEntry) error
	CacheSweep(ctx context.Context, cutoff time.Time, budget int64) (int, error)
}

// Verify *store.Store satisfies Backend at compile time.
var _ Backend = (*store.Store)(nil)

// Defaults for the cache and timeout policy.
const (
	DefaultMaxAge        = 5 * time.Minute
	DefaultOpTimeout     = 5 * time.Second
	DefaultMaxIdle       = 30 * time.Minute
	DefaultSweepInterval = time.Minute
	DefaultCacheBudget   = 50 << 20 // 50MB
)

// Options tunes the service. Zero values fall back to the defaults above.
type Options struct {
	MaxAge        time.Duration // cache entry freshness window
	OpTimeout     time.Duration // per-store-operation budget
	MaxIdle       time.Duration // janitor expiry age
	SweepInterval time.Duration // janitor period
	CacheBudget   int64         // total cache size budget in bytes
}

func (o *Options) applyDefaults() {
	if o.MaxAge <= 0 {
		o.MaxAge = DefaultMaxAge
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = DefaultOpTimeout
	}
	if o.MaxIdle <= 0 {
		o.MaxIdle = DefaultMaxIdle
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = DefaultSweepInterval
	}
	if o.CacheBudget <= 0 {
		o.CacheBudget = DefaultCacheBudget
	}
}

// Service memoizes paginated queries against the store.
type Service struct {
	backend Backend
	logger  *slog.Logger
	opts    Options
	now     func() time.Time
}

// NewService creates a query service over the given backend.
func NewService(backend Backend, logger *slog.Logger, opts Options) *Service {
	opts.applyDefaults()
	return &Service{
		backend: backend,
		logger:  logger,
		opts:    opts,
		now:     time.Now,
	}
}

// GetPage returns one page of a collection, filtered by a free-text term
// and sorted per sort. Pages are 1-indexed. A page past the end returns
// empty items with the correct total; it is not an error. Identical calls
// within the freshness window are served from cache without touching the
// primary collections.
func (s *Service) GetPage(ctx context.Context, collection string, page, pageSize int, term string, sort models.SortOptions) (*models.Page, error) {
	if !models.ValidCollection(collection) {
		return nil, &apperr.ValidationError{Field: "collection", Reason: fmt.Sprintf("unknown collection %q", collection)}
	}
	if page < 1 {
		return nil, &apperr.ValidationError{Field: "page", Reason: "must be a positive integer"}
	}
	if pageSize < 1 {
		return nil, &apperr.ValidationError{Field: "pageSize", Reason: "must be a positive integer"}
	}

	key := cacheKey(collection, page, pageSize, term, sort)
	if cached := s.lookup(ctx, key); cached != nil {
		return cached, nil
	}

	var (
		total int
		items []any
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.withTimeout(gCtx, "count "+collection, func(opCtx context.Context) error {
			var err error
			total, err = s.backend.SearchCount(opCtx, collection, term)
			return err
		})
	})
	g.Go(func() error {
		return s.withTimeout(gCtx, "page "+collection, func(opCtx context.Context) error {
			var err error
			items, err = s.backend.SearchPage(opCtx, collection, term, sort, pageSize, (page-1)*pageSize)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if items == nil {
		items = []any{}
	}
	result := &models.Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
		Collection: collection,
	}
	s.memoize(ctx, key, result)
	return result, nil
}

// lookup returns a fresh cached page for key, or nil on miss. Cache read
// failures degrade to a miss and are logged, never surfaced.
func (s *Service) lookup(ctx context.Context, key string) *models.Page {
	var (
		entry store.CacheEntry
		ok    bool
	)
	err := s.withTimeout(ctx, "cache get", func(opCtx context.Context) error {
		var err error
		entry, ok, err = s.backend.CacheGet(opCtx, key)
		return err
	})
	if err != nil {
		s.logger.Warn("cache lookup failed", slog.String("key", key), slog.String("error", err.Error()))
		return nil
	}
	if !ok || s.now().Sub(entry.Timestamp) >= s.opts.MaxAge {
		return nil
	}
	page, err := decodePage(entry.Data)
	if err != nil {
		s.logger.Warn("cache entry corrupt", slog.String("key", key), slog.String("error", err.Error()))
		return nil
	}
	page.FromCache = true
	return page
}

// cachedPage mirrors models.Page with raw items, so cached records can be
// re-decoded into their concrete types below.
type cachedPage struct {
	Items      []json.RawMessage `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
	Collection string            `json:"collection"`
}

// decodePage restores a serialized page. Items are decoded into the
// collection's record type, so a cache hit is indistinguishable from a
// fresh query for in-process consumers, not just over the wire.
func decodePage(data []byte) (*models.Page, error) {
	var cp cachedPage
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	items := make([]any, 0, len(cp.Items))
	for _, raw := range cp.Items {
		switch cp.Collection {
		case models.CollectionConnections:
			var c models.Contact
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, err
			}
			items = append(items, c)
		case models.CollectionCompanies:
			var e models.Employer
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, err
			}
			items = append(items, e)
		case models.CollectionPositions:
			var p models.Position
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, err
			}
			items = append(items, p)
		default:
			return nil, fmt.Errorf("unknown collection %q", cp.Collection)
		}
	}
	return &models.Page{
		Items:      items,
		Total:      cp.Total,
		Page:       cp.Page,
		PageSize:   cp.PageSize,
		TotalPages: cp.TotalPages,
		Collection: cp.Collection,
	}, nil
}

// memoize stores a page result. An entry bigger than 10% of the cache
// budget is never stored. Write failures are logged, never surfaced.
func (s *Service) memoize(ctx context.Context, key string, page *models.Page) {
	data, err := json.Marshal(page)
	if err != nil {
		s.logger.Warn("cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if int64(len(data)) > s.opts.CacheBudget/10 {
		s.logger.Debug("cache entry over single-entry limit, skipping",
			slog.String("key", key), slog.Int("size", len(data)))
		return
	}
	err = s.withTimeout(ctx, "cache put", func(opCtx context.Context) error {
		return s.backend.CachePut(opCtx, store.CacheEntry{
			Key:       key,
			Data:      data,
			Timestamp: s.now(),
			Size:      len(data),
		})
	})
	if err != nil {
		s.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// withTimeout runs op under the per-operation budget and maps deadline
// expiry to a QueryTimeoutError. No automatic retry: a fresh user action
// must re-trigger the query.
func (s *Service) withTimeout(ctx context.Context, op string, fn func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	err := fn(opCtx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return &apperr.QueryTimeoutError{Op: op}
	}
	return err
}

// cacheKey deterministically encodes all query inputs. The search term is
// lowercased and trimmed so equivalent queries share an entry.
func cacheKey(collection string, page, pageSize int, term string, sort models.SortOptions) string {
	return fmt.Sprintf("%s|p=%d|n=%d|q=%s|s=%s:%s",
		collection, page, pageSize,
		strings.ToLower(strings.TrimSpace(term)),
		sort.SortBy, strings.ToLower(sort.SortOrder))
}
