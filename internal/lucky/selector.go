// Package lucky implements the "feel lucky" picker: a uniform random
// sample, without replacement, from the not-yet-shown records of a
// collection, with the visited set persisted across sessions.
package lucky

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/starford/lisearch/internal/apperr"
)

// Item is one pickable record: its store id plus the display label used
// for the open action (a full name, company, or title).
type Item struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Notifier is the notification/display surface.
type Notifier interface {
	Notify(kind, title, detail string)
}

// Opener triggers the external "open item" action, conceptually opening a
// search for the given text.
type Opener interface {
	Open(query string)
}

// VisitedStore is the slice of store behavior the selector needs.
type VisitedStore interface {
	Visited(ctx context.Context, collection string) (map[int64]struct{}, error)
	MarkVisited(ctx context.Context, collection string, ids []int64) error
	LuckyCount(ctx context.Context) int
}

// Selector draws unvisited records at random.
type Selector struct {
	store    VisitedStore
	notifier Notifier
	opener   Opener
	logger   *slog.Logger

	// intn is swappable in tests; defaults to rand.IntN.
	intn func(n int) int
}

// NewSelector creates a selector over the given collaborators.
func NewSelector(store VisitedStore, notifier Notifier, opener Opener, logger *slog.Logger) *Selector {
	return &Selector{
		store:    store,
		notifier: notifier,
		opener:   opener,
		logger:   logger,
		intn:     rand.IntN,
	}
}

// Pick draws up to the configured count of unvisited items uniformly at
// random without replacement, triggers the open action and a notification
// per pick, then persists the enlarged visited set in one write covering
// the whole batch. When every item is already visited it notifies
// informationally and returns ErrLuckyExhausted with no state change.
func (s *Selector) Pick(ctx context.Context, collection string, items []Item) ([]Item, error) {
	visited, err := s.store.Visited(ctx, collection)
	if err != nil {
		return nil, err
	}

	pool := make([]Item, 0, len(items))
	for _, it := range items {
		if _, seen := visited[it.ID]; !seen {
			pool = append(pool, it)
		}
	}
	if len(pool) == 0 {
		s.logger.Info("no more unvisited items", slog.String("collection", collection))
		s.notifier.Notify("info", "No more items", "You have visited all items in this list!")
		return nil, apperr.ErrLuckyExhausted
	}

	n := s.store.LuckyCount(ctx)
	if n > len(pool) {
		n = len(pool)
	}

	// Partial Fisher-Yates: each draw swaps a uniform pick into the
	// prefix and shrinks the candidate range, so no id repeats.
	for i := 0; i < n; i++ {
		j := i + s.intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	picks := pool[:n]

	ids := make([]int64, 0, n)
	for _, p := range picks {
		s.opener.Open(p.Label)
		s.notifier.Notify("success", "Opening "+collection, "Opening "+p.Label+" in new tab!")
		ids = append(ids, p.ID)
	}

	// One persisted write after all actions have been issued: an
	// interruption cannot mark an item visited without its action, nor
	// leave part of the batch unmarked.
	if err := s.store.MarkVisited(ctx, collection, ids); err != nil {
		return picks, err
	}
	s.logger.Debug("lucky picks persisted",
		slog.String("collection", collection), slog.Int("count", len(picks)))
	return picks, nil
}
