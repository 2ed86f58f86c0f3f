package importer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/lisearch/internal/dropdir"
)

// sweepDelay debounces bursts of filesystem events while an export file
// is still being written.
const sweepDelay = 250 * time.Millisecond

// Watch starts an fsnotify watcher on the drop directory and imports any
// .csv file placed there until ctx is cancelled. Create and write events
// are debounced into a sweep that lists the directory, imports each file,
// and archives it under processed/. A payload whose checksum matches the
// last imported one is archived without re-importing.
//
// Files already present at startup are swept immediately.
func (i *Importer) Watch(ctx context.Context, dir *dropdir.Dir) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir.Root()); err != nil {
		return err
	}

	i.logger.Info("import watcher started", slog.String("root", dir.Root()))

	// sweepTimer debounces event bursts into one directory sweep.
	var sweepTimer *time.Timer
	var sweepCh <-chan time.Time

	scheduleSweep := func() {
		if sweepTimer == nil {
			sweepTimer = time.NewTimer(sweepDelay)
			sweepCh = sweepTimer.C
		} else {
			sweepTimer.Reset(sweepDelay)
		}
	}

	i.sweep(ctx, dir)

	for {
		select {
		case <-ctx.Done():
			if sweepTimer != nil {
				sweepTimer.Stop()
			}
			i.logger.Info("import watcher stopped")
			return nil

		case <-sweepCh:
			i.sweep(ctx, dir)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(strings.ToLower(ev.Name), ".csv") {
				continue
			}
			scheduleSweep()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			i.logger.Error("import watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// sweep imports every pending CSV file in the drop directory and moves it
// to processed/. Failures leave the file in place for the next sweep.
func (i *Importer) sweep(ctx context.Context, dir *dropdir.Dir) {
	metas, err := dir.List()
	if err != nil {
		i.logger.Warn("sweep: list failed", slog.String("error", err.Error()))
		return
	}
	if len(metas) == 0 {
		return
	}

	last, err := i.LastChecksum(ctx)
	if err != nil {
		i.logger.Warn("sweep: read last checksum failed", slog.String("error", err.Error()))
	}

	for _, m := range metas {
		if m.Checksum == last && last != "" {
			i.logger.Info("sweep: duplicate payload, skipping import",
				slog.String("path", m.Path))
			if _, mvErr := dir.MoveToProcessed(m.Path); mvErr != nil {
				i.logger.Warn("sweep: archive failed",
					slog.String("path", m.Path), slog.String("error", mvErr.Error()))
			}
			continue
		}

		raw, readErr := dir.Read(m.Path)
		if readErr != nil {
			i.logger.Warn("sweep: read failed",
				slog.String("path", m.Path), slog.String("error", readErr.Error()))
			continue
		}
		if _, impErr := i.ImportCSV(ctx, raw); impErr != nil {
			i.logger.Warn("sweep: import failed",
				slog.String("path", m.Path), slog.String("error", impErr.Error()))
			continue
		}
		last = m.Checksum

		rel, mvErr := dir.MoveToProcessed(m.Path)
		if mvErr != nil {
			i.logger.Warn("sweep: archive failed",
				slog.String("path", m.Path), slog.String("error", mvErr.Error()))
			continue
		}
		i.logger.Info("sweep: imported", slog.String("path", m.Path), slog.String("archived", rel))
	}
}
