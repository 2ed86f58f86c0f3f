// Package importer runs the CSV import pipeline: parse, normalize,
// derive grouped collections, and replace the store contents in one
// transaction. A filesystem watcher picks up export files dropped into a
// directory and feeds them through the same pipeline.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/lisearch/internal/checksum"
	"github.com/starford/lisearch/internal/csvnorm"
	"github.com/starford/lisearch/internal/store"
)

// Notifier is the notification surface for import outcomes.
type Notifier interface {
	Notify(kind, title, detail string)
}

// Summary reports how many records an import produced.
type Summary struct {
	Connections int `json:"connections"`
	Companies   int `json:"companies"`
	Positions   int `json:"positions"`
}

// Importer turns raw CSV payloads into store contents.
type Importer struct {
	store    *store.Store
	notifier Notifier
	logger   *slog.Logger
}

// New creates an importer over the given store.
func New(st *store.Store, notifier Notifier, logger *slog.Logger) *Importer {
	return &Importer{store: st, notifier: notifier, logger: logger}
}

// ImportCSV runs the full pipeline on a raw export payload. All three
// collections are replaced atomically; previous contents are gone after a
// successful import and untouched after a failed one. The payload
// checksum is recorded so the watcher can recognize duplicate drops.
func (i *Importer) ImportCSV(ctx context.Context, raw []byte) (Summary, error) {
	rows, err := csvnorm.ReadCSV(bytes.NewReader(raw))
	if err != nil {
		i.fail("Import failed", err)
		return Summary{}, err
	}
	contacts, err := csvnorm.Normalize(rows)
	if err != nil {
		i.fail("Import failed", err)
		return Summary{}, err
	}

	employers := csvnorm.DeriveEmployers(contacts)
	positions := csvnorm.DerivePositions(contacts)

	if err := i.store.ImportAll(ctx, contacts, employers, positions); err != nil {
		i.fail("Import failed", err)
		return Summary{}, err
	}

	sum := checksum.Sum(raw)
	if err := i.store.PutSetting(ctx, store.SettingLastImportChecksum, sum); err != nil {
		i.logger.Warn("record import checksum failed", slog.String("error", err.Error()))
	}

	s := Summary{
		Connections: len(contacts),
		Companies:   len(employers),
		Positions:   len(positions),
	}
	i.logger.Info("import complete",
		slog.Int("connections", s.Connections),
		slog.Int("companies", s.Companies),
		slog.Int("positions", s.Positions),
		slog.String("checksum", sum))
	i.notifier.Notify("success", "Import complete", fmt.Sprintf(
		"Processed %d connections, %d companies, and %d positions",
		s.Connections, s.Companies, s.Positions))
	return s, nil
}

// LastChecksum returns the checksum of the most recently imported
// payload, or "" when nothing was imported yet.
func (i *Importer) LastChecksum(ctx context.Context) (string, error) {
	return i.store.Setting(ctx, store.SettingLastImportChecksum)
}

func (i *Importer) fail(title string, err error) {
	i.logger.Error("import failed", slog.String("error", err.Error()))
	i.notifier.Notify("error", title, err.Error())
}
