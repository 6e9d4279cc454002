// Package store persists the append-only lot event history that backs the
// operator API (/history, /catalog, /status) and the replay command.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lotnotify/lotbridge/internal/config"
	"github.com/lotnotify/lotbridge/internal/model"
)

// Catalog holds the distinct values seen across history, used by the UI to
// populate filter choices.
type Catalog struct {
	Sellers         []string `json:"sellers"`
	States          []string `json:"states"`
	TitleTypes      []string `json:"title_types"`
	PrimaryDamage   []string `json:"primary_damage"`
	SecondaryDamage []string `json:"secondary_damage"`
	Sources         []string `json:"sources"`
	MileageStatus   []string `json:"mileage_status"`
}

// Status summarizes pipeline activity for the UI status panel.
type Status struct {
	LastLotTS    *time.Time `json:"lastLotTs,omitempty"`
	SentToday    int64      `json:"sentToday"`
	SkippedToday int64      `json:"skippedToday"`
	Total        int64      `json:"total"`
}

// Store defines the persistence interface for the event history.
type Store interface {
	// Append records one stage outcome and returns the row id.
	Append(ctx context.Context, entry model.HistoryEntry) (string, error)
	// History lists the most recent entries, newest first.
	History(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	// RawEvents lists the most recent RAW-stage entries whose original
	// payload was captured, for replay.
	RawEvents(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	// Catalog returns the distinct field values seen so far.
	Catalog(ctx context.Context) (*Catalog, error)
	// Status summarizes activity since midnight UTC.
	Status(ctx context.Context) (*Status, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New opens the store selected by config.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DSN)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
