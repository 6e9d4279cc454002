package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lotnotify/lotbridge/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS history (
	id             TEXT PRIMARY KEY,
	lot_id         TEXT NOT NULL,
	source         TEXT NOT NULL DEFAULT '',
	stage          TEXT NOT NULL,
	status         TEXT NOT NULL,
	reason         TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL DEFAULT '',
	url            TEXT NOT NULL DEFAULT '',
	photo          TEXT NOT NULL DEFAULT '',
	seller         TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT '',
	vin            TEXT NOT NULL DEFAULT '',
	title_code     TEXT NOT NULL DEFAULT '',
	dd             TEXT NOT NULL DEFAULT '',
	sdd            TEXT NOT NULL DEFAULT '',
	mileage        TEXT NOT NULL DEFAULT '',
	mileage_status TEXT NOT NULL DEFAULT '',
	price          REAL NOT NULL DEFAULT 0,
	mmr            REAL NOT NULL DEFAULT 0,
	delivery       REAL NOT NULL DEFAULT 0,
	car_fix        REAL NOT NULL DEFAULT 0,
	payload        TEXT NOT NULL DEFAULT '',
	ts             DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_lot_id ON history(lot_id);
CREATE INDEX IF NOT EXISTS idx_history_stage_status ON history(stage, status);
CREATE INDEX IF NOT EXISTS idx_history_ts ON history(ts);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const historyColumns = `id, lot_id, source, stage, status, reason, title, url, photo,
	seller, state, vin, title_code, dd, sdd, mileage, mileage_status,
	price, mmr, delivery, car_fix, payload, ts`

func (s *SQLiteStore) Append(ctx context.Context, entry model.HistoryEntry) (string, error) {
	id := uuid.New().String()
	ts := entry.TS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (`+historyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, entry.LotID, entry.Source, string(entry.Stage), string(entry.Status),
		entry.Reason, entry.Title, entry.URL, entry.Photo, entry.Seller,
		entry.State, entry.VIN, entry.TitleCode, entry.PrimaryDamage,
		entry.SecondDamage, entry.Mileage, entry.MileageStatus,
		entry.Price, entry.MMR, entry.Delivery, entry.CarFix,
		string(entry.Payload), ts,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert history")
	}
	return id, nil
}

func (s *SQLiteStore) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	return s.list(ctx,
		`SELECT `+historyColumns+` FROM history ORDER BY ts DESC LIMIT ?`, limit)
}

func (s *SQLiteStore) RawEvents(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	return s.list(ctx,
		`SELECT `+historyColumns+` FROM history
		 WHERE stage = 'RAW' AND payload != '' ORDER BY ts DESC LIMIT ?`, limit)
}

func (s *SQLiteStore) list(ctx context.Context, query string, limit int) ([]model.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query history")
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate history")
}

// catalogColumns whitelists the columns the catalog may aggregate; column
// names cannot be bound as query parameters.
var catalogColumns = []string{"seller", "state", "title_code", "dd", "sdd", "source", "mileage_status"}

func (s *SQLiteStore) Catalog(ctx context.Context) (*Catalog, error) {
	values := make(map[string][]string, len(catalogColumns))
	for _, col := range catalogColumns {
		rows, err := s.db.QueryContext(ctx,
			`SELECT DISTINCT `+col+` FROM history WHERE `+col+` != '' ORDER BY `+col)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: catalog %s", col)
		}
		var vals []string
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, eris.Wrapf(err, "sqlite: scan catalog %s", col)
			}
			vals = append(vals, v)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, eris.Wrapf(err, "sqlite: iterate catalog %s", col)
		}
		values[col] = vals
	}

	return &Catalog{
		Sellers:         values["seller"],
		States:          values["state"],
		TitleTypes:      values["title_code"],
		PrimaryDamage:   values["dd"],
		SecondaryDamage: values["sdd"],
		Sources:         values["source"],
		MileageStatus:   values["mileage_status"],
	}, nil
}

func (s *SQLiteStore) Status(ctx context.Context) (*Status, error) {
	st := &Status{}
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(ts) FROM history`).Scan(&last); err != nil {
		return nil, eris.Wrap(err, "sqlite: status last ts")
	}
	if last.Valid {
		t := last.Time.UTC()
		st.LastLotTS = &t
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE stage = 'TG' AND status = 'SENT' AND ts >= ?`,
		dayStart).Scan(&st.SentToday); err != nil {
		return nil, eris.Wrap(err, "sqlite: status sent count")
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE status = 'SKIP' AND ts >= ?`,
		dayStart).Scan(&st.SkippedToday); err != nil {
		return nil, eris.Wrap(err, "sqlite: status skip count")
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&st.Total); err != nil {
		return nil, eris.Wrap(err, "sqlite: status total")
	}

	return st, nil
}

// scannable abstracts *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(sc scannable) (model.HistoryEntry, error) {
	var e model.HistoryEntry
	var stage, status, payload string
	var ts time.Time

	err := sc.Scan(
		&e.ID, &e.LotID, &e.Source, &stage, &status, &e.Reason, &e.Title,
		&e.URL, &e.Photo, &e.Seller, &e.State, &e.VIN, &e.TitleCode,
		&e.PrimaryDamage, &e.SecondDamage, &e.Mileage, &e.MileageStatus,
		&e.Price, &e.MMR, &e.Delivery, &e.CarFix, &payload, &ts,
	)
	if err != nil {
		return e, eris.Wrap(err, "sqlite: scan history entry")
	}

	e.Stage = model.Stage(stage)
	e.Status = model.Status(status)
	if payload != "" {
		e.Payload = []byte(payload)
	}
	e.TS = ts.UTC()
	return e, nil
}
