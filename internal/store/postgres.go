package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lotnotify/lotbridge/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	price          DOUBLE PRECISION NOT NULL DEFAULT 0,
	mmr            DOUBLE PRECISION NOT NULL DEFAULT 0,
	delivery       DOUBLE PRECISION NOT NULL DEFAULT 0,
	car_fix        DOUBLE PRECISION NOT NULL DEFAULT 0,
	payload        TEXT NOT NULL DEFAULT '',
	ts             TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_lot_id ON history(lot_id);
CREATE INDEX IF NOT EXISTS idx_history_stage_status ON history(stage, status);
CREATE INDEX IF NOT EXISTS idx_history_ts ON history(ts);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, entry model.HistoryEntry) (string, error) {
	id := uuid.New().String()
	ts := entry.TS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO history (`+historyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		         $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		id, entry.LotID, entry.Source, string(entry.Stage), string(entry.Status),
		entry.Reason, entry.Title, entry.URL, entry.Photo, entry.Seller,
		entry.State, entry.VIN, entry.TitleCode, entry.PrimaryDamage,
		entry.SecondDamage, entry.Mileage, entry.MileageStatus,
		entry.Price, entry.MMR, entry.Delivery, entry.CarFix,
		string(entry.Payload), ts,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert history")
	}
	return id, nil
}

func (s *PostgresStore) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	return s.list(ctx,
		`SELECT `+historyColumns+` FROM history ORDER BY ts DESC LIMIT $1`, limit)
}

func (s *PostgresStore) RawEvents(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	return s.list(ctx,
		`SELECT `+historyColumns+` FROM history
		 WHERE stage = 'RAW' AND payload != '' ORDER BY ts DESC LIMIT $1`, limit)
}

func (s *PostgresStore) list(ctx context.Context, query string, limit int) ([]model.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query history")
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		entry, err := scanPgEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: iterate history")
}

func (s *PostgresStore) Catalog(ctx context.Context) (*Catalog, error) {
	values := make(map[string][]string, len(catalogColumns))
	for _, col := range catalogColumns {
		rows, err := s.pool.Query(ctx,
			`SELECT DISTINCT `+col+` FROM history WHERE `+col+` != '' ORDER BY `+col)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: catalog %s", col)
		}
		var vals []string
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, eris.Wrapf(err, "postgres: scan catalog %s", col)
			}
			vals = append(vals, v)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, eris.Wrapf(err, "postgres: iterate catalog %s", col)
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

func (s *PostgresStore) Status(ctx context.Context) (*Status, error) {
	st := &Status{}
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	var last *time.Time
	if err := s.pool.QueryRow(ctx, `SELECT MAX(ts) FROM history`).Scan(&last); err != nil {
		return nil, eris.Wrap(err, "postgres: status last ts")
	}
	if last != nil {
		t := last.UTC()
		st.LastLotTS = &t
	}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM history WHERE stage = 'TG' AND status = 'SENT' AND ts >= $1`,
		dayStart).Scan(&st.SentToday); err != nil {
		return nil, eris.Wrap(err, "postgres: status sent count")
	}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM history WHERE status = 'SKIP' AND ts >= $1`,
		dayStart).Scan(&st.SkippedToday); err != nil {
		return nil, eris.Wrap(err, "postgres: status skip count")
	}

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM history`).Scan(&st.Total); err != nil {
		return nil, eris.Wrap(err, "postgres: status total")
	}

	return st, nil
}

func scanPgEntry(rows pgx.Rows) (model.HistoryEntry, error) {
	var e model.HistoryEntry
	var stage, status, payload string
	var ts time.Time

	err := rows.Scan(
		&e.ID, &e.LotID, &e.Source, &stage, &status, &e.Reason, &e.Title,
		&e.URL, &e.Photo, &e.Seller, &e.State, &e.VIN, &e.TitleCode,
		&e.PrimaryDamage, &e.SecondDamage, &e.Mileage, &e.MileageStatus,
		&e.Price, &e.MMR, &e.Delivery, &e.CarFix, &payload, &ts,
	)
	if err != nil {
		return e, eris.Wrap(err, "postgres: scan history entry")
	}

	e.Stage = model.Stage(stage)
	e.Status = model.Status(status)
	if payload != "" {
		e.Payload = []byte(payload)
	}
	e.TS = ts.UTC()
	return e, nil
}
