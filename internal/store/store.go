// Package store persists securities, fetch settings, fetched candle series
// and batch results in an embedded SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"CandleScout/internal/model"
)

// Store wraps the database handle. Writes are serialized with a mutex, the
// same way the bot writes while other tools read.
type Store struct {
	db *sqlx.DB
	mu sync.Mutex
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] store opened: %s", path)
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS securities (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			engine TEXT NOT NULL,
			market TEXT NOT NULL,
			ticker TEXT NOT NULL,
			UNIQUE (engine, market, ticker)
		)`,

		`CREATE TABLE IF NOT EXISTS fetch_settings (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			lookback_sec INTEGER NOT NULL,
			interval     INTEGER NOT NULL,
			max_age_sec  INTEGER NOT NULL,
			UNIQUE (lookback_sec, interval, max_age_sec)
		)`,

		`CREATE TABLE IF NOT EXISTS series (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			security_id INTEGER NOT NULL REFERENCES securities(id) ON DELETE CASCADE,
			setting_id  INTEGER NOT NULL REFERENCES fetch_settings(id) ON DELETE CASCADE,
			data        TEXT,
			updated_at  INTEGER,
			first_dt    INTEGER,
			last_dt     INTEGER,
			complete    INTEGER,
			has_error   INTEGER,
			UNIQUE (security_id, setting_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_series_first_dt ON series(first_dt)`,
		`CREATE INDEX IF NOT EXISTS idx_series_last_dt ON series(last_dt)`,

		`CREATE TABLE IF NOT EXISTS fetch_errors (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			time   INTEGER NOT NULL,
			url    TEXT NOT NULL,
			status INTEGER,
			error  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_errors_time ON fetch_errors(time)`,

		`CREATE TABLE IF NOT EXISTS batch_results (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id   TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			side       TEXT NOT NULL,
			rank       INTEGER NOT NULL,
			security   TEXT NOT NULL,
			series_id  INTEGER NOT NULL,
			row        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batch_results_batch ON batch_results(batch_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// AddSecurity inserts the security if new and returns its id.
func (s *Store) AddSecurity(engine, market, ticker string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO securities (engine, market, ticker) VALUES (?, ?, ?)`,
		engine, market, ticker); err != nil {
		return 0, fmt.Errorf("insert security: %w", err)
	}
	var id int64
	err := s.db.Get(&id,
		`SELECT id FROM securities WHERE engine = ? AND market = ? AND ticker = ?`,
		engine, market, ticker)
	return id, err
}

// AddSetting inserts the fetch setting if new and returns its id.
func (s *Store) AddSetting(lookback time.Duration, interval int, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO fetch_settings (lookback_sec, interval, max_age_sec) VALUES (?, ?, ?)`,
		int64(lookback.Seconds()), interval, int64(maxAge.Seconds())); err != nil {
		return 0, fmt.Errorf("insert fetch setting: %w", err)
	}
	var id int64
	err := s.db.Get(&id,
		`SELECT id FROM fetch_settings WHERE lookback_sec = ? AND interval = ? AND max_age_sec = ?`,
		int64(lookback.Seconds()), interval, int64(maxAge.Seconds()))
	return id, err
}

// EnsureSeries creates the (security, setting) series slot if missing and
// returns its id.
func (s *Store) EnsureSeries(securityID, settingID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO series (security_id, setting_id) VALUES (?, ?)`,
		securityID, settingID); err != nil {
		return 0, fmt.Errorf("insert series: %w", err)
	}
	var id int64
	err := s.db.Get(&id,
		`SELECT id FROM series WHERE security_id = ? AND setting_id = ?`,
		securityID, settingID)
	return id, err
}

// RefreshJob describes one series that needs (re)fetching.
type RefreshJob struct {
	SeriesID    int64  `db:"series_id"`
	Engine      string `db:"engine"`
	Market      string `db:"market"`
	Ticker      string `db:"ticker"`
	LookbackSec int64  `db:"lookback_sec"`
	Interval    int    `db:"interval"`
}

// Lookback is the fetch window of the job.
func (j RefreshJob) Lookback() time.Duration { return time.Duration(j.LookbackSec) * time.Second }

// StaleSeries returns every series never fetched or older than its
// setting's refresh cap.
func (s *Store) StaleSeries(now time.Time) ([]RefreshJob, error) {
	var jobs []RefreshJob
	err := s.db.Select(&jobs, `
		SELECT sr.id AS series_id, sc.engine, sc.market, sc.ticker,
		       fs.lookback_sec, fs.interval
		FROM series sr
		JOIN securities sc ON sc.id = sr.security_id
		JOIN fetch_settings fs ON fs.id = sr.setting_id
		WHERE sr.updated_at IS NULL OR sr.updated_at + fs.max_age_sec < ?
		ORDER BY sr.id`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("select stale series: %w", err)
	}
	return jobs, nil
}

// SaveSeriesData stores the fetched bars and their coverage metadata and
// clears the error flag.
func (s *Store) SaveSeriesData(seriesID int64, bars []model.Bar, first, last time.Time, complete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("encode bars: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE series
		SET data = ?, updated_at = ?, first_dt = ?, last_dt = ?, complete = ?, has_error = 0
		WHERE id = ?`,
		string(data), time.Now().Unix(), first.Unix(), last.Unix(), complete, seriesID)
	return err
}

// SetSeriesError flags a series whose last fetch failed.
func (s *Store) SetSeriesError(seriesID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE series SET has_error = 1 WHERE id = ?`, seriesID)
	return err
}

// FetchError is one failed request to record.
type FetchError struct {
	URL    string
	Status int
	Err    string
}

// RecordFetchErrors appends failed requests to the error log.
func (s *Store) RecordFetchErrors(errs []FetchError) error {
	if len(errs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	for _, e := range errs {
		var status any
		if e.Status != 0 {
			status = e.Status
		}
		if _, err := s.db.Exec(
			`INSERT INTO fetch_errors (time, url, status, error) VALUES (?, ?, ?, ?)`,
			now, e.URL, status, e.Err); err != nil {
			return fmt.Errorf("insert fetch error: %w", err)
		}
	}
	return nil
}

type seriesRow struct {
	ID      int64          `db:"id"`
	Ticker  string         `db:"ticker"`
	Data    sql.NullString `db:"data"`
	FirstDT sql.NullInt64  `db:"first_dt"`
	LastDT  sql.NullInt64  `db:"last_dt"`
}

// WindowSeries is one stored series selected for a batch computation.
type WindowSeries struct {
	SeriesID int64
	Ticker   string
	Bars     []model.Bar
}

// SeriesForWindow picks, per ticker, the freshest stored series overlapping
// the window starting at minTime, preferring one that also covers the
// window start.
func (s *Store) SeriesForWindow(minTime time.Time) ([]WindowSeries, error) {
	var rows []seriesRow
	err := s.db.Select(&rows, `
		SELECT sr.id, sc.ticker, sr.data, sr.first_dt, sr.last_dt
		FROM series sr
		JOIN securities sc ON sc.id = sr.security_id
		WHERE sr.data IS NOT NULL AND sr.last_dt > ?
		ORDER BY sc.ticker, (sr.first_dt <= ?) DESC, sr.last_dt DESC`,
		minTime.Unix(), minTime.Unix())
	if err != nil {
		return nil, fmt.Errorf("select series for window: %w", err)
	}

	var out []WindowSeries
	seen := map[string]bool{}
	for _, r := range rows {
		if seen[r.Ticker] {
			continue
		}
		seen[r.Ticker] = true
		ws, err := r.decode()
		if err != nil {
			log.Printf("[WARN] series %d (%s): %v", r.ID, r.Ticker, err)
			continue
		}
		out = append(out, ws)
	}
	return out, nil
}

// LatestForTicker returns the freshest stored series of one ticker
// overlapping the window starting at minTime.
func (s *Store) LatestForTicker(ticker string, minTime time.Time) (WindowSeries, bool, error) {
	var r seriesRow
	err := s.db.Get(&r, `
		SELECT sr.id, sc.ticker, sr.data, sr.first_dt, sr.last_dt
		FROM series sr
		JOIN securities sc ON sc.id = sr.security_id
		WHERE sc.ticker = ? AND sr.data IS NOT NULL AND sr.last_dt > ?
		ORDER BY (sr.first_dt <= ?) DESC, sr.last_dt DESC
		LIMIT 1`,
		ticker, minTime.Unix(), minTime.Unix())
	if err == sql.ErrNoRows {
		return WindowSeries{}, false, nil
	}
	if err != nil {
		return WindowSeries{}, false, fmt.Errorf("select series for %s: %w", ticker, err)
	}
	ws, err := r.decode()
	if err != nil {
		return WindowSeries{}, false, err
	}
	return ws, true, nil
}

func (r seriesRow) decode() (WindowSeries, error) {
	var bars []model.Bar
	if err := json.Unmarshal([]byte(r.Data.String), &bars); err != nil {
		return WindowSeries{}, fmt.Errorf("decode bars: %w", err)
	}
	return WindowSeries{SeriesID: r.ID, Ticker: r.Ticker, Bars: bars}, nil
}

// SaveBatchResults persists both ranked tables of one batch.
func (s *Store) SaveBatchResults(batchID string, long, short []model.DealRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	for side, rows := range map[string][]model.DealRow{"long": long, "short": short} {
		for rank, row := range rows {
			encoded, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("encode deal row: %w", err)
			}
			if _, err := s.db.Exec(`
				INSERT INTO batch_results (batch_id, created_at, side, rank, security, series_id, row)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				batchID, now, side, rank+1, row.Security, row.SeriesID, string(encoded)); err != nil {
				return fmt.Errorf("insert batch result: %w", err)
			}
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	log.Println("[INFO] closing store")
	return s.db.Close()
}
