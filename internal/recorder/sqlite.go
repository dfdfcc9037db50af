package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"QuoteTrack/internal/model"
)

// SQLiteRecorder persists summaries and failures to a local SQLite file.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (creating if needed) the database at path and
// runs migrations.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS summaries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	recorded_at TIMESTAMP NOT NULL,
	symbol TEXT NOT NULL,
	min REAL,
	max REAL,
	moving_avg REAL,
	last_close REAL,
	pct_change REAL,
	samples INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS failures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	recorded_at TIMESTAMP NOT NULL,
	symbol TEXT NOT NULL,
	reason TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_summaries_run ON summaries(run_id);
CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordSummary(runID string, s model.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT INTO summaries (run_id, recorded_at, symbol, min, max, moving_avg, last_close, pct_change, samples)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), string(s.Symbol),
		nullable(s.Min), nullable(s.Max), nullable(s.MovingAverage),
		nullable(s.LastClose), nullable(s.PctChange), s.SampleCount,
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordFailure(runID string, symbol model.Symbol, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT INTO failures (run_id, recorded_at, symbol, reason) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UTC(), string(symbol), reason,
	)
	if err != nil {
		return fmt.Errorf("insert failure: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

// nullable maps undefined statistics to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
