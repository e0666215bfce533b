package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// Pass is one recorded reconcile pass. Timestamps are unix seconds.
type Pass struct {
	ID         int64  `db:"id"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
	Lines      int    `db:"lines_seen"`
	Matched    int    `db:"matched"`
	Assumed    int    `db:"assumed_finished"`
	Error      string `db:"error"`
}

// Started returns the pass start time.
func (p Pass) Started() time.Time { return time.Unix(p.StartedAt, 0) }

// Finished returns the pass end time.
func (p Pass) Finished() time.Time { return time.Unix(p.FinishedAt, 0) }

// History records reconcile passes in a sqlite database. Purely additive, the
// reconcile engine never reads it back.
type History struct {
	db *sqlx.DB
}

// NewHistory opens (creating if needed) the history database.
func NewHistory(path string) (*History, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("can't open history db %s: %w", path, err)
	}

	// WAL keeps the single-writer case cheap
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("can't set WAL mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS passes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		lines_seen INTEGER DEFAULT 0,
		matched INTEGER DEFAULT 0,
		assumed_finished INTEGER DEFAULT 0,
		error TEXT DEFAULT ''
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("can't create history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Record inserts one pass row.
func (h *History) Record(p Pass) error {
	_, err := h.db.NamedExec(`INSERT INTO passes
		(started_at, finished_at, lines_seen, matched, assumed_finished, error)
		VALUES (:started_at, :finished_at, :lines_seen, :matched, :assumed_finished, :error)`, p)
	if err != nil {
		return fmt.Errorf("can't record pass: %w", err)
	}
	return nil
}

// Recent returns up to limit passes, newest first.
func (h *History) Recent(limit int) ([]Pass, error) {
	var res []Pass
	err := h.db.Select(&res, `SELECT id, started_at, finished_at, lines_seen, matched, assumed_finished, error
		FROM passes ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("can't load history: %w", err)
	}
	return res, nil
}

// Close closes the database.
func (h *History) Close() error { return h.db.Close() }
