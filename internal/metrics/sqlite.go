package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/udaytamma/AiEmailAssistant/model"

	_ "modernc.org/sqlite"
)

const writeTimeout = 5 * time.Second

// SQLite is a Sink that keeps Counters and appends every measurement to a SQLite database.
// Write failures are logged and otherwise ignored.
type SQLite struct {
	*Counters
	conn   *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (and if needed creates) the metrics database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open metrics database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &SQLite{Counters: NewCounters(), conn: conn, logger: logger}
	if err = s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init metrics schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		fetched INTEGER NOT NULL,
		new_items INTEGER NOT NULL,
		cached_items INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error_message TEXT
	);

	CREATE TABLE IF NOT EXISTS api_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at DATETIME NOT NULL,
		api TEXT NOT NULL,
		op TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error_message TEXT
	);

	CREATE TABLE IF NOT EXISTS cache_ops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at DATETIME NOT NULL,
		op TEXT NOT NULL,
		hit INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at DATETIME NOT NULL,
		item_id TEXT NOT NULL,
		category TEXT NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at DATETIME NOT NULL,
		module TEXT NOT NULL,
		message TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_api_calls_at ON api_calls(at);
	CREATE INDEX IF NOT EXISTS idx_errors_at ON errors(at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLite) APICall(api, op string, elapsed time.Duration, err error) {
	s.Counters.APICall(api, op, elapsed, err)
	s.exec("insert api call",
		`INSERT INTO api_calls (at, api, op, duration_ms, success, error_message) VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), api, op, elapsed.Milliseconds(), err == nil, errMessage(err))
}

func (s *SQLite) CacheOp(op string, hit bool) {
	s.Counters.CacheOp(op, hit)
	s.exec("insert cache op",
		`INSERT INTO cache_ops (at, op, hit) VALUES (?, ?, ?)`,
		time.Now().UTC(), op, hit)
}

func (s *SQLite) ItemProcessed(id string, category model.Category, elapsed time.Duration) {
	s.Counters.ItemProcessed(id, category, elapsed)
	s.exec("insert item",
		`INSERT INTO items (at, item_id, category, duration_ms) VALUES (?, ?, ?, ?)`,
		time.Now().UTC(), id, string(category), elapsed.Milliseconds())
}

func (s *SQLite) Error(module string, err error) {
	s.Counters.Error(module, err)
	s.exec("insert error",
		`INSERT INTO errors (at, module, message) VALUES (?, ?, ?)`,
		time.Now().UTC(), module, errMessage(err))
}

func (s *SQLite) RunFinished(run Run) {
	s.Counters.RunFinished(run)
	s.exec("insert run",
		`INSERT OR REPLACE INTO runs (id, started_at, duration_ms, fetched, new_items, cached_items, errors, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.Duration.Milliseconds(), run.Fetched, run.New, run.Cached, run.Errors,
		run.Err == nil, errMessage(run.Err))
}

// RunCount returns how many runs were recorded, optionally only the successful ones.
func (s *SQLite) RunCount(ctx context.Context, successfulOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM runs`
	if successfulOnly {
		query += ` WHERE success = 1`
	}
	var n int
	if err := s.conn.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

func (s *SQLite) exec(what, query string, args ...any) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		s.logger.Warn("metrics write failed", "op", what, "err", err)
	}
}

func errMessage(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}
