package trace

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"strideq/internal/sched"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		seq       INTEGER PRIMARY KEY AUTOINCREMENT,
		at        TEXT    NOT NULL,
		tick      INTEGER NOT NULL,
		kind      TEXT    NOT NULL,
		task_id   INTEGER NOT NULL,
		priority  INTEGER NOT NULL,
		pass      TEXT    NOT NULL,
		ran_ticks INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_task ON events(task_id, kind)`,
}

// SQLiteSink stores dispatcher events in a SQLite database so a run can be
// queried afterwards.
type SQLiteSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteSink opens (or creates) the database at dbPath and migrates it.
// Use ":memory:" in tests.
func NewSQLiteSink(ctx context.Context, dbPath string, logger *slog.Logger) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &SQLiteSink{
		db:     db,
		logger: logger.With("component", "trace", "path", dbPath),
	}, nil
}

func (s *SQLiteSink) Record(ctx context.Context, ev sched.StatusEvent) error {
	// pass is a full uint64 and does not fit SQLite's signed INTEGER
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (at, tick, kind, task_id, priority, pass, ran_ticks)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Time.Format(time.RFC3339Nano), ev.Tick, ev.Kind.String(),
		int64(ev.TaskID), ev.Priority, fmt.Sprint(ev.Pass), ev.RanTicks,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// DispatchCounts returns how often each task was dispatched.
func (s *SQLiteSink) DispatchCounts(ctx context.Context) (map[sched.TaskID]int64, error) {
	s.logger.Debug("sql", "op", "select", "table", "events")
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, COUNT(*) FROM events WHERE kind = ? GROUP BY task_id`,
		sched.StatusDispatch.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[sched.TaskID]int64)
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[sched.TaskID(id)] = n
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
