package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists audit events in a SQLite database.
// Use ":memory:" for tests or a file path for persistent storage.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens the database and creates the schema when missing.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.initialize(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize audit schema: %w", err)
	}

	return r, nil
}

func (r *SQLiteRecorder) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		episode_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		at INTEGER NOT NULL,
		details TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_episode ON events(episode_id);
	CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
	`

	_, err := r.db.Exec(schema)

	return err
}

// Record appends one event.
func (r *SQLiteRecorder) Record(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := event.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO events (episode_id, event_type, at, details) VALUES (?, ?, ?, ?)",
		event.EpisodeID, string(event.Type), at.Unix(), event.Details,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	return nil
}

// ByEpisode returns the events recorded for one episode, oldest first.
func (r *SQLiteRecorder) ByEpisode(ctx context.Context, episodeID string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, episode_id, event_type, at, details FROM events WHERE episode_id = ? ORDER BY id",
		episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Recent returns up to limit most recent events, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, episode_id, event_type, at, details FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Close releases the database handle.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event

	for rows.Next() {
		var (
			event Event
			kind  string
			unix  int64
		)

		if err := rows.Scan(&event.ID, &event.EpisodeID, &kind, &unix, &event.Details); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Type = EventType(kind)
		event.At = time.Unix(unix, 0)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}
