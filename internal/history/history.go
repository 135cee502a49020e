package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps the sync run log in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("could not create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)

	if err != nil {
		return nil, fmt.Errorf("could not open history database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize history schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_runs (
		run_id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		posts INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
	`

	_, err := s.db.Exec(schema)

	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts run, assigning it an id when it has none.
func (s *Store) Record(run *entity.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	query := `
		INSERT INTO sync_runs (
			run_id, mode, source, outcome, posts, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.ID.String(),
		run.Mode,
		run.Source,
		run.Outcome,
		run.Posts,
		run.Error,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
	)

	if err != nil {
		return fmt.Errorf("could not insert sync run: %w", err)
	}

	return nil
}

// List returns up to limit runs, most recent first. A non-positive limit
// returns every run.
func (s *Store) List(limit int) ([]entity.Run, error) {
	query := `
		SELECT run_id, mode, source, outcome, posts, error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC
	`

	var args []any

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)

	if err != nil {
		return nil, fmt.Errorf("could not query sync runs: %w", err)
	}

	defer rows.Close()

	var runs []entity.Run

	for rows.Next() {
		var run entity.Run
		var id, startedAt, finishedAt string

		if err := rows.Scan(&id, &run.Mode, &run.Source, &run.Outcome, &run.Posts, &run.Error, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("could not scan sync run: %w", err)
		}

		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", id, err)
		}

		if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
		}

		if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
			return nil, fmt.Errorf("invalid finished_at %q: %w", finishedAt, err)
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}
