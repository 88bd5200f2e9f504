package replay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// sqliteStore implements SessionStore on top of a SQLite database,
// adapted from a store whose schema and PRAGMAs were built around a
// fixed-tag log record; here the single "frames" table carries an
// arbitrary-length wire blob and a loss flag instead of MAC tags.
type sqliteStore struct{ db *sql.DB }

// OpenSQLiteStore opens or creates a SQLite-backed session store at
// dsn, a database/sql data source name understood by modernc.org/sqlite
// (a plain file path, or "file::memory:?cache=shared" for an in-memory
// session used only within one test).
func OpenSQLiteStore(dsn string) (SessionStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("replay: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("replay: ping sqlite: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("replay: set %s: %w", pragma, err)
		}
	}
	schema := `
CREATE TABLE IF NOT EXISTS frames (
  idx  INTEGER PRIMARY KEY,
  lost INTEGER NOT NULL,
  data BLOB    NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("replay: create schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

// Append implements SessionStore.
func (s *sqliteStore) Append(fr Frame) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	lost := 0
	if fr.Lost {
		lost = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO frames(idx, lost, data) VALUES(?, ?, ?)`,
		fr.Index, lost, fr.Data)
	if err != nil {
		return fmt.Errorf("replay: insert frame: %w", err)
	}
	return nil
}

// Iter implements SessionStore.
func (s *sqliteStore) Iter(startIndex int64) (<-chan Frame, func() error, error) {
	ctx, cancel := context.WithCancel(context.Background())
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, lost, data FROM frames WHERE idx >= ? ORDER BY idx ASC`, startIndex)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("replay: query frames: %w", err)
	}

	out := make(chan Frame, 64)
	go func() {
		defer close(out)
		defer rows.Close()
		defer cancel()
		for rows.Next() {
			var idx int64
			var lost int
			var data []byte
			if err := rows.Scan(&idx, &lost, &data); err != nil {
				return
			}
			select {
			case out <- Frame{Index: idx, Lost: lost != 0, Data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	cleanup := func() error {
		cancel()
		return nil
	}
	return out, cleanup, nil
}

// Close implements SessionStore.
func (s *sqliteStore) Close() error {
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("replay: close sqlite: %w", err)
	}
	return nil
}
