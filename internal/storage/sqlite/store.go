package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store keeps the API session cookies on disk so a restarted client stays
// signed in.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o700)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session_cookies (
            host TEXT NOT NULL,
            name TEXT NOT NULL,
            value TEXT NOT NULL,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (host, name)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_session_cookies_host ON session_cookies(host);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// LoadCookies returns the cookies saved for host ordered by name.
func (s *Store) LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM session_cookies WHERE host = ? ORDER BY name`, host)
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		c := &http.Cookie{Path: "/"}
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, fmt.Errorf("scan cookie: %w", err)
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// SaveCookies replaces the cookie set of host. An empty set clears it, which
// is what a sign-out produces.
func (s *Store) SaveCookies(ctx context.Context, host string, cookies []*http.Cookie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_cookies WHERE host = ?`, host); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	for _, c := range cookies {
		if _, err := tx.ExecContext(ctx, `INSERT INTO session_cookies(host, name, value) VALUES(?, ?, ?)`, host, c.Name, c.Value); err != nil {
			return fmt.Errorf("insert cookie %s: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cookies: %w", err)
	}

	s.logger.Debug("session cookies saved", slog.String("host", host), slog.Int("count", len(cookies)))
	return nil
}
