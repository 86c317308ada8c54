package subscribe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrDuplicate is returned by Insert when the email is already stored.
var ErrDuplicate = errors.New("subscriber already exists")

const schema = `
CREATE TABLE IF NOT EXISTS subscribers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE COLLATE NOCASE,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_subscribers_created_at ON subscribers(created_at);
`

// Subscriber is one stored newsletter signup.
type Subscriber struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists subscribers.
type Store interface {
	Exists(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, s Subscriber) error
	List(ctx context.Context) ([]Subscriber, error)
}

// SQLiteStore keeps subscribers in a SQLite database.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("init schema: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *SQLiteStore) Exists(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.conn.QueryRowContext(ctx, `SELECT 1 FROM subscribers WHERE email = ? LIMIT 1`, email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check subscriber: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, sub Subscriber) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO subscribers (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		sub.ID, sub.Name, sub.Email, sub.CreatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

// List returns every subscriber, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, email, created_at FROM subscribers ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	out := []Subscriber{}
	for rows.Next() {
		var sub Subscriber
		var created int64
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Email, &created); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		sub.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sub)
	}
	return out, rows.Err()
}
