package offline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists the mutation log.
type Store interface {
	// Append stores m and returns it with Seq and EnqueuedAt set. The entry
	// is durable once Append returns.
	Append(ctx context.Context, m Mutation) (Mutation, error)
	// Pending returns every entry in sequence order.
	Pending(ctx context.Context) ([]Mutation, error)
	Count(ctx context.Context) (int, error)
	Remove(ctx context.Context, seq int64) error
	// Resolve removes entry seq and points every remaining entry for tempID
	// at itemID, atomically.
	Resolve(ctx context.Context, seq int64, tempID, itemID string) error
	// RemoveItem removes every entry for itemID.
	RemoveItem(ctx context.Context, itemID string) (int, error)
	// RemoveItemBefore removes the entries for itemID older than seq.
	RemoveItemBefore(ctx context.Context, itemID string, seq int64) (int, error)
	Close() error
}

// SQLiteStore keeps the mutation log and the session cache in one SQLite
// database file.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Cache = (*SQLiteStore)(nil)
)

const schema = `
	CREATE TABLE IF NOT EXISTS mutations (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		list_id TEXT NOT NULL DEFAULT '',
		item_id TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL DEFAULT '',
		enqueued_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_mutations_item ON mutations(item_id);

	CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
`

// OpenSQLite opens or creates the log at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create queue directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}
	// One writer keeps sequence assignment and Resolve serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize queue database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, m Mutation) (Mutation, error) {
	m.EnqueuedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO mutations (action, list_id, item_id, payload, enqueued_at) VALUES (?, ?, ?, ?, ?)`,
		string(m.Action), m.ListID, m.ItemID, string(m.Payload), m.EnqueuedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Mutation{}, fmt.Errorf("failed to append mutation: %w", err)
	}
	m.Seq, err = res.LastInsertId()
	if err != nil {
		return Mutation{}, fmt.Errorf("failed to read mutation sequence: %w", err)
	}
	return m, nil
}

// Pending implements Store.
func (s *SQLiteStore) Pending(ctx context.Context) ([]Mutation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, action, list_id, item_id, payload, enqueued_at FROM mutations ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read mutations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Mutation
	for rows.Next() {
		var (
			m          Mutation
			action     string
			payload    string
			enqueuedAt string
		)
		if err := rows.Scan(&m.Seq, &action, &m.ListID, &m.ItemID, &payload, &enqueuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}
		m.Action = Action(action)
		if payload != "" {
			m.Payload = []byte(payload)
		}
		m.EnqueuedAt, _ = time.Parse(time.RFC3339Nano, enqueuedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mutations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count mutations: %w", err)
	}
	return n, nil
}

// Remove implements Store. Removing a missing entry is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, seq int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM mutations WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("failed to remove mutation %d: %w", seq, err)
	}
	return nil
}

// Resolve implements Store.
func (s *SQLiteStore) Resolve(ctx context.Context, seq int64, tempID, itemID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mutations WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("failed to remove mutation %d: %w", seq, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE mutations SET item_id = ? WHERE item_id = ?`, itemID, tempID); err != nil {
		return fmt.Errorf("failed to rewrite item id %s: %w", tempID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RemoveItem implements Store.
func (s *SQLiteStore) RemoveItem(ctx context.Context, itemID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mutations WHERE item_id = ?`, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove mutations for item %s: %w", itemID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed mutations: %w", err)
	}
	return int(n), nil
}

// RemoveItemBefore implements Store.
func (s *SQLiteStore) RemoveItemBefore(ctx context.Context, itemID string, seq int64) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mutations WHERE item_id = ? AND seq < ?`, itemID, seq)
	if err != nil {
		return 0, fmt.Errorf("failed to remove mutations for item %s: %w", itemID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed mutations: %w", err)
	}
	return int(n), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
