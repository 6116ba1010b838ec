package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/courses/internal/shopping"
)

// Cache persists the last known lists and items of a session so reads can
// be served while the server is unreachable, across process restarts.
type Cache interface {
	// Load returns everything cached. Snapshot.Lists is nil when lists were
	// never cached.
	Load(ctx context.Context) (Snapshot, error)
	SaveLists(ctx context.Context, lists []shopping.List) error
	SaveItems(ctx context.Context, listID string, items []shopping.Item) error
	DropItems(ctx context.Context, listID string) error
}

// Snapshot is the cached state of a session.
type Snapshot struct {
	Lists []shopping.List
	Items map[string][]shopping.Item
}

const (
	cacheKeyLists       = "lists"
	cacheKeyItemsPrefix = "items:"
)

// Load implements Cache.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM cache`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read cache: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := Snapshot{Items: make(map[string][]shopping.Item)}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Snapshot{}, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		switch {
		case key == cacheKeyLists:
			lists := []shopping.List{}
			if err := json.Unmarshal([]byte(value), &lists); err != nil {
				return Snapshot{}, fmt.Errorf("failed to decode cached lists: %w", err)
			}
			snap.Lists = lists
		case strings.HasPrefix(key, cacheKeyItemsPrefix):
			items := []shopping.Item{}
			if err := json.Unmarshal([]byte(value), &items); err != nil {
				return Snapshot{}, fmt.Errorf("failed to decode cached items for %s: %w", key, err)
			}
			snap.Items[strings.TrimPrefix(key, cacheKeyItemsPrefix)] = items
		}
	}
	return snap, rows.Err()
}

// SaveLists implements Cache.
func (s *SQLiteStore) SaveLists(ctx context.Context, lists []shopping.List) error {
	if lists == nil {
		lists = []shopping.List{}
	}
	return s.put(ctx, cacheKeyLists, lists)
}

// SaveItems implements Cache.
func (s *SQLiteStore) SaveItems(ctx context.Context, listID string, items []shopping.Item) error {
	if items == nil {
		items = []shopping.Item{}
	}
	return s.put(ctx, cacheKeyItemsPrefix+listID, items)
}

// DropItems implements Cache.
func (s *SQLiteStore) DropItems(ctx context.Context, listID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, cacheKeyItemsPrefix+listID); err != nil {
		return fmt.Errorf("failed to drop cached items for %s: %w", listID, err)
	}
	return nil
}

func (s *SQLiteStore) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cache (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}
