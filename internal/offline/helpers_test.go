package offline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teemow/courses/internal/calstore"
	"github.com/teemow/courses/internal/logging"
	"github.com/teemow/courses/internal/shopping"
)

// remote is a shopping service over an in-memory store that can be switched
// offline, made to fail updates that rename an item to failName, or made to
// fail deletions with deleteErr.
type remote struct {
	shopping.Service
	offline   bool
	failName  string
	deleteErr error
}

func (r *remote) unreachable() error {
	if r.offline {
		return fmt.Errorf("%w: connection refused", shopping.ErrStoreUnavailable)
	}
	return nil
}

func (r *remote) ListLists(ctx context.Context) ([]shopping.List, error) {
	if err := r.unreachable(); err != nil {
		return nil, err
	}
	return r.Service.ListLists(ctx)
}

func (r *remote) ListItems(ctx context.Context, listID string) ([]shopping.Item, error) {
	if err := r.unreachable(); err != nil {
		return nil, err
	}
	return r.Service.ListItems(ctx, listID)
}

func (r *remote) CreateItem(ctx context.Context, listID string, in shopping.NewItem) (shopping.Item, error) {
	if err := r.unreachable(); err != nil {
		return shopping.Item{}, err
	}
	return r.Service.CreateItem(ctx, listID, in)
}

func (r *remote) UpdateItem(ctx context.Context, id string, patch shopping.ItemPatch) (shopping.Item, error) {
	if err := r.unreachable(); err != nil {
		return shopping.Item{}, err
	}
	if r.failName != "" && patch.Name != nil && *patch.Name == r.failName {
		return shopping.Item{}, fmt.Errorf("%w: gateway timeout", shopping.ErrStoreUnavailable)
	}
	return r.Service.UpdateItem(ctx, id, patch)
}

func (r *remote) DeleteItem(ctx context.Context, id string) error {
	if err := r.unreachable(); err != nil {
		return err
	}
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.Service.DeleteItem(ctx, id)
}

// newRemote returns a remote with one empty list, and a context bound to
// its principal.
func newRemote() (*remote, context.Context, string) {
	mem := calstore.NewMemory()
	listID := mem.AddCalendar("alice", calstore.Calendar{
		DisplayName: "Courses",
		Components:  []string{calstore.ComponentTodo},
	}).ID
	adapter := shopping.NewAdapter(mem, shopping.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return &remote{Service: adapter}, shopping.WithPrincipal(context.Background(), "alice"), listID
}

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newQueue(t *testing.T, opts ...QueueOption) *Queue {
	t.Helper()
	opts = append([]QueueOption{WithLogger(logging.Discard())}, opts...)
	return NewQueue(openStore(t), opts...)
}

func enqueue(t *testing.T, q *Queue, m Mutation, err error) Mutation {
	t.Helper()
	require.NoError(t, err)
	stored, err := q.Enqueue(context.Background(), m)
	require.NoError(t, err)
	return stored
}

func itemNamed(t *testing.T, items []shopping.Item, name string) shopping.Item {
	t.Helper()
	for _, item := range items {
		if item.Name == name {
			return item
		}
	}
	t.Fatalf("no item named %q in %v", name, items)
	return shopping.Item{}
}
