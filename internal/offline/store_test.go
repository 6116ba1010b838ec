package offline

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/courses/internal/category"
	"github.com/teemow/courses/internal/shopping"
)

func TestSQLiteStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "queue.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)

	create, err := NewCreateItem("temp_1", "list-1", shopping.NewItem{Name: "Pain", Quantity: "2"})
	require.NoError(t, err)
	first, err := store.Append(ctx, create)
	require.NoError(t, err)
	second, err := store.Append(ctx, NewDeleteItem("item-9"))
	require.NoError(t, err)
	assert.Greater(t, second.Seq, first.Seq)
	assert.False(t, first.EnqueuedAt.IsZero())
	require.NoError(t, store.Close())

	store, err = OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.Seq, pending[0].Seq)
	assert.Equal(t, ActionCreateItem, pending[0].Action)
	assert.Equal(t, "list-1", pending[0].ListID)
	assert.Equal(t, "temp_1", pending[0].ItemID)
	assert.JSONEq(t, `{"name":"Pain","quantity":"2"}`, string(pending[0].Payload))
	assert.True(t, first.EnqueuedAt.Equal(pending[0].EnqueuedAt))
	assert.Equal(t, ActionDeleteItem, pending[1].Action)
	assert.Nil(t, pending[1].Payload)

	require.NoError(t, store.Remove(ctx, second.Seq))
	third, err := store.Append(ctx, NewDeleteItem("item-10"))
	require.NoError(t, err)
	assert.Greater(t, third.Seq, second.Seq, "sequence numbers are never reused")

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStore_Resolve(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	create, err := NewCreateItem("temp_1", "list-1", shopping.NewItem{Name: "Pain"})
	require.NoError(t, err)
	created, err := store.Append(ctx, create)
	require.NoError(t, err)
	update, err := NewUpdateItem("temp_1", shopping.ItemPatch{Completed: shopping.Bool(true)})
	require.NoError(t, err)
	_, err = store.Append(ctx, update)
	require.NoError(t, err)
	_, err = store.Append(ctx, NewDeleteItem("other"))
	require.NoError(t, err)

	require.NoError(t, store.Resolve(ctx, created.Seq, "temp_1", "srv-1"))

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "srv-1", pending[0].ItemID)
	assert.Equal(t, "other", pending[1].ItemID)
}

func TestSQLiteStore_RemoveItem(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	for _, id := range []string{"a", "b", "a"} {
		_, err := store.Append(ctx, NewDeleteItem(id))
		require.NoError(t, err)
	}

	n, err := store.RemoveItem(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ItemID)
}

func TestMutation_JSON(t *testing.T) {
	m, err := NewUpdateItem("item-1", shopping.ItemPatch{Name: shopping.String("Lait")})
	require.NoError(t, err)
	m.Seq = 4

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":"updateItem"`)
	assert.Contains(t, string(data), `"data":{"name":"Lait"}`)

	assert.True(t, IsTempID(NewTempID()))
	assert.False(t, IsTempID("item-1"))
}

func TestSQLiteStore_RemoveItemBefore(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	var seqs []int64
	for _, id := range []string{"a", "b", "a", "a"} {
		m, err := store.Append(ctx, NewDeleteItem(id))
		require.NoError(t, err)
		seqs = append(seqs, m.Seq)
	}

	n, err := store.RemoveItemBefore(ctx, "a", seqs[3])
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].ItemID)
	assert.Equal(t, seqs[3], pending[1].Seq)
}

func TestSQLiteStore_Cache(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Lists, "nothing cached yet")
	assert.Empty(t, snap.Items)

	lists := []shopping.List{{ID: "l1", Name: "Courses", ItemsCount: 1}}
	items := []shopping.Item{{ID: "i1", ListID: "l1", Name: "Lait", Quantity: "2 l", Category: category.Dairy}}
	require.NoError(t, store.SaveLists(ctx, lists))
	require.NoError(t, store.SaveItems(ctx, "l1", items))
	require.NoError(t, store.SaveItems(ctx, "l2", nil))
	require.NoError(t, store.SaveItems(ctx, "l3", items))
	require.NoError(t, store.DropItems(ctx, "l3"))

	// Overwrites keep one entry per key.
	items[0].Completed = true
	require.NoError(t, store.SaveItems(ctx, "l1", items))
	require.NoError(t, store.Close())

	store, err = OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	snap, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, lists, snap.Lists)
	assert.Equal(t, map[string][]shopping.Item{
		"l1": items,
		"l2": {},
	}, snap.Items)
}
