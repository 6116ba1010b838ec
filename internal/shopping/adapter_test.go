package shopping

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/courses/internal/calstore"
	"github.com/teemow/courses/internal/category"
)

const alice = "alice"

// faultyStore wraps the in-memory store with failure injection.
type faultyStore struct {
	*calstore.Memory
	listErr      error
	searchErr    map[string]error
	extra        map[string][]calstore.Object
	beforeUpdate func()
	searches     int
}

func (s *faultyStore) ListCalendars(ctx context.Context, principal string) ([]calstore.Calendar, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.Memory.ListCalendars(ctx, principal)
}

func (s *faultyStore) SearchTasks(ctx context.Context, principal, calendarID string) ([]calstore.Object, error) {
	s.searches++
	if err := s.searchErr[calendarID]; err != nil {
		return nil, err
	}
	objs, err := s.Memory.SearchTasks(ctx, principal, calendarID)
	if err != nil {
		return nil, err
	}
	return append(objs, s.extra[calendarID]...), nil
}

func (s *faultyStore) UpdateTask(ctx context.Context, principal, calendarID, objectID, body, ifMatch string) (calstore.Object, error) {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}
	return s.Memory.UpdateTask(ctx, principal, calendarID, objectID, body, ifMatch)
}

func newTestAdapter() (*Adapter, *faultyStore, context.Context) {
	store := &faultyStore{
		Memory:    calstore.NewMemory(),
		searchErr: make(map[string]error),
		extra:     make(map[string][]calstore.Object),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAdapter(store, WithLogger(logger)), store, WithPrincipal(context.Background(), alice)
}

func addList(store *faultyStore, name string) string {
	return store.AddCalendar(alice, calstore.Calendar{
		DisplayName: name,
		Components:  []string{calstore.ComponentTodo},
	}).ID
}

func mustCreate(t *testing.T, a *Adapter, ctx context.Context, listID, name string) Item {
	t.Helper()
	item, err := a.CreateItem(ctx, listID, NewItem{Name: name})
	require.NoError(t, err)
	return item
}

func TestAdapter_ListLists_HidesEmptyLists(t *testing.T) {
	a, store, ctx := newTestAdapter()

	full := addList(store, "Courses")
	empty := addList(store, "Vide")
	store.AddCalendar(alice, calstore.Calendar{DisplayName: "Agenda", Components: []string{"VEVENT"}})
	shared := store.AddCalendar(alice, calstore.Calendar{
		DisplayName: "Famille",
		Components:  []string{calstore.ComponentTodo},
		Shares:      []calstore.Share{{Principal: "bob"}},
	}).ID

	mustCreate(t, a, ctx, full, "Lait")
	mustCreate(t, a, ctx, full, "Pain")
	mustCreate(t, a, ctx, shared, "Oeufs")

	lists, err := a.ListLists(ctx)
	require.NoError(t, err)
	assert.Equal(t, []List{
		{ID: full, Name: "Courses", ItemsCount: 2},
		{ID: shared, Name: "Famille", ItemsCount: 1, Shared: true},
	}, lists)
	for _, l := range lists {
		assert.NotEqual(t, empty, l.ID)
	}
}

func TestAdapter_ListLists_OtherPrincipal(t *testing.T) {
	a, store, ctx := newTestAdapter()
	mustCreate(t, a, ctx, addList(store, "Courses"), "Lait")

	lists, err := a.ListLists(WithPrincipal(context.Background(), "bob"))
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestAdapter_Unauthenticated(t *testing.T) {
	a, store, _ := newTestAdapter()
	listID := addList(store, "Courses")

	for _, ctx := range []context.Context{context.Background(), WithPrincipal(context.Background(), "  ")} {
		_, err := a.ListLists(ctx)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		_, err = a.ListItems(ctx, listID)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		_, err = a.CreateItem(ctx, listID, NewItem{Name: "Lait"})
		assert.ErrorIs(t, err, ErrUnauthenticated)
		_, err = a.UpdateItem(ctx, "x", ItemPatch{Completed: Bool(true)})
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.ErrorIs(t, a.DeleteItem(ctx, "x"), ErrUnauthenticated)
		_, err = a.CreateList(ctx, "Marché")
		assert.ErrorIs(t, err, ErrUnauthenticated)
		_, err = a.RenameList(ctx, listID, "Marché")
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.ErrorIs(t, a.DeleteList(ctx, listID), ErrUnauthenticated)
		_, err = a.FrequentItems(ctx)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	}
}

func TestAdapter_ListItems_NotFound(t *testing.T) {
	a, store, ctx := newTestAdapter()
	events := store.AddCalendar(alice, calstore.Calendar{DisplayName: "Agenda", Components: []string{"VEVENT"}}).ID

	_, err := a.ListItems(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = a.ListItems(ctx, events)
	assert.ErrorIs(t, err, ErrNotFound, "calendars without tasks are not lists")
}

func TestAdapter_CreateItem(t *testing.T) {
	a, store, ctx := newTestAdapter()
	listID := addList(store, "Courses")

	item, err := a.CreateItem(ctx, listID, NewItem{Name: "  Lait  ", Quantity: "2kg", Category: "dairy"})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, Item{
		ID:       item.ID,
		ListID:   listID,
		Name:     "Lait",
		Quantity: "2kg",
		Category: category.Dairy,
	}, item)

	objs, err := store.Memory.SearchTasks(ctx, alice, listID)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Contains(t, objs[0].Body, "SUMMARY:Lait\r\n")
	assert.Contains(t, objs[0].Body, "DESCRIPTION:Quantité: 2kg\r\n")
	assert.Contains(t, objs[0].Body, "CATEGORIES:Produits laitiers\r\n")
	assert.Contains(t, objs[0].Body, "STATUS:NEEDS-ACTION\r\n")

	items, err := a.ListItems(ctx, listID)
	require.NoError(t, err)
	assert.Equal(t, []Item{item}, items)
}

func TestAdapter_CreateItem_InfersCategory(t *testing.T) {
	a, store, ctx := newTestAdapter()
	listID := addList(store, "Courses")

	tests := []struct {
		name string
		want category.ID
	}{
		{name: "Lait demi-écrémé", want: category.Dairy},
		{name: "Tournevis", want: category.Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := a.CreateItem(ctx, listID, NewItem{Name: tt.name})
			require.NoError(t, err)
			assert.Equal(t, tt.want, item.Category)
		})
	}

	objs, err := store.Memory.SearchTasks(ctx, alice, listID)
	require.NoError(t, err)
	for _, obj := range objs {
		assert.NotContains(t, obj.Body, "CATEGORIES")
		assert.NotContains(t, obj.Body, "DESCRIPTION")
	}
}

func TestAdapter_CreateItem_Errors(t *testing.T) {
	a, store, ctx := newTestAdapter()
	listID := addList(store, "Courses")

	_, err := a.CreateItem(ctx, listID, NewItem{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = a.CreateItem(ctx, "missing", NewItem{Name: "Lait"})
	assert.ErrorIs(t, err, ErrNotFound)

	store.listErr = errors.New("connection refused")
	_, err = a.CreateItem(ctx, listID, NewItem{Name: "Lait"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestAdapter_UpdateItem_AcrossCalendars(t *testing.T) {
	a, store, ctx := newTestAdapter()
	first := addList(store, "Courses")
	second := addList(store, "Marché")
	mustCreate(t, a, ctx, first, "Pain")
	tomatoes := mustCreate(t, a, ctx, second, "Tomates")

	// A fresh adapter has an empty index and must scan.
	fresh := NewAdapter(store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	updated, err := fresh.UpdateItem(ctx, tomatoes.ID, ItemPatch{Completed: Bool(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, second, updated.ListID)
	assert.Equal(t, "Tomates", updated.Name)

	items, err := a.ListItems(ctx, second)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Completed)

	reopened, err := fresh.UpdateItem(ctx, tomatoes.ID, ItemPatch{Completed: Bool(false)})
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
}

func TestAdapter_UpdateItem_PreservesUnknownLines(t *testing.T) {
	a, store, ctx := newTestAdapter()
	listID := addList(store, "Courses")

	body := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//Other client//EN\r\n" +
		"BEGIN:VTODO\r\n" +
		"UID:lait-1\r\n" +
		"DTSTAMP:20240101T100000Z\r\n" +
		"SUMMARY:Lait\r\n" +
		"X-CUSTOM:foo\r\n" +
		"DESCRIPTION:Quantité: 2L\\nbio\r\n" +
		"STATUS:NEEDS-ACTION\r\n" +
		"BEGIN:VALARM\r\n" +
		"ACTION:DISPLAY\r\n" +
		"DESCRIPTION:Reminder\r\n" +
		"TRIGGER:-PT15M\r\n" +
		"END:VALARM\r\n" +
		"END:VTODO\r\n" +
		"END:VCALENDAR\r\n"
	_, err := store.CreateTask(ctx, alice, listID, body)
	require.NoError(t, err)

	item, err := a.UpdateItem(ctx, "lait-1", ItemPatch{
		Name:     String("Lait entier"),
		Quantity: String("1L"),
		Category: String("grocery"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Lait entier", item.Name)
	assert.Equal(t, "1L", item.Quantity)
	assert.Equal(t, category.Grocery, item.Category)
	assert.False(t, item.Completed)

	objs, err := store.Memory.SearchTasks(ctx, alice, listID)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	got := objs[0].Body
	assert.Contains(t, got, "PRODID:-//Other client//EN\r\n")
	assert.Contains(t, got, "SUMMARY:Lait entier\r\nX-CUSTOM:foo\r\nDESCRIPTION:Quantité: 1L\\nbio\r\n")
	assert.Contains(t, got, "CATEGORIES:Épicerie\r\n")
	assert.Contains(t, got, "BEGIN:VALARM\r\nACTION:DISPLAY\r\nDESCRIPTION:Reminder\r\nTRIGGER:-PT15M\r\nEND:VALARM\r\n")
}

func TestAdapter_UpdateItem_Conflict(t *testing.T) {
	a, store, ctx := newTestAdapter()
	listID := addList(store, "Courses")
	item := mustCreate(t, a, ctx, listID, "Lait")

	store.beforeUpdate = func() {
		store.beforeUpdate = nil
		objs, err := store.Memory.SearchTasks(ctx, alice, listID)
		require.NoError(t, err)
		changed := strings.Replace(objs[0].Body, "SUMMARY:Lait", "SUMMARY:Lait bio", 1)
		_, err = store.Memory.UpdateTask(ctx, alice, listID, item.ID, changed, "")
		require.NoError(t, err)
	}

	_, err := a.UpdateItem(ctx, item.ID, ItemPatch{Completed: Bool(true)})
	assert.ErrorIs(t, err, ErrConflict)

	// The concurrent change wins and a retry applies on top of it.
	updated, err := a.UpdateItem(ctx, item.ID, ItemPatch{Completed: Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, "Lait bio", updated.Name)
	assert.True(t, updated.Completed)
}

func TestAdapter_UpdateItem_Errors(t *testing.T) {
	a, store, ctx := newTestAdapter()
	listID := addList(store, "Courses")
	item := mustCreate(t, a, ctx, listID, "Lait")

	_, err := a.UpdateItem(ctx, "missing", ItemPatch{Completed: Bool(true)})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = a.UpdateItem(ctx, item.ID, ItemPatch{Name: String("")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdapter_UpdateItem_UsesIndex(t *testing.T) {
	a, store, ctx := newTestAdapter()
	first := addList(store, "Courses")
	second := addList(store, "Marché")
	mustCreate(t, a, ctx, first, "Pain")
	tomatoes := mustCreate(t, a, ctx, second, "Tomates")

	_, err := a.ListLists(ctx)
	require.NoError(t, err)

	store.searches = 0
	_, err = a.UpdateItem(ctx, tomatoes.ID, ItemPatch{Completed: Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, store.searches, "only the indexed calendar is searched")
}

func TestAdapter_UpdateItem_StaleIndex(t *testing.T) {
	a, store, ctx := newTestAdapter()
	first := addList(store, "Courses")
	second := addList(store, "Marché")
	item := mustCreate(t, a, ctx, first, "Pain")

	// Move the object behind the adapter's back.
	objs, err := store.Memory.SearchTasks(ctx, alice, first)
	require.NoError(t, err)
	require.NoError(t, store.Memory.DeleteTask(ctx, alice, first, item.ID))
	_, err = store.Memory.CreateTask(ctx, alice, second, objs[0].Body)
	require.NoError(t, err)

	updated, err := a.UpdateItem(ctx, item.ID, ItemPatch{Completed: Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, second, updated.ListID)
}

func TestAdapter_DeleteItem(t *testing.T) {
	a, store, ctx := newTestAdapter()
	listID := addList(store, "Courses")
	keep := mustCreate(t, a, ctx, listID, "Pain")
	drop := mustCreate(t, a, ctx, listID, "Lait")

	require.NoError(t, a.DeleteItem(ctx, drop.ID))
	assert.ErrorIs(t, a.DeleteItem(ctx, drop.ID), ErrNotFound)

	items, err := a.ListItems(ctx, listID)
	require.NoError(t, err)
	assert.Equal(t, []Item{keep}, items)

	fresh := NewAdapter(store)
	require.NoError(t, fresh.DeleteItem(ctx, keep.ID))
	assert.ErrorIs(t, fresh.DeleteItem(ctx, keep.ID), ErrNotFound)
}

func TestAdapter_ListLists_Degrades(t *testing.T) {
	a, store, ctx := newTestAdapter()
	healthy := addList(store, "Courses")
	broken := addList(store, "Marché")
	mustCreate(t, a, ctx, healthy, "Pain")
	mustCreate(t, a, ctx, broken, "Tomates")

	store.searchErr[broken] = errors.New("timeout")
	lists, err := a.ListLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, healthy, lists[0].ID)

	store.listErr = errors.New("connection refused")
	lists, err = a.ListLists(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists)
	assert.NotNil(t, lists)
}

func TestAdapter_ListLists_Canceled(t *testing.T) {
	a, store, ctx := newTestAdapter()
	mustCreate(t, a, ctx, addList(store, "Courses"), "Pain")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := a.ListLists(canceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdapter_ListItems_Degrades(t *testing.T) {
	a, store, ctx := newTestAdapter()
	listID := addList(store, "Courses")
	pain := mustCreate(t, a, ctx, listID, "Pain")

	store.extra[listID] = []calstore.Object{{ID: "junk", CalendarID: listID, Body: "not a record"}}
	items, err := a.ListItems(ctx, listID)
	require.NoError(t, err)
	assert.Equal(t, []Item{pain}, items, "undecodable records are skipped")

	store.searchErr[listID] = errors.New("timeout")
	items, err = a.ListItems(ctx, listID)
	require.NoError(t, err)
	assert.Empty(t, items)

	store.listErr = errors.New("connection refused")
	items, err = a.ListItems(ctx, listID)
	require.NoError(t, err, "a failed calendar enumeration degrades to no items")
	assert.Equal(t, []Item{}, items)

	store.listErr = nil
	_, err = a.ListItems(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdapter_ListLifecycle(t *testing.T) {
	a, _, ctx := newTestAdapter()

	created, err := a.CreateList(ctx, " Marché ")
	require.NoError(t, err)
	assert.Equal(t, "Marché", created.Name)
	assert.Zero(t, created.ItemsCount)

	lists, err := a.ListLists(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists, "a new list stays hidden until it has items")

	item := mustCreate(t, a, ctx, created.ID, "Tomates")

	renamed, err := a.RenameList(ctx, created.ID, "Marché du samedi")
	require.NoError(t, err)
	assert.Equal(t, List{ID: created.ID, Name: "Marché du samedi", ItemsCount: 1}, renamed)

	require.NoError(t, a.DeleteList(ctx, created.ID))
	_, err = a.ListItems(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, a.DeleteItem(ctx, item.ID), ErrNotFound)
	assert.ErrorIs(t, a.DeleteList(ctx, created.ID), ErrNotFound)
}

func TestAdapter_ListErrors(t *testing.T) {
	a, store, ctx := newTestAdapter()
	listID := addList(store, "Courses")

	_, err := a.CreateList(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = a.RenameList(ctx, listID, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = a.RenameList(ctx, "missing", "Marché")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdapter_FrequentItems(t *testing.T) {
	a, store, ctx := newTestAdapter()
	first := addList(store, "Courses")
	second := addList(store, "Marché")
	mustCreate(t, a, ctx, first, "Lait")
	mustCreate(t, a, ctx, first, "Pain")
	mustCreate(t, a, ctx, second, "lait")
	mustCreate(t, a, ctx, second, "Oeufs")
	addList(store, "Vide")

	got, err := a.FrequentItems(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, FrequentItem{Name: "Lait", Category: category.Dairy, Frequency: 1}, got[0])
	assert.Equal(t, "Oeufs", got[1].Name)
	assert.InDelta(t, 0.5, got[1].Frequency, 1e-9)
	assert.Equal(t, "Pain", got[2].Name)
	assert.InDelta(t, 0.5, got[2].Frequency, 1e-9)
}

func TestAdapter_FrequentItems_NoLists(t *testing.T) {
	a, _, ctx := newTestAdapter()

	got, err := a.FrequentItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
