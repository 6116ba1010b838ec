package shopping

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/courses/internal/calstore"
	"github.com/teemow/courses/internal/category"
)

func TestVisibleList(t *testing.T) {
	assert.False(t, VisibleList(List{ID: "a"}))
	assert.True(t, VisibleList(List{ID: "a", ItemsCount: 1}))
}

func TestCategoryText(t *testing.T) {
	assert.Equal(t, "", categoryText(" "))
	assert.Equal(t, "Produits laitiers", categoryText("dairy"))
	assert.Equal(t, "Épicerie", categoryText("épicerie"))
	assert.Equal(t, "Autres", categoryText("bricolage"))
}

func TestItemPatch(t *testing.T) {
	assert.True(t, ItemPatch{}.Empty())

	item := Item{ID: "1", Name: "Lait", Category: category.Other}
	patched := ItemPatch{Name: String("Lait entier"), Category: String("dairy"), Completed: Bool(true)}.Apply(item)
	assert.Equal(t, Item{ID: "1", Name: "Lait entier", Category: category.Dairy, Completed: true}, patched)
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "not found", err: fmt.Errorf("wrapped: %w", calstore.ErrNotFound), want: ErrNotFound},
		{name: "precondition", err: calstore.ErrPreconditionFailed, want: ErrConflict},
		{name: "invalid object", err: calstore.ErrInvalidObject, want: ErrMalformedRecord},
		{name: "canceled", err: context.Canceled, want: context.Canceled},
		{name: "other", err: errors.New("connection reset"), want: ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storeError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
	assert.NoError(t, storeError(nil))
}

func TestRankFrequent(t *testing.T) {
	lists := [][]Item{
		{{Name: "Pain"}, {Name: "Café"}, {Name: "cafe"}},
		{{Name: "CAFÉ"}, {Name: "Beurre"}},
		{{Name: "Beurre"}, {Name: "Café"}},
		{},
	}

	got := RankFrequent(lists, 2)
	assert.Equal(t, []FrequentItem{
		{Name: "Café", Frequency: 0.75},
		{Name: "Beurre", Frequency: 0.5},
	}, got)

	assert.Empty(t, RankFrequent(nil, 10))
}

func TestIndex(t *testing.T) {
	x := newItemIndex()
	x.put("alice", "i1", "c1")
	x.setCalendar("alice", "c2", []string{"i2", "i3"})

	cal, ok := x.lookup("alice", "i2")
	assert.True(t, ok)
	assert.Equal(t, "c2", cal)
	_, ok = x.lookup("bob", "i2")
	assert.False(t, ok)

	x.setCalendar("alice", "c2", []string{"i3"})
	_, ok = x.lookup("alice", "i2")
	assert.False(t, ok)

	x.forgetCalendar("alice", "c1")
	_, ok = x.lookup("alice", "i1")
	assert.False(t, ok)

	x.reset("alice")
	_, ok = x.lookup("alice", "i3")
	assert.False(t, ok)
}
