package shopping

import (
	"context"

	"github.com/teemow/courses/internal/category"
)

// List is a shopping list backed by one task calendar.
type List struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ItemsCount int    `json:"itemsCount"`
	Shared     bool   `json:"shared"`
}

// Item is one entry of a shopping list, backed by a VTODO object.
type Item struct {
	ID        string      `json:"id"`
	ListID    string      `json:"listId"`
	Name      string      `json:"name"`
	Quantity  string      `json:"quantity"`
	Category  category.ID `json:"category"`
	Completed bool        `json:"completed"`
}

// NewItem is the input of CreateItem. Quantity and Category are optional.
type NewItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Category string `json:"category,omitempty"`
}

// ItemPatch is a partial update. Nil fields are left unchanged.
type ItemPatch struct {
	Name      *string `json:"name,omitempty"`
	Quantity  *string `json:"quantity,omitempty"`
	Category  *string `json:"category,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Quantity == nil && p.Category == nil && p.Completed == nil
}

// Apply returns item with the patch applied. Category input is normalized
// onto the catalogue.
func (p ItemPatch) Apply(item Item) Item {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Category != nil {
		item.Category = category.Normalize(*p.Category)
	}
	if p.Completed != nil {
		item.Completed = *p.Completed
	}
	return item
}

// FrequentItem is a suggestion for a new item.
type FrequentItem struct {
	Name      string      `json:"name"`
	Category  category.ID `json:"category"`
	Frequency float64     `json:"frequency"`
}

// Service is the set of shopping operations. The Adapter implements it
// against a calendar store; the HTTP client and the offline session
// implement it for remote callers.
type Service interface {
	ListLists(ctx context.Context) ([]List, error)
	CreateList(ctx context.Context, name string) (List, error)
	RenameList(ctx context.Context, id, name string) (List, error)
	DeleteList(ctx context.Context, id string) error

	ListItems(ctx context.Context, listID string) ([]Item, error)
	CreateItem(ctx context.Context, listID string, in NewItem) (Item, error)
	UpdateItem(ctx context.Context, id string, patch ItemPatch) (Item, error)
	DeleteItem(ctx context.Context, id string) error

	FrequentItems(ctx context.Context) ([]FrequentItem, error)
}

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }

// Bool returns a pointer to b, for building patches.
func Bool(b bool) *bool { return &b }
