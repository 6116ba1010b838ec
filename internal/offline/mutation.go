package offline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/courses/internal/shopping"
)

// Action is the kind of a queued mutation.
type Action string

// Queued mutation kinds
const (
	ActionCreateItem Action = "createItem"
	ActionUpdateItem Action = "updateItem"
	ActionDeleteItem Action = "deleteItem"
)

// TempIDPrefix marks item ids assigned locally while offline.
const TempIDPrefix = "temp_"

// NewTempID returns a fresh temporary item id.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id was assigned locally.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Mutation is one entry of the offline log. Seq and EnqueuedAt are assigned
// when the entry is appended.
type Mutation struct {
	Seq        int64           `json:"seq"`
	Action     Action          `json:"action"`
	ListID     string          `json:"listId,omitempty"`
	ItemID     string          `json:"itemId,omitempty"`
	Payload    json.RawMessage `json:"data,omitempty"`
	EnqueuedAt time.Time       `json:"timestamp"`
}

// NewCreateItem records the creation of an item under a temporary id.
func NewCreateItem(tempID, listID string, in shopping.NewItem) (Mutation, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return Mutation{}, fmt.Errorf("failed to encode item: %w", err)
	}
	return Mutation{Action: ActionCreateItem, ListID: listID, ItemID: tempID, Payload: payload}, nil
}

// NewUpdateItem records a partial update of an item.
func NewUpdateItem(itemID string, patch shopping.ItemPatch) (Mutation, error) {
	payload, err := json.Marshal(patch)
	if err != nil {
		return Mutation{}, fmt.Errorf("failed to encode patch: %w", err)
	}
	return Mutation{Action: ActionUpdateItem, ItemID: itemID, Payload: payload}, nil
}

// NewDeleteItem records the deletion of an item.
func NewDeleteItem(itemID string) Mutation {
	return Mutation{Action: ActionDeleteItem, ItemID: itemID}
}

func (m Mutation) newItem() (shopping.NewItem, error) {
	var in shopping.NewItem
	if err := json.Unmarshal(m.Payload, &in); err != nil {
		return shopping.NewItem{}, fmt.Errorf("%w: bad createItem payload: %w", shopping.ErrInvalidInput, err)
	}
	return in, nil
}

func (m Mutation) patch() (shopping.ItemPatch, error) {
	var patch shopping.ItemPatch
	if err := json.Unmarshal(m.Payload, &patch); err != nil {
		return shopping.ItemPatch{}, fmt.Errorf("%w: bad updateItem payload: %w", shopping.ErrInvalidInput, err)
	}
	return patch, nil
}
