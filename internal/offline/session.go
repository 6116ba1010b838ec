package offline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/teemow/courses/internal/category"
	"github.com/teemow/courses/internal/logging"
	"github.com/teemow/courses/internal/shopping"
)

// Session is one client's view of the shopping service. Item writes go to
// the remote service while it is reachable and to the queue otherwise; in
// both cases the cache reflects them immediately. While anything is queued
// a write first tries to drain the queue, and is queued behind it when the
// queue cannot be emptied, so the server sees writes in the order they
// were made.
//
// With a Cache the last known lists and items survive restarts, so a new
// session can serve reads before the server comes back.
//
// List operations and suggestions are never queued.
type Session struct {
	remote shopping.Service
	queue  *Queue
	cache  Cache
	logger logging.Logger

	mu     sync.Mutex
	loaded bool
	lists  []shopping.List
	items  map[string][]shopping.Item
}

var _ shopping.Service = (*Session)(nil)
var _ Flusher = (*Session)(nil)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithCache persists the session cache in c.
func WithCache(c Cache) SessionOption {
	return func(s *Session) {
		s.cache = c
	}
}

// NewSession creates a session over remote, queueing through queue.
func NewSession(remote shopping.Service, queue *Queue, logger logging.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	s := &Session{
		remote: remote,
		queue:  queue,
		logger: logger,
		items:  make(map[string][]shopping.Item),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Flush replays the queue against the remote service and reconciles
// temporary ids in the cache.
func (s *Session) Flush(ctx context.Context) (int, error) {
	return s.queue.Drain(ctx, s.remote, s.reconcile)
}

// Pending returns the queued mutations.
func (s *Session) Pending(ctx context.Context) ([]Mutation, error) {
	return s.queue.Pending(ctx)
}

// Skip removes one queued mutation without replaying it.
func (s *Session) Skip(ctx context.Context, seq int64) (Mutation, error) {
	return s.queue.Skip(ctx, seq)
}

// Close closes the queue.
func (s *Session) Close() error {
	return s.queue.Close()
}

// ListLists returns the remote lists, or the cached ones while offline.
func (s *Session) ListLists(ctx context.Context) ([]shopping.List, error) {
	lists, err := s.remote.ListLists(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(ctx)

	if err != nil {
		if !offline(err) || s.lists == nil {
			return nil, err
		}
		s.logger.Debug("serving cached lists", logging.Err(err))
		return slices.Clone(s.lists), nil
	}

	s.lists = slices.Clone(lists)
	s.persist(ctx)
	return lists, nil
}

// CreateList creates a list on the remote service.
func (s *Session) CreateList(ctx context.Context, name string) (shopping.List, error) {
	l, err := s.remote.CreateList(ctx, name)
	if err != nil {
		return shopping.List{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(ctx)
	s.items[l.ID] = []shopping.Item{}
	s.persist(ctx, l.ID)
	return l, nil
}

// RenameList renames a list on the remote service.
func (s *Session) RenameList(ctx context.Context, id, name string) (shopping.List, error) {
	l, err := s.remote.RenameList(ctx, id, name)
	if err != nil {
		return shopping.List{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(ctx)
	for i := range s.lists {
		if s.lists[i].ID == id {
			s.lists[i].Name = l.Name
		}
	}
	s.persist(ctx)
	return l, nil
}

// DeleteList deletes a list on the remote service.
func (s *Session) DeleteList(ctx context.Context, id string) error {
	if err := s.remote.DeleteList(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(ctx)
	delete(s.items, id)
	s.lists = slices.DeleteFunc(s.lists, func(l shopping.List) bool { return l.ID == id })
	s.persist(ctx, id)
	return nil
}

// ListItems returns the items of a list with queued changes applied on top.
// While offline the cached items are returned.
func (s *Session) ListItems(ctx context.Context, listID string) ([]shopping.Item, error) {
	items, err := s.remote.ListItems(ctx, listID)
	if err != nil {
		if !offline(err) {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.restore(ctx)
		cached, ok := s.items[listID]
		if !ok {
			return nil, err
		}
		s.logger.Debug("serving cached items", logging.ListID(listID), logging.Err(err))
		return slices.Clone(cached), nil
	}

	pending, err := s.queue.Pending(ctx)
	if err != nil {
		return nil, err
	}
	items = Overlay(listID, items, pending)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(ctx)
	s.items[listID] = slices.Clone(items)
	s.setCount(listID)
	s.persist(ctx, listID)
	return items, nil
}

// CreateItem creates an item. While offline, or while earlier writes stay
// queued, the item gets a temporary id and the creation is queued.
func (s *Session) CreateItem(ctx context.Context, listID string, in shopping.NewItem) (shopping.Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return shopping.Item{}, fmt.Errorf("%w: item name is empty", shopping.ErrInvalidInput)
	}

	direct, err := s.direct(ctx)
	if err != nil {
		return shopping.Item{}, err
	}
	if direct {
		item, err := s.remote.CreateItem(ctx, listID, in)
		if err == nil {
			s.cacheAdd(ctx, item)
			return item, nil
		}
		if !offline(err) {
			return shopping.Item{}, err
		}
		s.logger.Info("server unreachable, queueing item creation", logging.ListID(listID), logging.Err(err))
	}

	item := optimisticItem(NewTempID(), listID, in)
	m, err := NewCreateItem(item.ID, listID, in)
	if err != nil {
		return shopping.Item{}, err
	}
	if _, err := s.queue.Enqueue(ctx, m); err != nil {
		return shopping.Item{}, err
	}
	s.cacheAdd(ctx, item)
	return item, nil
}

// UpdateItem updates an item, queueing the change while offline, while
// earlier writes stay queued, or when the item only exists locally.
func (s *Session) UpdateItem(ctx context.Context, id string, patch shopping.ItemPatch) (shopping.Item, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return shopping.Item{}, fmt.Errorf("%w: item name is empty", shopping.ErrInvalidInput)
		}
		patch.Name = &name
	}

	direct, err := s.direct(ctx)
	if err != nil {
		return shopping.Item{}, err
	}
	if IsTempID(id) {
		if err := s.requireQueued(ctx, id); err != nil {
			return shopping.Item{}, err
		}
	} else if direct {
		item, err := s.remote.UpdateItem(ctx, id, patch)
		if err == nil {
			s.cacheReplace(ctx, item)
			return item, nil
		}
		if !offline(err) {
			return shopping.Item{}, err
		}
		s.logger.Info("server unreachable, queueing item update", logging.ItemID(id), logging.Err(err))
	}

	m, err := NewUpdateItem(id, patch)
	if err != nil {
		return shopping.Item{}, err
	}
	if _, err := s.queue.Enqueue(ctx, m); err != nil {
		return shopping.Item{}, err
	}
	return s.cachePatch(ctx, id, patch), nil
}

// DeleteItem deletes an item. An item that only exists locally is deleted
// by discarding its queued creation and changes, without contacting the
// server. Queued changes to a server item are only dropped once the
// deletion itself succeeded or was queued.
func (s *Session) DeleteItem(ctx context.Context, id string) error {
	if IsTempID(id) {
		n, err := s.queue.Discard(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: item %s is not queued", shopping.ErrNotFound, id)
		}
		s.cacheRemove(ctx, id)
		return nil
	}

	direct, err := s.direct(ctx)
	if err != nil {
		return err
	}
	if direct {
		err := s.remote.DeleteItem(ctx, id)
		if err == nil {
			s.cacheRemove(ctx, id)
			return nil
		}
		if !offline(err) {
			return err
		}
		s.logger.Info("server unreachable, queueing item deletion", logging.ItemID(id), logging.Err(err))
	}

	if _, err := s.queue.EnqueueReplacing(ctx, NewDeleteItem(id)); err != nil {
		return err
	}
	s.cacheRemove(ctx, id)
	return nil
}

// FrequentItems returns the remote suggestions.
func (s *Session) FrequentItems(ctx context.Context) ([]shopping.FrequentItem, error) {
	return s.remote.FrequentItems(ctx)
}

// direct reports whether a write may go straight to the server. That is
// the case when nothing is queued, or when the queue could be drained
// first.
func (s *Session) direct(ctx context.Context) (bool, error) {
	n, err := s.queue.Len(ctx)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return true, nil
	}

	if _, err := s.Flush(ctx); err != nil {
		s.logger.Debug("queue not drained, queueing write behind it", logging.Err(err))
		return false, nil
	}
	n, err = s.queue.Len(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// requireQueued fails with ErrNotFound unless a queued entry still refers
// to the temporary id. Once its creation is replayed the item is known by
// its server id only.
func (s *Session) requireQueued(ctx context.Context, tempID string) error {
	pending, err := s.queue.Pending(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(pending, func(m Mutation) bool { return m.ItemID == tempID }) {
		return fmt.Errorf("%w: item %s was synced or deleted, list the items again", shopping.ErrNotFound, tempID)
	}
	return nil
}

func (s *Session) reconcile(ctx context.Context, tempID string, item shopping.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(ctx)

	var touched []string
	for listID, items := range s.items {
		for i := range items {
			if items[i].ID == tempID {
				items[i].ID = item.ID
				touched = append(touched, listID)
			}
		}
	}
	s.persist(ctx, touched...)
}

func (s *Session) cacheAdd(ctx context.Context, item shopping.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(ctx)
	s.items[item.ListID] = append(s.items[item.ListID], item)
	s.setCount(item.ListID)
	s.persist(ctx, item.ListID)
}

func (s *Session) cacheReplace(ctx context.Context, item shopping.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(ctx)
	items := s.items[item.ListID]
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
		}
	}
	s.persist(ctx, item.ListID)
}

// cachePatch applies patch to the cached item and returns it. An item
// missing from the cache yields the patch applied to an item carrying only
// the id.
func (s *Session) cachePatch(ctx context.Context, id string, patch shopping.ItemPatch) shopping.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(ctx)
	for listID, items := range s.items {
		for i := range items {
			if items[i].ID == id {
				items[i] = patch.Apply(items[i])
				s.persist(ctx, listID)
				return items[i]
			}
		}
	}
	return patch.Apply(shopping.Item{ID: id})
}

func (s *Session) cacheRemove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(ctx)
	for listID, items := range s.items {
		kept := slices.DeleteFunc(items, func(it shopping.Item) bool { return it.ID == id })
		if len(kept) != len(items) {
			s.items[listID] = kept
			s.setCount(listID)
			s.persist(ctx, listID)
		}
	}
}

// setCount must be called with the lock held.
func (s *Session) setCount(listID string) {
	for i := range s.lists {
		if s.lists[i].ID == listID {
			s.lists[i].ItemsCount = len(s.items[listID])
		}
	}
}

// restore loads the persisted cache the first time the session needs it.
// Entries already in memory win. Must be called with the lock held.
func (s *Session) restore(ctx context.Context) {
	if s.loaded || s.cache == nil {
		return
	}
	s.loaded = true

	snap, err := s.cache.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load cache", logging.Err(err))
		return
	}
	if s.lists == nil {
		s.lists = snap.Lists
	}
	for listID, items := range snap.Items {
		if _, ok := s.items[listID]; !ok {
			s.items[listID] = items
		}
	}
}

// persist writes the lists and the items of listIDs to the cache. A list
// no longer in memory is dropped. Failures only cost offline reads, so they
// are logged. Must be called with the lock held.
func (s *Session) persist(ctx context.Context, listIDs ...string) {
	if s.cache == nil {
		return
	}
	if s.lists != nil {
		if err := s.cache.SaveLists(ctx, s.lists); err != nil {
			s.logger.Warn("failed to cache lists", logging.Err(err))
		}
	}
	for _, listID := range listIDs {
		var err error
		if items, ok := s.items[listID]; ok {
			err = s.cache.SaveItems(ctx, listID, items)
		} else {
			err = s.cache.DropItems(ctx, listID)
		}
		if err != nil {
			s.logger.Warn("failed to cache items", logging.ListID(listID), logging.Err(err))
		}
	}
}

// Overlay applies the queued mutations for listID to items fetched from the
// server, in queue order.
func Overlay(listID string, items []shopping.Item, pending []Mutation) []shopping.Item {
	out := slices.Clone(items)
	for _, m := range pending {
		switch m.Action {
		case ActionCreateItem:
			if m.ListID != listID {
				continue
			}
			in, err := m.newItem()
			if err != nil {
				continue
			}
			out = append(out, optimisticItem(m.ItemID, listID, in))
		case ActionUpdateItem:
			patch, err := m.patch()
			if err != nil {
				continue
			}
			for i := range out {
				if out[i].ID == m.ItemID {
					out[i] = patch.Apply(out[i])
				}
			}
		case ActionDeleteItem:
			out = slices.DeleteFunc(out, func(it shopping.Item) bool { return it.ID == m.ItemID })
		}
	}
	if out == nil {
		out = []shopping.Item{}
	}
	return out
}

// optimisticItem is the local view of an item that is not on the server
// yet. Its category follows the same rules the server applies.
func optimisticItem(id, listID string, in shopping.NewItem) shopping.Item {
	cat := category.Classify("", in.Name)
	if strings.TrimSpace(in.Category) != "" {
		cat = category.Normalize(in.Category)
	}
	return shopping.Item{
		ID:       id,
		ListID:   listID,
		Name:     strings.TrimSpace(in.Name),
		Quantity: strings.TrimSpace(in.Quantity),
		Category: cat,
	}
}

// offline reports whether err means the server could not be reached.
func offline(err error) bool {
	return errors.Is(err, shopping.ErrStoreUnavailable)
}
