package shopping

import "sync"

// itemIndex maps (principal, item id) to the calendar the item was last
// seen in.
type itemIndex struct {
	mu      sync.RWMutex
	entries map[string]map[string]string
}

func newItemIndex() *itemIndex {
	return &itemIndex{entries: make(map[string]map[string]string)}
}

func (x *itemIndex) lookup(principal, itemID string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	calendarID, ok := x.entries[principal][itemID]
	return calendarID, ok
}

func (x *itemIndex) put(principal, itemID, calendarID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.principal(principal)[itemID] = calendarID
}

func (x *itemIndex) forget(principal, itemID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries[principal], itemID)
}

// setCalendar replaces the entries of one calendar with itemIDs.
func (x *itemIndex) setCalendar(principal, calendarID string, itemIDs []string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	m := x.principal(principal)
	for id, cal := range m {
		if cal == calendarID {
			delete(m, id)
		}
	}
	for _, id := range itemIDs {
		m[id] = calendarID
	}
}

func (x *itemIndex) forgetCalendar(principal, calendarID string) {
	x.setCalendar(principal, calendarID, nil)
}

func (x *itemIndex) reset(principal string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries, principal)
}

// principal must be called with the lock held.
func (x *itemIndex) principal(principal string) map[string]string {
	m, ok := x.entries[principal]
	if !ok {
		m = make(map[string]string)
		x.entries[principal] = m
	}
	return m
}
