// Package shopping exposes shopping lists and items on top of a calendar
// store.
//
// Lists are task calendars and items are the VTODO objects they contain.
// The Adapter resolves list and item identifiers to calendar objects, turns
// records into items with the vtodo codec and the category classifier, and
// writes changes back without losing properties it does not understand.
//
// Every operation is scoped to the principal bound to the context with
// WithPrincipal. Without one, operations fail with ErrUnauthenticated.
//
// # Visibility
//
// A list with no items is not returned by ListLists (see VisibleList). A
// freshly created list therefore shows up only once it holds an item.
//
// # Item index
//
// The store has no direct way to find the calendar of an item, so the
// Adapter remembers where it last saw every item. UpdateItem and DeleteItem
// consult that index first and fall back to scanning every calendar of the
// principal when the entry is missing or stale.
package shopping
