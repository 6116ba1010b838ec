package calstore

import (
	"context"
	"errors"
	"strings"
)

// ComponentTodo is the component type of task calendars.
const ComponentTodo = "VTODO"

var (
	// ErrNotFound is returned when a calendar or object does not exist for the
	// principal.
	ErrNotFound = errors.New("calendar object not found")

	// ErrPreconditionFailed is returned when an update carries an ETag that no
	// longer matches the stored object, or a create reuses an existing UID.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInvalidObject is returned when a submitted body is not a single
	// VTODO with a UID.
	ErrInvalidObject = errors.New("invalid calendar object")
)

// Share describes one sharee of a calendar.
type Share struct {
	Principal string
	ReadOnly  bool
}

// Calendar is a calendar collection as exposed by the store.
type Calendar struct {
	ID          string
	DisplayName string
	Components  []string // supported component types, e.g. VTODO, VEVENT
	Shares      []Share
	URI         string
}

// SupportsTasks reports whether the calendar can hold VTODO objects.
func (c Calendar) SupportsTasks() bool {
	for _, comp := range c.Components {
		if strings.EqualFold(comp, ComponentTodo) {
			return true
		}
	}
	return false
}

// Shared reports whether the calendar is shared with anyone.
func (c Calendar) Shared() bool {
	return len(c.Shares) > 0
}

// Object is one calendar object (a task) with its raw iCalendar body.
type Object struct {
	ID         string
	CalendarID string
	Body       string
	ETag       string
}

// Store is the calendar backend the shopping adapter runs against. Every
// operation is scoped to a principal.
type Store interface {
	ListCalendars(ctx context.Context, principal string) ([]Calendar, error)
	SearchTasks(ctx context.Context, principal, calendarID string) ([]Object, error)

	CreateTask(ctx context.Context, principal, calendarID, body string) (Object, error)
	// UpdateTask replaces the body of an object. A non-empty ifMatch must
	// equal the current ETag or ErrPreconditionFailed is returned.
	UpdateTask(ctx context.Context, principal, calendarID, objectID, body, ifMatch string) (Object, error)
	DeleteTask(ctx context.Context, principal, calendarID, objectID string) error

	CreateCalendar(ctx context.Context, principal, displayName string) (Calendar, error)
	RenameCalendar(ctx context.Context, principal, calendarID, displayName string) (Calendar, error)
	DeleteCalendar(ctx context.Context, principal, calendarID string) error
}
