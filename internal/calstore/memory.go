package calstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

type memCalendar struct {
	cal     Calendar
	objects []Object
}

// Memory is an in-process Store. It keeps calendars per principal in
// creation order and is safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	calendars map[string][]*memCalendar
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{calendars: make(map[string][]*memCalendar)}
}

var _ Store = (*Memory)(nil)

// AddCalendar registers a calendar as-is. An empty ID gets a generated one.
// It is used to seed the store with calendars that CreateCalendar cannot
// produce, such as event-only or shared calendars.
func (m *Memory) AddCalendar(principal string, cal Calendar) Calendar {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cal.ID == "" {
		cal.ID = uuid.NewString()
	}
	if cal.URI == "" {
		cal.URI = calendarURI(principal, cal.ID)
	}
	m.calendars[principal] = append(m.calendars[principal], &memCalendar{cal: cal})
	return cal
}

// ListCalendars returns the principal's calendars in creation order.
func (m *Memory) ListCalendars(ctx context.Context, principal string) ([]Calendar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Calendar, 0, len(m.calendars[principal]))
	for _, mc := range m.calendars[principal] {
		out = append(out, mc.cal)
	}
	return out, nil
}

// SearchTasks returns every object of a calendar.
func (m *Memory) SearchTasks(ctx context.Context, principal, calendarID string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	mc, err := m.find(principal, calendarID)
	if err != nil {
		return nil, err
	}
	out := make([]Object, len(mc.objects))
	copy(out, mc.objects)
	return out, nil
}

// CreateTask stores a new object. Its ID is the UID of the VTODO.
func (m *Memory) CreateTask(ctx context.Context, principal, calendarID, body string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	uid, err := todoUID(body)
	if err != nil {
		return Object{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	mc, err := m.find(principal, calendarID)
	if err != nil {
		return Object{}, err
	}
	if !mc.cal.SupportsTasks() {
		return Object{}, fmt.Errorf("%w: calendar %s does not accept tasks", ErrInvalidObject, calendarID)
	}
	for _, obj := range mc.objects {
		if obj.ID == uid {
			return Object{}, fmt.Errorf("%w: object %s already exists", ErrPreconditionFailed, uid)
		}
	}

	obj := Object{ID: uid, CalendarID: calendarID, Body: body, ETag: etag(body)}
	mc.objects = append(mc.objects, obj)
	return obj, nil
}

// UpdateTask replaces an object body, keeping its position in the calendar.
func (m *Memory) UpdateTask(ctx context.Context, principal, calendarID, objectID, body, ifMatch string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	uid, err := todoUID(body)
	if err != nil {
		return Object{}, err
	}
	if uid != objectID {
		return Object{}, fmt.Errorf("%w: UID %s does not match object %s", ErrInvalidObject, uid, objectID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	mc, err := m.find(principal, calendarID)
	if err != nil {
		return Object{}, err
	}
	for i, obj := range mc.objects {
		if obj.ID != objectID {
			continue
		}
		if ifMatch != "" && ifMatch != obj.ETag {
			return Object{}, fmt.Errorf("%w: object %s changed", ErrPreconditionFailed, objectID)
		}
		obj.Body = body
		obj.ETag = etag(body)
		mc.objects[i] = obj
		return obj, nil
	}
	return Object{}, fmt.Errorf("%w: object %s", ErrNotFound, objectID)
}

// DeleteTask removes an object.
func (m *Memory) DeleteTask(ctx context.Context, principal, calendarID, objectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mc, err := m.find(principal, calendarID)
	if err != nil {
		return err
	}
	for i, obj := range mc.objects {
		if obj.ID == objectID {
			mc.objects = append(mc.objects[:i], mc.objects[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: object %s", ErrNotFound, objectID)
}

// CreateCalendar creates a task calendar.
func (m *Memory) CreateCalendar(ctx context.Context, principal, displayName string) (Calendar, error) {
	if err := ctx.Err(); err != nil {
		return Calendar{}, err
	}
	return m.AddCalendar(principal, Calendar{
		DisplayName: displayName,
		Components:  []string{ComponentTodo},
	}), nil
}

// RenameCalendar changes the display name of a calendar.
func (m *Memory) RenameCalendar(ctx context.Context, principal, calendarID, displayName string) (Calendar, error) {
	if err := ctx.Err(); err != nil {
		return Calendar{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mc, err := m.find(principal, calendarID)
	if err != nil {
		return Calendar{}, err
	}
	mc.cal.DisplayName = displayName
	return mc.cal, nil
}

// DeleteCalendar removes a calendar and all of its objects.
func (m *Memory) DeleteCalendar(ctx context.Context, principal, calendarID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cals := m.calendars[principal]
	for i, mc := range cals {
		if mc.cal.ID == calendarID {
			m.calendars[principal] = append(cals[:i], cals[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: calendar %s", ErrNotFound, calendarID)
}

// find must be called with the lock held.
func (m *Memory) find(principal, calendarID string) (*memCalendar, error) {
	for _, mc := range m.calendars[principal] {
		if mc.cal.ID == calendarID {
			return mc, nil
		}
	}
	return nil, fmt.Errorf("%w: calendar %s", ErrNotFound, calendarID)
}

// todoUID parses body and returns the UID of its single VTODO.
func todoUID(body string) (string, error) {
	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidObject, err)
	}

	var uid string
	todos := 0
	for _, comp := range cal.Components {
		todo, ok := comp.(*ical.VTodo)
		if !ok {
			continue
		}
		todos++
		if p := todo.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
			uid = strings.TrimSpace(p.Value)
		}
	}
	if todos != 1 {
		return "", fmt.Errorf("%w: expected one VTODO, found %d", ErrInvalidObject, todos)
	}
	if uid == "" {
		return "", fmt.Errorf("%w: VTODO has no UID", ErrInvalidObject)
	}
	return uid, nil
}

func etag(body string) string {
	sum := sha256.Sum256([]byte(body))
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

func calendarURI(principal, calendarID string) string {
	return "/calendars/" + principal + "/" + calendarID + "/"
}
