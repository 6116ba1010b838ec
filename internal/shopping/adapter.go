package shopping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/courses/internal/calstore"
	"github.com/teemow/courses/internal/category"
	"github.com/teemow/courses/internal/instrumentation"
	"github.com/teemow/courses/internal/logging"
	"github.com/teemow/courses/internal/vtodo"
)

// Adapter implements Service on top of a calendar store.
type Adapter struct {
	store   calstore.Store
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	index   *itemIndex
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for degraded results.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records calendar store calls on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// NewAdapter creates an Adapter over store.
func NewAdapter(store calstore.Store, opts ...Option) *Adapter {
	a := &Adapter{
		store:  store,
		logger: slog.Default(),
		index:  newItemIndex(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ Service = (*Adapter)(nil)

// ListLists returns the visible lists of the principal. A store failure
// degrades to an empty result; a calendar that cannot be searched is
// skipped.
func (a *Adapter) ListLists(ctx context.Context) ([]List, error) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	logger := logging.WithPrincipal(logging.WithOperation(a.logger, "list_lists"), principal)

	cals, err := a.listCalendars(ctx, principal)
	if err != nil {
		if isContextError(err) {
			return nil, err
		}
		logger.Warn("failed to enumerate calendars", logging.Err(err))
		return []List{}, nil
	}

	a.index.reset(principal)
	lists := make([]List, 0, len(cals))
	for _, cal := range cals {
		if !cal.SupportsTasks() {
			continue
		}
		objs, err := a.searchTasks(ctx, principal, cal.ID)
		if err != nil {
			if isContextError(err) {
				return nil, err
			}
			logger.Warn("skipping calendar", logging.ListID(cal.ID), logging.Err(err))
			continue
		}
		a.index.setCalendar(principal, cal.ID, objectIDs(objs))

		l := List{
			ID:         cal.ID,
			Name:       cal.DisplayName,
			ItemsCount: len(objs),
			Shared:     cal.Shared(),
		}
		if VisibleList(l) {
			lists = append(lists, l)
		}
	}
	return lists, nil
}

// CreateList creates an empty task calendar.
func (a *Adapter) CreateList(ctx context.Context, name string) (List, error) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return List{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return List{}, fmt.Errorf("%w: list name is empty", ErrInvalidInput)
	}

	var cal calstore.Calendar
	err = a.observe(ctx, instrumentation.OperationCreateCalendar, func(ctx context.Context) error {
		var err error
		cal, err = a.store.CreateCalendar(ctx, principal, name)
		return err
	})
	if err != nil {
		return List{}, fmt.Errorf("failed to create list: %w", storeError(err))
	}
	return List{ID: cal.ID, Name: cal.DisplayName, Shared: cal.Shared()}, nil
}

// RenameList changes the name of a list.
func (a *Adapter) RenameList(ctx context.Context, id, name string) (List, error) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return List{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return List{}, fmt.Errorf("%w: list name is empty", ErrInvalidInput)
	}
	if _, err := a.resolveList(ctx, principal, id); err != nil {
		return List{}, err
	}

	var cal calstore.Calendar
	err = a.observe(ctx, instrumentation.OperationRenameCalendar, func(ctx context.Context) error {
		var err error
		cal, err = a.store.RenameCalendar(ctx, principal, id, name)
		return err
	})
	if err != nil {
		return List{}, fmt.Errorf("failed to rename list %s: %w", id, storeError(err))
	}

	l := List{ID: cal.ID, Name: cal.DisplayName, Shared: cal.Shared()}
	if objs, err := a.searchTasks(ctx, principal, id); err == nil {
		l.ItemsCount = len(objs)
	}
	return l, nil
}

// DeleteList deletes a list and every item in it.
func (a *Adapter) DeleteList(ctx context.Context, id string) error {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}
	if _, err := a.resolveList(ctx, principal, id); err != nil {
		return err
	}

	err = a.observe(ctx, instrumentation.OperationDeleteCalendar, func(ctx context.Context) error {
		return a.store.DeleteCalendar(ctx, principal, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete list %s: %w", id, storeError(err))
	}
	a.index.forgetCalendar(principal, id)
	return nil
}

// ListItems returns the items of a list in store order. Records that cannot
// be decoded are skipped. A list the principal does not have is
// ErrNotFound; a failure to enumerate calendars or objects degrades to an
// empty result.
func (a *Adapter) ListItems(ctx context.Context, listID string) ([]Item, error) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	logger := logging.WithPrincipal(logging.WithOperation(a.logger, "list_items"), principal)

	if _, err := a.resolveList(ctx, principal, listID); err != nil {
		if errors.Is(err, ErrNotFound) || isContextError(err) {
			return nil, err
		}
		logger.Warn("failed to enumerate lists", logging.ListID(listID), logging.Err(err))
		return []Item{}, nil
	}

	objs, err := a.searchTasks(ctx, principal, listID)
	if err != nil {
		if isContextError(err) {
			return nil, err
		}
		logger.Warn("failed to fetch items", logging.ListID(listID), logging.Err(err))
		return []Item{}, nil
	}
	a.index.setCalendar(principal, listID, objectIDs(objs))

	items := make([]Item, 0, len(objs))
	for _, obj := range objs {
		task, err := vtodo.Decode(obj.Body)
		if err != nil {
			logger.Warn("skipping undecodable record",
				logging.ListID(listID), logging.ItemID(obj.ID), logging.Err(err))
			continue
		}
		items = append(items, itemFromTask(listID, obj.ID, task))
	}
	return items, nil
}

// CreateItem adds an item to a list.
func (a *Adapter) CreateItem(ctx context.Context, listID string, in NewItem) (Item, error) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return Item{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Item{}, fmt.Errorf("%w: item name is empty", ErrInvalidInput)
	}
	if _, err := a.resolveList(ctx, principal, listID); err != nil {
		return Item{}, err
	}

	task := vtodo.Task{
		Summary:     name,
		Description: vtodo.FormatQuantity(in.Quantity),
		Categories:  categoryText(in.Category),
		Status:      vtodo.StatusNeedsAction,
	}
	record, err := vtodo.Encode(task.Summary, task.Description, task.Categories)
	if err != nil {
		return Item{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var obj calstore.Object
	err = a.observe(ctx, instrumentation.OperationCreateTask, func(ctx context.Context) error {
		var err error
		obj, err = a.store.CreateTask(ctx, principal, listID, record)
		return err
	})
	if err != nil {
		return Item{}, fmt.Errorf("failed to create item in list %s: %w", listID, storeError(err))
	}
	a.index.put(principal, obj.ID, listID)

	return itemFromTask(listID, obj.ID, task), nil
}

// UpdateItem applies a partial update to an item. Properties of the record
// that items do not model are kept as they are. The write is conditional on
// the ETag seen when the item was read; ErrConflict reports a concurrent
// change.
func (a *Adapter) UpdateItem(ctx context.Context, id string, patch ItemPatch) (Item, error) {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return Item{}, err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return Item{}, fmt.Errorf("%w: item name is empty", ErrInvalidInput)
	}

	obj, err := a.locate(ctx, principal, id)
	if err != nil {
		return Item{}, err
	}
	task, err := vtodo.Decode(obj.Body)
	if err != nil {
		return Item{}, fmt.Errorf("failed to decode item %s: %w", id, err)
	}

	if patch.Name != nil {
		task.Summary = strings.TrimSpace(*patch.Name)
	}
	if patch.Quantity != nil {
		task.Description = vtodo.SetQuantity(task.Description, *patch.Quantity)
	}
	if patch.Category != nil {
		task.Categories = categoryText(*patch.Category)
	}
	if patch.Completed != nil {
		task.Status = vtodo.StatusFor(*patch.Completed)
	}

	body, err := vtodo.Reencode(obj.Body, task.Summary, task.Description, task.Categories, task.Status)
	if err != nil {
		return Item{}, fmt.Errorf("failed to encode item %s: %w", id, err)
	}

	err = a.observe(ctx, instrumentation.OperationUpdateTask, func(ctx context.Context) error {
		_, err := a.store.UpdateTask(ctx, principal, obj.CalendarID, obj.ID, body, obj.ETag)
		return err
	})
	if err != nil {
		err = storeError(err)
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
			a.index.forget(principal, id)
		}
		return Item{}, fmt.Errorf("failed to update item %s: %w", id, err)
	}

	return itemFromTask(obj.CalendarID, obj.ID, task), nil
}

// DeleteItem removes an item from whichever list holds it.
func (a *Adapter) DeleteItem(ctx context.Context, id string) error {
	principal, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}

	if calendarID, ok := a.index.lookup(principal, id); ok {
		err := a.deleteTask(ctx, principal, calendarID, id)
		if err == nil || !errors.Is(err, calstore.ErrNotFound) {
			return storeError(err)
		}
		a.index.forget(principal, id)
	}

	obj, err := a.scan(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := a.deleteTask(ctx, principal, obj.CalendarID, id); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, storeError(err))
	}
	return nil
}

func (a *Adapter) deleteTask(ctx context.Context, principal, calendarID, id string) error {
	err := a.observe(ctx, instrumentation.OperationDeleteTask, func(ctx context.Context) error {
		return a.store.DeleteTask(ctx, principal, calendarID, id)
	})
	if err == nil {
		a.index.forget(principal, id)
	}
	return err
}

// resolveList returns the task calendar with the exact id. A failure to
// enumerate calendars surfaces as ErrStoreUnavailable.
func (a *Adapter) resolveList(ctx context.Context, principal, id string) (calstore.Calendar, error) {
	cals, err := a.listCalendars(ctx, principal)
	if err != nil {
		return calstore.Calendar{}, fmt.Errorf("failed to resolve list %s: %w", id, storeError(err))
	}
	for _, cal := range cals {
		if cal.ID == id && cal.SupportsTasks() {
			return cal, nil
		}
	}
	return calstore.Calendar{}, fmt.Errorf("%w: list %s", ErrNotFound, id)
}

// locate finds the object of an item, trying the indexed calendar first.
func (a *Adapter) locate(ctx context.Context, principal, id string) (calstore.Object, error) {
	if calendarID, ok := a.index.lookup(principal, id); ok {
		objs, err := a.searchTasks(ctx, principal, calendarID)
		if err == nil {
			if obj, ok := findObject(objs, id); ok {
				return obj, nil
			}
		} else if isContextError(err) {
			return calstore.Object{}, err
		}
		a.index.forget(principal, id)
	}
	return a.scan(ctx, principal, id)
}

// scan searches every task calendar of the principal for the item,
// refreshing the index along the way.
func (a *Adapter) scan(ctx context.Context, principal, id string) (calstore.Object, error) {
	cals, err := a.listCalendars(ctx, principal)
	if err != nil {
		return calstore.Object{}, fmt.Errorf("failed to find item %s: %w", id, storeError(err))
	}

	var searchErr error
	for _, cal := range cals {
		if !cal.SupportsTasks() {
			continue
		}
		objs, err := a.searchTasks(ctx, principal, cal.ID)
		if err != nil {
			if isContextError(err) {
				return calstore.Object{}, err
			}
			if searchErr == nil {
				searchErr = err
			}
			continue
		}
		a.index.setCalendar(principal, cal.ID, objectIDs(objs))
		if obj, ok := findObject(objs, id); ok {
			return obj, nil
		}
	}

	// A calendar that could not be searched may hold the item.
	if searchErr != nil {
		return calstore.Object{}, fmt.Errorf("failed to find item %s: %w", id, storeError(searchErr))
	}
	return calstore.Object{}, fmt.Errorf("%w: item %s", ErrNotFound, id)
}

func (a *Adapter) listCalendars(ctx context.Context, principal string) ([]calstore.Calendar, error) {
	var cals []calstore.Calendar
	err := a.observe(ctx, instrumentation.OperationListCalendars, func(ctx context.Context) error {
		var err error
		cals, err = a.store.ListCalendars(ctx, principal)
		return err
	})
	return cals, err
}

func (a *Adapter) searchTasks(ctx context.Context, principal, calendarID string) ([]calstore.Object, error) {
	var objs []calstore.Object
	err := a.observe(ctx, instrumentation.OperationSearchTasks, func(ctx context.Context) error {
		var err error
		objs, err = a.store.SearchTasks(ctx, principal, calendarID)
		return err
	})
	return objs, err
}

// observe runs one store call inside a span and records its metrics.
func (a *Adapter) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := instrumentation.StartStoreSpan(ctx, operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	a.metrics.RecordStoreOperation(ctx, operation, status, time.Since(start))
	return err
}

// itemFromTask builds the domain view of a decoded record.
func itemFromTask(listID, objectID string, task vtodo.Task) Item {
	return Item{
		ID:        objectID,
		ListID:    listID,
		Name:      task.Summary,
		Quantity:  vtodo.QuantityFromDescription(task.Description),
		Category:  category.Classify(task.Categories, task.Summary),
		Completed: task.Completed(),
	}
}

func findObject(objs []calstore.Object, id string) (calstore.Object, bool) {
	for _, obj := range objs {
		if obj.ID == id {
			return obj, true
		}
	}
	return calstore.Object{}, false
}

func objectIDs(objs []calstore.Object) []string {
	ids := make([]string, len(objs))
	for i, obj := range objs {
		ids[i] = obj.ID
	}
	return ids
}
