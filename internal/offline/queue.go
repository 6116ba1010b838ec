package offline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/courses/internal/instrumentation"
	"github.com/teemow/courses/internal/logging"
	"github.com/teemow/courses/internal/shopping"
)

// ErrQueueReplayFailed is returned by Drain when an entry could not be
// replayed. The entry and everything after it stay queued.
var ErrQueueReplayFailed = errors.New("queue replay failed")

// ErrNoSuchMutation is returned by Skip for an unknown sequence number.
var ErrNoSuchMutation = errors.New("no such queued mutation")

// ReconcileFunc is called when a replayed creation assigns the server id of
// an item that was known by tempID.
type ReconcileFunc func(ctx context.Context, tempID string, item shopping.Item)

// Queue is the ordered offline mutation log.
type Queue struct {
	store        Store
	connectivity Connectivity
	logger       logging.Logger
	metrics      *instrumentation.Metrics

	// mu serializes drains and appends.
	mu sync.Mutex
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithConnectivity makes Drain a no-op while c reports offline.
func WithConnectivity(c Connectivity) QueueOption {
	return func(q *Queue) {
		q.connectivity = c
	}
}

// WithLogger sets the queue logger.
func WithLogger(logger logging.Logger) QueueOption {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithMetrics records queue activity on m.
func WithMetrics(m *instrumentation.Metrics) QueueOption {
	return func(q *Queue) {
		q.metrics = m
	}
}

// NewQueue creates a queue over store.
func NewQueue(store Store, opts ...QueueOption) *Queue {
	q := &Queue{
		store:  store,
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends m to the log.
func (q *Queue) Enqueue(ctx context.Context, m Mutation) (Mutation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	stored, err := q.store.Append(ctx, m)
	if err != nil {
		return Mutation{}, err
	}
	q.metrics.RecordQueueEnqueue(ctx, string(stored.Action))
	q.recordDepth(ctx)
	q.logger.Debug("mutation queued",
		logging.Seq(stored.Seq), logging.Action(string(stored.Action)), logging.ItemID(stored.ItemID))
	return stored, nil
}

// EnqueueReplacing appends m and then removes the entries for the same item
// queued before it. A queued deletion makes earlier changes to the item
// pointless. The earlier entries are only removed once m is durable.
func (q *Queue) EnqueueReplacing(ctx context.Context, m Mutation) (Mutation, error) {
	stored, err := q.Enqueue(ctx, m)
	if err != nil {
		return Mutation{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	n, err := q.store.RemoveItemBefore(ctx, stored.ItemID, stored.Seq)
	if err != nil {
		return stored, err
	}
	if n > 0 {
		q.recordDepth(ctx)
		q.logger.Debug("replaced queued mutations", logging.ItemID(stored.ItemID), "count", n)
	}
	return stored, nil
}

// Pending returns the queued entries in replay order.
func (q *Queue) Pending(ctx context.Context) ([]Mutation, error) {
	return q.store.Pending(ctx)
}

// Len returns the number of queued entries.
func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.store.Count(ctx)
}

// Discard removes every entry for itemID and returns how many were removed.
func (q *Queue) Discard(ctx context.Context, itemID string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n, err := q.store.RemoveItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		q.recordDepth(ctx)
		q.logger.Debug("discarded queued mutations", logging.ItemID(itemID), "count", n)
	}
	return n, nil
}

// Skip removes the entry seq without replaying it. It is the only way an
// entry leaves the log other than a successful replay, and exists for
// entries the server will never accept.
func (q *Queue) Skip(ctx context.Context, seq int64) (Mutation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.store.Pending(ctx)
	if err != nil {
		return Mutation{}, err
	}
	idx := slices.IndexFunc(entries, func(m Mutation) bool { return m.Seq == seq })
	if idx < 0 {
		return Mutation{}, fmt.Errorf("%w: no queued mutation %d", ErrNoSuchMutation, seq)
	}
	if err := q.store.Remove(ctx, seq); err != nil {
		return Mutation{}, err
	}

	m := entries[idx]
	q.metrics.RecordQueueReplay(ctx, string(m.Action), instrumentation.ReplayResultSkipped)
	q.recordDepth(ctx)
	q.logger.Warn("skipped queued mutation", logging.Seq(m.Seq), logging.Action(string(m.Action)), logging.ItemID(m.ItemID))
	return m, nil
}

// Drain replays queued entries against target in sequence order and returns
// how many were applied. It does nothing while offline. Replay stops at the
// first entry that fails, whatever the cause; that entry and everything
// after it stay queued and the returned error wraps ErrQueueReplayFailed.
// An entry that can never succeed blocks the queue until it is removed with
// Skip.
func (q *Queue) Drain(ctx context.Context, target shopping.Service, reconcile ReconcileFunc) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.connectivity != nil && !q.connectivity.Online(ctx) {
		q.logger.Debug("offline, skipping drain")
		return 0, nil
	}

	ctx, span := instrumentation.StartSpan(ctx, "offline.drain")
	defer span.End()

	entries, err := q.store.Pending(ctx)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return 0, err
	}
	defer q.recordDepth(ctx)

	applied := 0
	for i := 0; i < len(entries); i++ {
		m := entries[i]
		action := string(m.Action)

		item, err := replay(ctx, target, m)
		if err != nil {
			q.metrics.RecordQueueReplay(ctx, action, instrumentation.ReplayResultFailure)
			q.logger.Warn("replay failed, stopping drain",
				logging.Seq(m.Seq), logging.Action(action), logging.ItemID(m.ItemID), logging.Err(err))
			err = fmt.Errorf("%w: seq %d (%s): %w", ErrQueueReplayFailed, m.Seq, m.Action, err)
			instrumentation.SetSpanError(span, err)
			return applied, err
		}

		if m.Action == ActionCreateItem && item.ID != m.ItemID {
			if err := q.store.Resolve(ctx, m.Seq, m.ItemID, item.ID); err != nil {
				return applied, err
			}
			for j := i + 1; j < len(entries); j++ {
				if entries[j].ItemID == m.ItemID {
					entries[j].ItemID = item.ID
				}
			}
			if reconcile != nil {
				reconcile(ctx, m.ItemID, item)
			}
		} else if err := q.store.Remove(ctx, m.Seq); err != nil {
			return applied, err
		}

		applied++
		q.metrics.RecordQueueReplay(ctx, action, instrumentation.ReplayResultSuccess)
		instrumentation.AddSpanEvent(span, "replayed",
			attribute.Int64("seq", m.Seq), attribute.String("action", action))
	}

	instrumentation.SetSpanSuccess(span)
	if applied > 0 {
		q.logger.Info("offline queue drained", "applied", applied)
	}
	return applied, nil
}

// Close closes the underlying store.
func (q *Queue) Close() error {
	return q.store.Close()
}

func (q *Queue) recordDepth(ctx context.Context) {
	if q.metrics == nil {
		return
	}
	if n, err := q.store.Count(ctx); err == nil {
		q.metrics.RecordQueueDepth(ctx, n)
	}
}

func replay(ctx context.Context, target shopping.Service, m Mutation) (shopping.Item, error) {
	switch m.Action {
	case ActionCreateItem:
		in, err := m.newItem()
		if err != nil {
			return shopping.Item{}, err
		}
		return target.CreateItem(ctx, m.ListID, in)
	case ActionUpdateItem:
		patch, err := m.patch()
		if err != nil {
			return shopping.Item{}, err
		}
		return target.UpdateItem(ctx, m.ItemID, patch)
	case ActionDeleteItem:
		return shopping.Item{}, target.DeleteItem(ctx, m.ItemID)
	default:
		return shopping.Item{}, fmt.Errorf("%w: unknown action %q", shopping.ErrInvalidInput, m.Action)
	}
}
