package shopping

import (
	"context"
	"errors"
	"fmt"

	"github.com/teemow/courses/internal/calstore"
	"github.com/teemow/courses/internal/vtodo"
)

var (
	// ErrUnauthenticated is returned when no principal is bound to the context.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound is returned when a list or item reference does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrMalformedRecord is returned when a stored record holds no task.
	ErrMalformedRecord = vtodo.ErrMalformedRecord

	// ErrStoreUnavailable is returned when the calendar store call fails.
	ErrStoreUnavailable = errors.New("calendar store unavailable")

	// ErrInvalidInput is returned for empty names.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when the item changed in the store between
	// the read and the write of an update.
	ErrConflict = errors.New("item was modified concurrently")
)

// storeError maps a calendar store error onto the shopping taxonomy, keeping
// the original error in the chain.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, calstore.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, calstore.ErrPreconditionFailed):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, calstore.ErrInvalidObject):
		return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
