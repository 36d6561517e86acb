package search

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoCriteria signals a request with no text, tags or dates. Callers
	// serve it with a plain chronological listing instead.
	ErrNoCriteria = errors.New("no search criteria")

	// ErrSearchUnavailable is returned when the search index cannot answer.
	// It is retryable; callers must surface it rather than fall back to
	// unfiltered data.
	ErrSearchUnavailable = errors.New("search unavailable")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSearchUnavailable, op, err)
}

// IsRetryable reports whether err is a transient engine failure worth
// retrying later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSearchUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
