package bookclient

import (
	"context"
	"errors"

	apperrors "github.com/utafrali/bookreview/pkg/errors"
)

// LookupFunc fetches a book by id, returning an error matching
// apperrors.ErrNotFound when it is absent.
type LookupFunc func(ctx context.Context, bookID int64) error

// Local answers from an in-process catalog, for deployments and tests that
// run both services in one binary.
type Local struct {
	lookup LookupFunc
}

// NewLocal creates a Local checker over lookup.
func NewLocal(lookup LookupFunc) *Local {
	return &Local{lookup: lookup}
}

// Exists implements Checker.
func (l *Local) Exists(ctx context.Context, bookID int64) (bool, error) {
	err := l.lookup(ctx, bookID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return false, nil
	default:
		return false, &UpstreamError{Op: "local lookup", Err: err}
	}
}
