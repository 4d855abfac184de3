// Package bookclient answers whether a book exists in the catalog. The
// review service consults it before storing a review.
package bookclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrUpstreamUnavailable means the catalog could not give an answer. It is
// distinct from a definite "does not exist".
var ErrUpstreamUnavailable = errors.New("book service unavailable")

// Checker reports whether a book exists. A nil error with false means the
// catalog answered and the book is absent. Any non-nil error wraps
// ErrUpstreamUnavailable.
type Checker interface {
	Exists(ctx context.Context, bookID int64) (bool, error)
}

// UpstreamError describes a failed existence lookup.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("book service %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("book service %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstreamUnavailable}
	}
	return []error{ErrUpstreamUnavailable, e.Err}
}

// Outcome labels for book_existence_checks_total.
const (
	OutcomeFound       = "found"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
)

var existenceChecks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "book_existence_checks_total",
		Help: "Book existence checks made before creating a review, by outcome.",
	},
	[]string{"outcome"},
)

type instrumented struct {
	next Checker
}

// WithMetrics counts every answer of next in book_existence_checks_total.
func WithMetrics(next Checker) Checker {
	return &instrumented{next: next}
}

func (c *instrumented) Exists(ctx context.Context, bookID int64) (bool, error) {
	found, err := c.next.Exists(ctx, bookID)
	existenceChecks.WithLabelValues(outcome(found, err)).Inc()
	return found, err
}

func outcome(found bool, err error) string {
	switch {
	case err != nil:
		return OutcomeUnavailable
	case found:
		return OutcomeFound
	default:
		return OutcomeNotFound
	}
}
