package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/utafrali/bookreview/pkg/errors"
)

const (
	MinRating         = 1
	MaxRating         = 5
	MaxReviewerLength = 255
)

// Review is a reader's opinion of a book. BookID is checked against the
// catalog only when the review is created.
type Review struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	Reviewer  string    `json:"reviewer"`
	Content   *string   `json:"content"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// Normalize trims surrounding whitespace from the reviewer name.
func (r *Review) Normalize() {
	r.Reviewer = strings.TrimSpace(r.Reviewer)
}

// Validate checks the caller-supplied fields. The rating range is only
// enforced when enforceRating is set.
func (r *Review) Validate(enforceRating bool) error {
	switch {
	case r.BookID <= 0:
		return apperrors.Validation("book_id must be a positive integer")
	case r.Reviewer == "":
		return apperrors.Validation("reviewer is required")
	case utf8.RuneCountInString(r.Reviewer) > MaxReviewerLength:
		return apperrors.Validation("reviewer must be at most 255 characters")
	}
	if enforceRating {
		return ValidateRating(r.Rating)
	}
	return nil
}

// ValidateRating rejects ratings outside MinRating..MaxRating.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.Validation("rating must be between 1 and 5")
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r Review) Clone() Review {
	if r.Content != nil {
		c := *r.Content
		r.Content = &c
	}
	return r
}
