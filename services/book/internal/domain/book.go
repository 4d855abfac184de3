package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/utafrali/bookreview/pkg/errors"
)

const (
	MaxTitleLength   = 255
	MaxAuthorLength  = 255
	MaxPublishedYear = 9999
)

// Book is a catalog entry. ID is assigned by the store and never changes.
type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   *string   `json:"description"`
	PublishedYear *int      `json:"published_year"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Normalize trims surrounding whitespace from text fields.
func (b *Book) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
}

// Validate checks the caller-supplied fields.
func (b *Book) Validate() error {
	switch {
	case b.Title == "":
		return apperrors.Validation("title is required")
	case utf8.RuneCountInString(b.Title) > MaxTitleLength:
		return apperrors.Validation("title must be at most 255 characters")
	case b.Author == "":
		return apperrors.Validation("author is required")
	case utf8.RuneCountInString(b.Author) > MaxAuthorLength:
		return apperrors.Validation("author must be at most 255 characters")
	case b.PublishedYear != nil && (*b.PublishedYear < 0 || *b.PublishedYear > MaxPublishedYear):
		return apperrors.Validation("published_year must be between 0 and 9999")
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (b Book) Clone() Book {
	if b.Description != nil {
		d := *b.Description
		b.Description = &d
	}
	if b.PublishedYear != nil {
		y := *b.PublishedYear
		b.PublishedYear = &y
	}
	return b
}
