package repository

import (
	"context"

	"github.com/utafrali/bookreview/services/review/internal/domain"
)

// ReviewFilter narrows List. A nil BookID matches every review.
type ReviewFilter struct {
	BookID *int64
}

// ReviewRepository defines the storage contract for reviews.
type ReviewRepository interface {
	// Create assigns the next id and created_at and stores the review. When
	// the store enforces ratings, out-of-range ratings fail with
	// apperrors.ErrValidation and nothing is stored.
	Create(ctx context.Context, review *domain.Review) error

	// List returns matching reviews newest first (created_at DESC, id DESC),
	// never nil.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, error)

	GetByID(ctx context.Context, id int64) (*domain.Review, error)

	Delete(ctx context.Context, id int64) error
}
