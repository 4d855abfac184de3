package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	apperrors "github.com/utafrali/bookreview/pkg/errors"
	"github.com/utafrali/bookreview/services/review/internal/domain"
	"github.com/utafrali/bookreview/services/review/internal/repository"
)

// ReviewRepository keeps reviews in process memory. Data is lost on restart.
type ReviewRepository struct {
	mu            sync.RWMutex
	lastID        int64
	reviews       map[int64]domain.Review
	enforceRating bool
	now           func() time.Time
}

// NewReviewRepository creates an empty in-memory store whose first id is 1.
func NewReviewRepository(enforceRating bool) *ReviewRepository {
	return &ReviewRepository{
		reviews:       make(map[int64]domain.Review),
		enforceRating: enforceRating,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a copy of review under a single lock so ids stay unique.
func (r *ReviewRepository) Create(_ context.Context, review *domain.Review) error {
	if r.enforceRating {
		if err := domain.ValidateRating(review.Rating); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	review.ID = r.lastID
	review.CreatedAt = r.now()

	r.reviews[review.ID] = review.Clone()
	return nil
}

// List returns reviews matching filter, newest first.
func (r *ReviewRepository) List(_ context.Context, filter repository.ReviewFilter) ([]domain.Review, error) {
	r.mu.RLock()
	reviews := make([]domain.Review, 0, len(r.reviews))
	for _, rv := range r.reviews {
		if filter.BookID != nil && rv.BookID != *filter.BookID {
			continue
		}
		reviews = append(reviews, rv.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(reviews, func(a, b domain.Review) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return reviews, nil
}

// GetByID returns a copy of the stored review.
func (r *ReviewRepository) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rv, ok := r.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	c := rv.Clone()
	return &c, nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reviews[id]; !ok {
		return apperrors.NotFound("review", id)
	}
	delete(r.reviews, id)
	return nil
}
