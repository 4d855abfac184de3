package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/utafrali/bookreview/pkg/errors"
	"github.com/utafrali/bookreview/services/review/internal/bookclient"
	"github.com/utafrali/bookreview/services/review/internal/domain"
	"github.com/utafrali/bookreview/services/review/internal/event"
	"github.com/utafrali/bookreview/services/review/internal/repository"
)

// bookDependency names the catalog in DependencyUnavailable errors.
const bookDependency = "book-service"

// ReviewService implements the review operations.
type ReviewService struct {
	repo          repository.ReviewRepository
	books         bookclient.Checker
	producer      *event.Producer
	logger        *slog.Logger
	enforceRating bool
}

// NewReviewService creates a ReviewService.
func NewReviewService(
	repo repository.ReviewRepository,
	books bookclient.Checker,
	producer *event.Producer,
	logger *slog.Logger,
	enforceRating bool,
) *ReviewService {
	return &ReviewService{
		repo:          repo,
		books:         books,
		producer:      producer,
		logger:        logger,
		enforceRating: enforceRating,
	}
}

// ReviewInput carries the caller-supplied fields for a new review.
type ReviewInput struct {
	BookID   int64
	Reviewer string
	Content  *string
	Rating   int
}

// CreateReview validates the input, confirms the book exists, then stores
// the review. Nothing is stored when the book is missing or the catalog
// cannot be reached.
func (s *ReviewService) CreateReview(ctx context.Context, in ReviewInput) (*domain.Review, error) {
	review := domain.Review{
		BookID:   in.BookID,
		Reviewer: in.Reviewer,
		Content:  in.Content,
		Rating:   in.Rating,
	}
	review.Normalize()
	if err := review.Validate(s.enforceRating); err != nil {
		return nil, err
	}

	found, err := s.books.Exists(ctx, review.BookID)
	if err != nil {
		s.logger.WarnContext(ctx, "book existence check failed",
			slog.Int64("book_id", review.BookID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.DependencyUnavailable(bookDependency, err)
	}
	if !found {
		return nil, apperrors.BookNotFound(review.BookID)
	}

	// The book can still be deleted between the check above and the insert
	// below. Such a review is kept; reviews are never cascaded.
	if err := s.repo.Create(ctx, &review); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "failed to persist review",
			slog.String("operation", "create_review"),
			slog.Int64("book_id", review.BookID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Internal(fmt.Errorf("create review: %w", err))
	}

	if err := s.producer.PublishReviewCreated(ctx, &review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.Int64("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.Int64("review_id", review.ID),
		slog.Int64("book_id", review.BookID),
	)
	return &review, nil
}

// ListReviews returns reviews newest first, limited to one book when bookID
// is set.
func (s *ReviewService) ListReviews(ctx context.Context, bookID *int64) ([]domain.Review, error) {
	reviews, err := s.repo.List(ctx, repository.ReviewFilter{BookID: bookID})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// GetReview returns one review.
func (s *ReviewService) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// DeleteReview removes a review.
func (s *ReviewService) DeleteReview(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := s.producer.PublishReviewDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.Int64("review_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted", slog.Int64("review_id", id))
	return nil
}
