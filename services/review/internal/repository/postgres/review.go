package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/bookreview/pkg/database"
	apperrors "github.com/utafrali/bookreview/pkg/errors"
	"github.com/utafrali/bookreview/services/review/internal/domain"
	"github.com/utafrali/bookreview/services/review/internal/repository"
)

// ReviewRepository implements repository.ReviewRepository on PostgreSQL.
type ReviewRepository struct {
	pool          database.DBTX
	enforceRating bool
}

// NewReviewRepository creates a PostgreSQL-backed review repository. The
// rating range is checked here rather than in the schema so it can be
// switched off.
func NewReviewRepository(pool database.DBTX, enforceRating bool) *ReviewRepository {
	return &ReviewRepository{pool: pool, enforceRating: enforceRating}
}

const (
	insertReviewQuery = `
		INSERT INTO reviews (book_id, reviewer, content, rating)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	getReviewQuery = `
		SELECT id, book_id, reviewer, content, rating, created_at
		FROM reviews
		WHERE id = $1`

	listReviewsQuery = `
		SELECT id, book_id, reviewer, content, rating, created_at
		FROM reviews
		ORDER BY created_at DESC, id DESC`

	listReviewsByBookQuery = `
		SELECT id, book_id, reviewer, content, rating, created_at
		FROM reviews
		WHERE book_id = $1
		ORDER BY created_at DESC, id DESC`

	deleteReviewQuery = `DELETE FROM reviews WHERE id = $1`
)

// Create inserts a review inside a transaction and fills id and created_at.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	if r.enforceRating {
		if err := domain.ValidateRating(rv.Rating); err != nil {
			return err
		}
	}

	ctx, end := database.TraceQuery(ctx, "CreateReview", insertReviewQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, insertReviewQuery, rv.BookID, rv.Reviewer, rv.Content, rv.Rating).
		Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	rv.CreatedAt = rv.CreatedAt.UTC()
	return nil
}

// List returns reviews matching filter, newest first.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) (_ []domain.Review, err error) {
	query, args := listReviewsQuery, []any(nil)
	if filter.BookID != nil {
		query, args = listReviewsByBookQuery, []any{*filter.BookID}
	}

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

// GetByID fetches one review.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, "GetReview", getReviewQuery)
	defer func() { end(err) }()

	rv, err := scanReview(r.pool.QueryRow(ctx, getReviewQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return &rv, nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteReview", deleteReviewQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, deleteReviewQuery, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var rv domain.Review
	err := row.Scan(&rv.ID, &rv.BookID, &rv.Reviewer, &rv.Content, &rv.Rating, &rv.CreatedAt)
	rv.CreatedAt = rv.CreatedAt.UTC()
	return rv, err
}
