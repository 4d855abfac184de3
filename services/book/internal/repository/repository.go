package repository

import (
	"context"

	"github.com/utafrali/bookreview/services/book/internal/domain"
)

// BookRepository defines the storage contract for books.
type BookRepository interface {
	// Create assigns the next id and timestamps, stores the book and fills
	// those fields on the passed record.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID returns apperrors.ErrNotFound when no book has the id.
	GetByID(ctx context.Context, id int64) (*domain.Book, error)

	// List returns all books ordered by id ascending, never nil.
	List(ctx context.Context) ([]domain.Book, error)

	// Update replaces title, author, description and published year of an
	// existing book and refreshes UpdatedAt on the passed record.
	Update(ctx context.Context, book *domain.Book) error

	// Delete removes the book or returns apperrors.ErrNotFound.
	Delete(ctx context.Context, id int64) error
}
