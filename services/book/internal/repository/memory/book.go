package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	apperrors "github.com/utafrali/bookreview/pkg/errors"
	"github.com/utafrali/bookreview/services/book/internal/domain"
)

// BookRepository keeps books in process memory. Data is lost on restart.
type BookRepository struct {
	mu     sync.RWMutex
	lastID int64
	books  map[int64]domain.Book
	now    func() time.Time
}

// NewBookRepository creates an empty in-memory store whose first id is 1.
func NewBookRepository() *BookRepository {
	return &BookRepository{
		books: make(map[int64]domain.Book),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a copy of book. Reading the counter, assigning the id and
// inserting happen under one lock so concurrent creates get distinct ids.
func (r *BookRepository) Create(_ context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	now := r.now()
	book.ID = r.lastID
	book.CreatedAt = now
	book.UpdatedAt = now

	r.books[book.ID] = book.Clone()
	return nil
}

// GetByID returns a copy of the stored book.
func (r *BookRepository) GetByID(_ context.Context, id int64) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return nil, apperrors.NotFound("book", id)
	}
	c := b.Clone()
	return &c, nil
}

// List returns all books ordered by id.
func (r *BookRepository) List(_ context.Context) ([]domain.Book, error) {
	r.mu.RLock()
	books := make([]domain.Book, 0, len(r.books))
	for _, b := range r.books {
		books = append(books, b.Clone())
	}
	r.mu.RUnlock()

	slices.SortFunc(books, func(a, b domain.Book) int { return cmp.Compare(a.ID, b.ID) })
	return books, nil
}

// Update replaces the mutable fields of an existing book.
func (r *BookRepository) Update(_ context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.books[book.ID]
	if !ok {
		return apperrors.NotFound("book", book.ID)
	}

	existing.Title = book.Title
	existing.Author = book.Author
	existing.Description = book.Description
	existing.PublishedYear = book.PublishedYear
	existing.UpdatedAt = r.now()
	existing = existing.Clone()
	r.books[book.ID] = existing

	book.CreatedAt = existing.CreatedAt
	book.UpdatedAt = existing.UpdatedAt
	return nil
}

// Delete removes a book.
func (r *BookRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return apperrors.NotFound("book", id)
	}
	delete(r.books, id)
	return nil
}

