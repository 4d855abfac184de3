package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/bookreview/pkg/database"
	apperrors "github.com/utafrali/bookreview/pkg/errors"
	"github.com/utafrali/bookreview/services/book/internal/domain"
)

// BookRepository implements repository.BookRepository on PostgreSQL.
type BookRepository struct {
	pool database.DBTX
}

// NewBookRepository creates a PostgreSQL-backed book repository.
func NewBookRepository(pool database.DBTX) *BookRepository {
	return &BookRepository{pool: pool}
}

const (
	insertBookQuery = `
		INSERT INTO books (title, author, description, published_year)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	getBookQuery = `
		SELECT id, title, author, description, published_year, created_at, updated_at
		FROM books
		WHERE id = $1`

	listBooksQuery = `
		SELECT id, title, author, description, published_year, created_at, updated_at
		FROM books
		ORDER BY id`

	updateBookQuery = `
		UPDATE books
		SET title = $1, author = $2, description = $3, published_year = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING created_at, updated_at`

	deleteBookQuery = `DELETE FROM books WHERE id = $1`
)

// Create inserts a book inside a transaction and fills the generated columns.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateBook", insertBookQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, insertBookQuery, b.Title, b.Author, b.Description, b.PublishedYear).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID fetches one book.
func (r *BookRepository) GetByID(ctx context.Context, id int64) (_ *domain.Book, err error) {
	ctx, end := database.TraceQuery(ctx, "GetBook", getBookQuery)
	defer func() { end(err) }()

	var b domain.Book
	err = r.pool.QueryRow(ctx, getBookQuery, id).Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Description,
		&b.PublishedYear,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("book", id)
		}
		return nil, fmt.Errorf("get book by id: %w", err)
	}
	return &b, nil
}

// List returns every book ordered by id.
func (r *BookRepository) List(ctx context.Context) (_ []domain.Book, err error) {
	ctx, end := database.TraceQuery(ctx, "ListBooks", listBooksQuery)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listBooksQuery)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		var b domain.Book
		if err = rows.Scan(
			&b.ID,
			&b.Title,
			&b.Author,
			&b.Description,
			&b.PublishedYear,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book rows: %w", err)
	}
	return books, nil
}

// Update replaces the mutable columns of an existing book.
func (r *BookRepository) Update(ctx context.Context, b *domain.Book) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateBook", updateBookQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, updateBookQuery, b.Title, b.Author, b.Description, b.PublishedYear, b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("book", b.ID)
		}
		return fmt.Errorf("update book: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes a book. Reviews referencing it are left untouched.
func (r *BookRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteBook", deleteBookQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, deleteBookQuery, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("book", id)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
