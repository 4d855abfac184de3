package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/bookreview/services/book/internal/domain"
	"github.com/utafrali/bookreview/services/book/internal/event"
	"github.com/utafrali/bookreview/services/book/internal/repository"
)

// BookService implements the catalog operations.
type BookService struct {
	repo     repository.BookRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewBookService creates a BookService.
func NewBookService(repo repository.BookRepository, producer *event.Producer, logger *slog.Logger) *BookService {
	return &BookService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// BookInput carries the caller-supplied fields for create and update.
type BookInput struct {
	Title         string
	Author        string
	Description   *string
	PublishedYear *int
}

func (in BookInput) toBook() domain.Book {
	b := domain.Book{
		Title:         in.Title,
		Author:        in.Author,
		Description:   in.Description,
		PublishedYear: in.PublishedYear,
	}
	b.Normalize()
	return b
}

// CreateBook validates and stores a new book.
func (s *BookService) CreateBook(ctx context.Context, in BookInput) (*domain.Book, error) {
	book := in.toBook()
	if err := book.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	if err := s.producer.PublishBookCreated(ctx, &book); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish book.created event",
			slog.Int64("book_id", book.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "book created", slog.Int64("book_id", book.ID))
	return &book, nil
}

// GetBook returns one book.
func (s *BookService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// ListBooks returns every book ordered by id.
func (s *BookService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// UpdateBook replaces the caller-supplied fields of an existing book.
func (s *BookService) UpdateBook(ctx context.Context, id int64, in BookInput) (*domain.Book, error) {
	book := in.toBook()
	if err := book.Validate(); err != nil {
		return nil, err
	}
	book.ID = id

	if err := s.repo.Update(ctx, &book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	if err := s.producer.PublishBookUpdated(ctx, &book); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish book.updated event",
			slog.Int64("book_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "book updated", slog.Int64("book_id", id))
	return &book, nil
}

// DeleteBook removes a book. Its reviews are kept.
func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if err := s.producer.PublishBookDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish book.deleted event",
			slog.Int64("book_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "book deleted", slog.Int64("book_id", id))
	return nil
}
