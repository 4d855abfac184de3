package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/bookreview/pkg/database"
	apperrors "github.com/utafrali/bookreview/pkg/errors"
	"github.com/utafrali/bookreview/services/book/internal/domain"
)

var bookColumns = []string{
	"id", "title", "author", "description", "published_year", "created_at", "updated_at",
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newTestRepo(t *testing.T) (*BookRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewBookRepository(mock), mock
}

func sampleBook() domain.Book {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.Book{
		ID:            1,
		Title:         "Dune",
		Author:        "Frank Herbert",
		Description:   strPtr("Desert planet"),
		PublishedYear: intPtr(1965),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func bookRow(b domain.Book) []any {
	return []any{b.ID, b.Title, b.Author, b.Description, b.PublishedYear, b.CreatedAt, b.UpdatedAt}
}

func TestBookRepository_Create_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	now := time.Now().UTC()
	b := &domain.Book{Title: "Dune", Author: "Frank Herbert", Description: strPtr("Desert planet")}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO books").
		WithArgs(b.Title, b.Author, b.Description, b.PublishedYear).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), b))
	assert.Equal(t, int64(7), b.ID)
	assert.Equal(t, now, b.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Create_InsertErrorRollsBack(t *testing.T) {
	repo, mock := newTestRepo(t)

	b := &domain.Book{Title: "Dune", Author: "Frank Herbert"}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO books").
		WithArgs(b.Title, b.Author, b.Description, b.PublishedYear).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert book")
	assert.Zero(t, b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Create_BeginError(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), &domain.Book{Title: "x", Author: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_GetByID(t *testing.T) {
	repo, mock := newTestRepo(t)
	b := sampleBook()

	mock.ExpectQuery("SELECT (.+) FROM books WHERE id").
		WithArgs(b.ID).
		WillReturnRows(pgxmock.NewRows(bookColumns).AddRow(bookRow(b)...))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM books WHERE id").
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_List(t *testing.T) {
	repo, mock := newTestRepo(t)

	b1 := sampleBook()
	b2 := sampleBook()
	b2.ID = 2
	b2.Title = "Emma"
	b2.Description = nil
	b2.PublishedYear = nil

	mock.ExpectQuery("SELECT (.+) FROM books ORDER BY id").
		WillReturnRows(pgxmock.NewRows(bookColumns).AddRow(bookRow(b1)...).AddRow(bookRow(b2)...))

	books, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, int64(1), books[0].ID)
	assert.Equal(t, "Emma", books[1].Title)
	assert.Nil(t, books[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_List_EmptyIsNotNil(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM books").WillReturnRows(pgxmock.NewRows(bookColumns))

	books, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestBookRepository_Update(t *testing.T) {
	repo, mock := newTestRepo(t)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	b := &domain.Book{ID: 3, Title: "Dune Messiah", Author: "Frank Herbert"}

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE books").
		WithArgs(b.Title, b.Author, b.Description, b.PublishedYear, b.ID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, updated))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), b))
	assert.Equal(t, created, b.CreatedAt)
	assert.Equal(t, updated, b.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Update_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	b := &domain.Book{ID: 3, Title: "x", Author: "y"}

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE books").
		WithArgs(b.Title, b.Author, b.Description, b.PublishedYear, b.ID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Update(context.Background(), b)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Delete(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM books").WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM books").WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 5)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
