package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/bookreview/pkg/errors"
	"github.com/utafrali/bookreview/services/book/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestBookRepository_CreateAssignsIncreasingIDs(t *testing.T) {
	repo := NewBookRepository()
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"Dune", "Emma", "Ulysses"} {
		b := &domain.Book{Title: title, Author: "someone"}
		require.NoError(t, repo.Create(ctx, b))
		ids = append(ids, b.ID)
		assert.False(t, b.CreatedAt.IsZero())
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestBookRepository_IDsNotReusedAfterDelete(t *testing.T) {
	repo := NewBookRepository()
	ctx := context.Background()

	first := &domain.Book{Title: "a", Author: "b"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Delete(ctx, first.ID))

	second := &domain.Book{Title: "c", Author: "d"}
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, int64(2), second.ID)
}

func TestBookRepository_RoundTrip(t *testing.T) {
	repo := NewBookRepository()
	ctx := context.Background()

	in := &domain.Book{Title: "Dune", Author: "Frank Herbert", Description: strPtr("Desert planet")}
	require.NoError(t, repo.Create(ctx, in))

	got, err := repo.GetByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, *in, *got)

	*got.Description = "mutated"
	again, err := repo.GetByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desert planet", *again.Description)
}

func TestBookRepository_ListOrderedAndNeverNil(t *testing.T) {
	repo := NewBookRepository()
	ctx := context.Background()

	books, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)

	for i := 0; i < 20; i++ {
		require.NoError(t, repo.Create(ctx, &domain.Book{Title: "t", Author: "a"}))
	}
	books, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 20)
	for i, b := range books {
		assert.Equal(t, int64(i+1), b.ID)
	}
}

func TestBookRepository_UpdateReplacesFields(t *testing.T) {
	repo := NewBookRepository()
	ctx := context.Background()

	b := &domain.Book{Title: "Dune", Author: "Herbert", Description: strPtr("old")}
	require.NoError(t, repo.Create(ctx, b))
	created := b.CreatedAt

	update := &domain.Book{ID: b.ID, Title: "Dune Messiah", Author: "Frank Herbert"}
	require.NoError(t, repo.Update(ctx, update))
	assert.Equal(t, created, update.CreatedAt)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Nil(t, got.Description)
	assert.Equal(t, created, got.CreatedAt)
}

func TestBookRepository_MissingIDsReturnNotFound(t *testing.T) {
	repo := NewBookRepository()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 99)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	err = repo.Update(ctx, &domain.Book{ID: 99, Title: "x", Author: "y"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	err = repo.Delete(ctx, 99)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestBookRepository_ConcurrentCreates(t *testing.T) {
	repo := NewBookRepository()
	ctx := context.Background()

	const n = 200
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := &domain.Book{Title: "t", Author: "a"}
			if err := repo.Create(ctx, b); err == nil {
				ids <- b.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	require.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing id %d", i)
	}
}
