package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/bookreview/pkg/health"
	"github.com/utafrali/bookreview/pkg/httputil"
	pkgkafka "github.com/utafrali/bookreview/pkg/kafka"
	"github.com/utafrali/bookreview/services/book/internal/domain"
	"github.com/utafrali/bookreview/services/book/internal/event"
	"github.com/utafrali/bookreview/services/book/internal/repository/memory"
	"github.com/utafrali/bookreview/services/book/internal/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewBookService(memory.NewBookRepository(), event.NewProducer(pkgkafka.NopPublisher{}, log), log)
	return NewRouter(svc, health.NewHandler(), log, RouterConfig{})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var env httputil.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	return env.Error
}

func TestCreateAndGetBook(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/books",
		`{"title":"Dune","author":"Frank Herbert","description":"Desert planet","published_year":1965}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Desert planet", *created.Description)
	assert.Equal(t, 1965, *created.PublishedYear)

	rec = do(t, h, http.MethodGet, "/books/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Author, got.Author)
}

func TestCreateBook_DescriptionOptional(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/books", `{"title":"Emma","author":"Jane Austen"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"description":null`)
}

func TestCreateBook_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		code     string
		fieldKey string
	}{
		{"malformed json", `{"title":`, http.StatusBadRequest, "INVALID_INPUT", ""},
		{"empty body", ``, http.StatusBadRequest, "INVALID_INPUT", ""},
		{"missing title", `{"author":"x"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title"},
		{"missing author", `{"title":"x"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "author"},
		{"blank title", `{"title":"   ","author":"x"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR", ""},
		{"year out of range", `{"title":"x","author":"y","published_year":12000}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "published_year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRouter(t), http.MethodPost, "/books", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			errResp := decodeError(t, rec)
			assert.Equal(t, tt.code, errResp.Code)
			if tt.fieldKey != "" {
				assert.Contains(t, errResp.Fields, tt.fieldKey)
			}
		})
	}
}

func TestListBooks(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, title := range []string{"A", "B", "C"} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/books", `{"title":"`+title+`","author":"x"}`).Code)
	}

	rec = do(t, h, http.MethodGet, "/books", "")
	var books []domain.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &books))
	require.Len(t, books, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{books[0].Title, books[1].Title, books[2].Title})
}

func TestGetBook_BadAndMissingIDs(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/books/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", decodeError(t, rec).Code)

	rec = do(t, h, http.MethodGet, "/books/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/books/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestUpdateBook(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/books", `{"title":"Dune","author":"Herbert","description":"d"}`).Code)

	rec := do(t, h, http.MethodPut, "/books/1", `{"title":"Dune Messiah","author":"Frank Herbert"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var b domain.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, int64(1), b.ID)
	assert.Equal(t, "Dune Messiah", b.Title)
	assert.Nil(t, b.Description)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/books/9", `{"title":"x","author":"y"}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPut, "/books/1", `{"title":"x"}`).Code)
}

func TestDeleteBook(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/books", `{"title":"Dune","author":"Herbert"}`).Code)

	rec := do(t, h, http.MethodDelete, "/books/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/books/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/books/1", "").Code)
}

func TestRouter_HealthAndCORS(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	req := httptest.NewRequest(http.MethodOptions, "/books", bytes.NewReader(nil))
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodGet, "/books", "")
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
