package bookclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/bookreview/pkg/logger"
)

func newBookServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func requireUnavailable(t *testing.T, err error) *UpstreamError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	return upErr
}

func TestHTTPClient_Single(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantFound  bool
		wantErr    bool
		wantStatus int
	}{
		{"found", http.StatusOK, `{"id":7,"title":"Dune","author":"Frank Herbert"}`, true, false, 0},
		{"not found", http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"book with id 7 not found"}}`, false, false, 0},
		{"server error", http.StatusInternalServerError, `{"error":{"code":"INTERNAL_ERROR","message":"boom"}}`, false, true, 500},
		{"bad gateway", http.StatusBadGateway, `upstream down`, false, true, 502},
		{"malformed body", http.StatusOK, `{"id":`, false, true, 200},
		{"different book", http.StatusOK, `{"id":8}`, false, true, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBookServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/books/7", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			client := NewHTTPClient(HTTPConfig{BaseURL: srv.URL + "/", Timeout: time.Second})
			found, err := client.Exists(context.Background(), 7)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.wantFound, found)
				return
			}
			assert.False(t, found)
			upErr := requireUnavailable(t, err)
			assert.Equal(t, tt.wantStatus, upErr.StatusCode)
		})
	}
}

func TestHTTPClient_SingleAttemptOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := newBookServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	client := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, Timeout: time.Second})
	_, err := client.Exists(context.Background(), 1)

	requireUnavailable(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_Timeout(t *testing.T) {
	srv := newBookServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	client := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	found, err := client.Exists(context.Background(), 1)

	assert.False(t, found)
	requireUnavailable(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHTTPClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewHTTPClient(HTTPConfig{BaseURL: url, Timeout: time.Second})
	_, err := client.Exists(context.Background(), 1)

	upErr := requireUnavailable(t, err)
	assert.Zero(t, upErr.StatusCode)
}

func TestHTTPClient_PropagatesCorrelationID(t *testing.T) {
	var got atomic.Value
	srv := newBookServer(t, func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("X-Correlation-ID"))
		_, _ = w.Write([]byte(`{"id":3}`))
	})

	client := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, Timeout: time.Second})
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")

	found, err := client.Exists(ctx, 3)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "corr-123", got.Load())
}

func TestHTTPClient_List(t *testing.T) {
	srv := newBookServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"title":"a"},{"id":4,"title":"b"}]`))
	})

	client := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, Timeout: time.Second, Mode: LookupList})

	found, err := client.Exists(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = client.Exists(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHTTPClient_ListFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found is a failure in list mode", http.StatusNotFound, `{}`},
		{"server error", http.StatusInternalServerError, `{}`},
		{"not an array", http.StatusOK, `{"id":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBookServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			client := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, Timeout: time.Second, Mode: LookupList})
			_, err := client.Exists(context.Background(), 1)
			requireUnavailable(t, err)
		})
	}
}

func TestNewHTTPClient_Defaults(t *testing.T) {
	client := NewHTTPClient(HTTPConfig{BaseURL: "http://book:8000"})
	assert.Equal(t, DefaultTimeout, client.timeout)
	assert.Equal(t, LookupSingle, client.mode)
}
