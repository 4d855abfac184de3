package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_StructuredBody(t *testing.T) {
	resp := makeResponse(http.StatusInternalServerError,
		`{"error":{"code":"INTERNAL_ERROR","message":"an internal error occurred"}}`)

	err := ParseResponseError(resp, "book-service")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", statusErr.Code)
	assert.Equal(t, "an internal error occurred", statusErr.Message)
	assert.Contains(t, err.Error(), "book-service returned status 500")
}

func TestParseResponseError_PlainBody(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusBadGateway, "upstream down"), "book-service")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Empty(t, statusErr.Code)
	assert.Equal(t, "book-service returned status 502: upstream down", err.Error())
}

func TestParseResponseError_EmptyBody(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusTeapot, ""), "book-service")
	assert.Equal(t, "book-service returned status 418", err.Error())
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(http.StatusNotFound))
	assert.False(t, IsClientError(http.StatusOK))
	assert.False(t, IsClientError(http.StatusServiceUnavailable))
}
