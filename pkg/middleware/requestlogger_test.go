package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/bookreview/pkg/logger"
)

func TestRequestLogger_InjectsEnrichedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf)

	h := RequestLogging(newTestLogger(nil))(RequestLogger(base)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("inside handler")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "corr-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"correlation_id":"corr-1"`)
	assert.Contains(t, buf.String(), "inside handler")
}

func TestRequestLogger_WithoutCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(newTestLogger(&buf))(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("bare")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "bare")
	assert.NotContains(t, buf.String(), "correlation_id")
}
