package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

const (
	bookPort   = 8000
	reviewPort = 8001
)

// baseURL returns the base URL for a service running on the given port.
// BOOK_SERVICE_URL and REVIEW_SERVICE_URL override the localhost defaults.
func baseURL(port int) string {
	switch port {
	case bookPort:
		if v := os.Getenv("BOOK_SERVICE_URL"); v != "" {
			return v
		}
	case reviewPort:
		if v := os.Getenv("REVIEW_SERVICE_URL"); v != "" {
			return v
		}
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

// uniqueTitle generates a title that will not collide with earlier runs.
func uniqueTitle(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UnixNano())
}

// skipIfNotRunning performs a quick health check against a service.
// If the service is unreachable, the test is skipped (not failed).
func skipIfNotRunning(t *testing.T, port int) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL(port) + "/health/live")
	if err != nil {
		t.Skipf("service on port %d not reachable: %v", port, err)
	}
	resp.Body.Close()
}

// doJSON sends a JSON request and returns the status code and raw body.
func doJSON(t *testing.T, method, url string, body any) (int, []byte) {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body failed: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		t.Fatalf("creating %s request for %s failed: %v", method, url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body failed: %v", err)
	}
	return resp.StatusCode, raw
}

// decode unmarshals raw into target or fails the test.
func decode(t *testing.T, raw []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("decoding %q failed: %v", raw, err)
	}
}

// requireStatus asserts that the HTTP status code matches the expected value.
func requireStatus(t *testing.T, got, want int, body []byte) {
	t.Helper()
	if got != want {
		t.Fatalf("expected status %d, got %d: %s", want, got, body)
	}
}

type book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

type review struct {
	ID       int64  `json:"id"`
	BookID   int64  `json:"book_id"`
	Reviewer string `json:"reviewer"`
	Rating   int    `json:"rating"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// createBook creates a book and returns it.
func createBook(t *testing.T, title string) book {
	t.Helper()
	status, raw := doJSON(t, http.MethodPost, baseURL(bookPort)+"/books", map[string]any{
		"title":  title,
		"author": "Integration Author",
	})
	requireStatus(t, status, http.StatusCreated, raw)

	var b book
	decode(t, raw, &b)
	if b.ID <= 0 {
		t.Fatalf("expected positive book id, got %d", b.ID)
	}
	return b
}

// errorCode extracts error.code from an error envelope.
func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var env errorEnvelope
	decode(t, raw, &env)
	return env.Error.Code
}
