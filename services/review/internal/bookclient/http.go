package bookclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/utafrali/bookreview/pkg/httpclient"
)

// LookupMode selects how HTTPClient asks the catalog about a book.
type LookupMode string

const (
	// LookupSingle fetches GET /books/{id}.
	LookupSingle LookupMode = "single"
	// LookupList fetches GET /books and searches the result.
	LookupList LookupMode = "list"
)

// DefaultTimeout bounds a lookup when HTTPConfig.Timeout is unset.
const DefaultTimeout = 3 * time.Second

const (
	serviceName     = "book-service"
	maxBookBody     = 1 << 20
	maxBookListBody = 32 << 20
)

// HTTPConfig configures HTTPClient.
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
	Mode    LookupMode
}

// HTTPClient checks existence against the book service REST API. Each call
// makes exactly one request and is bounded by Timeout.
type HTTPClient struct {
	client  *httpclient.Client
	baseURL string
	timeout time.Duration
	mode    LookupMode
}

// NewHTTPClient creates an HTTPClient. An empty mode means LookupSingle and
// a zero timeout means DefaultTimeout.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.Timeout
	hc.MaxRetries = 0

	mode := cfg.Mode
	if mode == "" {
		mode = LookupSingle
	}

	return &HTTPClient{
		client:  httpclient.New(hc),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		mode:    mode,
	}
}

type bookRef struct {
	ID int64 `json:"id"`
}

// Exists implements Checker.
func (c *HTTPClient) Exists(ctx context.Context, bookID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.mode == LookupList {
		return c.existsInList(ctx, bookID)
	}
	return c.existsSingle(ctx, bookID)
}

func (c *HTTPClient) existsSingle(ctx context.Context, bookID int64) (bool, error) {
	const op = "get book"

	resp, err := c.client.Get(ctx, c.baseURL+"/books/"+strconv.FormatInt(bookID, 10))
	if err != nil {
		return false, &UpstreamError{Op: op, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_ = resp.Body.Close()
		return false, nil
	default:
		return false, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: httpclient.ParseResponseError(resp, serviceName)}
	}
	defer func() { _ = resp.Body.Close() }()

	var book bookRef
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBookBody)).Decode(&book); err != nil {
		return false, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode book: %w", err)}
	}
	if book.ID != bookID {
		return false, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("asked for book %d, got %d", bookID, book.ID)}
	}
	return true, nil
}

func (c *HTTPClient) existsInList(ctx context.Context, bookID int64) (bool, error) {
	const op = "list books"

	resp, err := c.client.Get(ctx, c.baseURL+"/books")
	if err != nil {
		return false, &UpstreamError{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return false, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: httpclient.ParseResponseError(resp, serviceName)}
	}
	defer func() { _ = resp.Body.Close() }()

	var books []bookRef
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBookListBody)).Decode(&books); err != nil {
		return false, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode books: %w", err)}
	}
	return slices.ContainsFunc(books, func(b bookRef) bool { return b.ID == bookID }), nil
}
