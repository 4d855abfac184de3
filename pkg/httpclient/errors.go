package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError reports a downstream response with an unexpected status code.
// Code and Message are filled when the body used the standard error envelope.
type StatusError struct {
	Service    string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s returned status %d (%s): %s", e.Service, e.StatusCode, e.Code, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

type downstreamEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError drains and closes resp.Body and returns a *StatusError
// describing it. Callers invoke it only for statuses they do not handle.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	statusErr := &StatusError{Service: service, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return statusErr
	}

	var env downstreamEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		statusErr.Code = env.Error.Code
		statusErr.Message = env.Error.Message
		return statusErr
	}

	statusErr.Message = string(body)
	return statusErr
}

// IsClientError reports whether status is a 4xx code.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
