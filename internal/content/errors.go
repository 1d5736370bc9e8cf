package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a response from the content API with a status of 400 or above.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	// Detail is the API's "detail" message, when the body carried one.
	Detail string
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, StatusCode: status, Body: body}

	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Detail = payload.Detail
		if e.Detail == "" {
			e.Detail = payload.Error
		}
	}
	return e
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API error: %s %s: %d %s - %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("API error: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func IsRateLimited(err error) bool {
	return StatusOf(err) == http.StatusTooManyRequests
}

// IsRetryable reports whether repeating the request could succeed: transport
// failures and 5xx are retryable, other API errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	status := StatusOf(err)
	return status == 0 || status >= 500
}
