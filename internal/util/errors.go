package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingColumn indicates an input CSV lacks a required column
	ErrMissingColumn = errors.New("missing column")

	// ErrBadStatus indicates an HTTP response outside the 2xx range
	ErrBadStatus = errors.New("bad status code")

	// ErrNoMatch indicates a search page had no candidate close enough to the query
	ErrNoMatch = errors.New("no matching search result")
)

// HTTPStatusError carries the status code of a failed HTTP request
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap lets errors.Is match ErrBadStatus
func (e *HTTPStatusError) Unwrap() error {
	return ErrBadStatus
}

// Temporary reports whether the status is worth retrying (429 and 5xx)
func (e *HTTPStatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// CheckStatus returns an *HTTPStatusError for non-2xx responses
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	u := ""
	if resp.Request != nil && resp.Request.URL != nil {
		u = RedactURL(resp.Request.URL.String())
	}
	return &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
}
