package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UserAgent identifies the pipeline to the scraped sites
const UserAgent = "lute-composers/0.4 (+https://github.com/franz/lute-composers)"

// NewHTTPClient returns a client with the given timeout (30s if zero)
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// secretParams are query parameters whose values never reach logs or errors
var secretParams = []string{"access_key", "api_key", "apikey", "key", "token"}

// RedactURL replaces the values of credential query parameters with
// REDACTED. Unparseable input loses its whole query.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	if u.RawQuery == "" {
		return raw
	}

	q := u.Query()
	redacted := false
	for name := range q {
		for _, secret := range secretParams {
			if strings.EqualFold(name, secret) {
				q.Set(name, "REDACTED")
				redacted = true
			}
		}
	}
	if !redacted {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchBytes GETs a URL and returns the body, retrying transient failures.
// Non-2xx responses are returned as *HTTPStatusError. Credentials in the
// query string are redacted from log lines and errors.
func FetchBytes(ctx context.Context, client *http.Client, rawURL string, cfg *RetryConfig) ([]byte, error) {
	return RetryWithBackoff(ctx, cfg, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := client.Do(req)
		if err != nil {
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				urlErr.URL = RedactURL(urlErr.URL)
			}
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if err := CheckStatus(resp); err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		return body, nil
	}, "GET "+RedactURL(rawURL))
}
