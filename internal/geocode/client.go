// Package geocode resolves town names to coordinates through the
// positionstack forward-geocoding API.
package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/franz/lute-composers/internal/util"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the positionstack forward endpoint
	DefaultBaseURL = "http://api.positionstack.com/v1/forward"

	// DefaultRate is the request rate of the free positionstack plan
	DefaultRate = 2
)

// ErrNoAccessKey is returned when no API key is configured
var ErrNoAccessKey = errors.New("positionstack access key not set")

// Match is the first forward-geocoding hit for a query. A coordinate the
// API left out is NaN.
type Match struct {
	Label     string
	Longitude float64
	Latitude  float64
}

// ClientConfig configures the API client
type ClientConfig struct {
	AccessKey   string
	BaseURL     string        // "" = DefaultBaseURL
	Timeout     time.Duration // 0 = 30s
	RatePerSec  float64       // 0 = DefaultRate, < 0 = unlimited
	RetryConfig *util.RetryConfig
}

// Client calls the positionstack forward endpoint, one request at a time
// under a rate limit
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
	limiter    *rate.Limiter
	retry      *util.RetryConfig
}

// NewClient creates a new API client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.AccessKey == "" {
		return nil, ErrNoAccessKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = util.DefaultRetryConfig()
	}

	limit := rate.Limit(DefaultRate)
	switch {
	case cfg.RatePerSec < 0:
		limit = rate.Inf
	case cfg.RatePerSec > 0:
		limit = rate.Limit(cfg.RatePerSec)
	}

	return &Client{
		httpClient: util.NewHTTPClient(cfg.Timeout),
		baseURL:    cfg.BaseURL,
		accessKey:  cfg.AccessKey,
		limiter:    rate.NewLimiter(limit, 1),
		retry:      cfg.RetryConfig,
	}, nil
}

// forwardURL builds the request URL for a query
func (c *Client) forwardURL(query string) string {
	params := url.Values{}
	params.Set("access_key", c.accessKey)
	params.Set("query", query)
	params.Set("limit", "1")
	return c.baseURL + "?" + params.Encode()
}

// response is the envelope of a forward-geocoding response. Elements of
// data are decoded lazily because an empty result comes back as [[]].
type response struct {
	Data  []json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type hit struct {
	Label     string   `json:"label"`
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
}

// Forward looks up query and returns the first hit, or nil when the API
// found nothing.
func (c *Client) Forward(ctx context.Context, query string) (*Match, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := util.FetchBytes(ctx, c.httpClient, c.forwardURL(query), c.retry)
	if err != nil {
		return nil, redactKey(err, c.accessKey)
	}

	return decodeForward(body)
}

// decodeForward extracts the first hit of a response body
func decodeForward(body []byte) (*Match, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("positionstack error %s: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	first := bytes.TrimSpace(resp.Data[0])
	if len(first) == 0 || first[0] != '{' {
		return nil, nil
	}

	var h hit
	if err := json.Unmarshal(first, &h); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	m := &Match{Label: h.Label, Longitude: math.NaN(), Latitude: math.NaN()}
	if h.Longitude != nil {
		m.Longitude = *h.Longitude
	}
	if h.Latitude != nil {
		m.Latitude = *h.Latitude
	}
	return m, nil
}

// redactKey keeps the access key out of logged request URLs
func redactKey(err error, key string) error {
	var statusErr *util.HTTPStatusError
	if errors.As(err, &statusErr) {
		redacted := *statusErr
		redacted.URL = strings.ReplaceAll(statusErr.URL, key, "REDACTED")
		return &redacted
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s forward request: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
