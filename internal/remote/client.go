package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// RestPath is the PostgREST prefix under the backend URL
const RestPath = "/rest/v1"

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// Client is a PostgREST client authenticating with an API key and a bearer token
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// ClientConfig configures a Client
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Limits  Limits
}

// NewClient creates a backend client. A nil token source authenticates with
// the API key alone.
func NewClient(cfg ClientConfig, tokenSource oauth2.TokenSource) *Client {
	if tokenSource == nil {
		tokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	}
	httpClient := oauth2.NewClient(context.Background(), tokenSource)
	httpClient.Timeout = cfg.Timeout

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/") + RestPath,
		apiKey:      cfg.APIKey,
		httpClient:  httpClient,
		rateLimiter: NewRateLimiter(cfg.Limits),
	}
}

// RateLimitStatus returns the requests left in the current window
func (c *Client) RateLimitStatus() (remaining int, resetsAt time.Time) {
	return c.rateLimiter.Status()
}

// do sends a request and decodes a JSON response into out when out is non-nil
func (c *Client) do(ctx context.Context, method, table string, params url.Values, body any, prefer string, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + "/" + table
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", table, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Update rate limiter from response headers
	c.rateLimiter.UpdateFromHeaders(resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", table, err)
	}
	return nil
}
