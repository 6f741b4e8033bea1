package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/crimson-sun/ensilo-events/internal/logging"
)

// TokenHeader carries the session token on every authenticated request.
const TokenHeader = "X-Auth-Token"

const maxErrorBody = 512

// Client is a JSON REST client with token or basic auth and a base URL.
// It never retries; a failed request is reported to the caller as-is.
type Client struct {
	http *resty.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures Client behavior.
type Option func(*Client)

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		c.http.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: skip})
	}
}

// WithBasicAuth sends HTTP basic credentials instead of a token.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.http.Header.Del(TokenHeader)
		c.http.SetBasicAuth(username, password)
	}
}

// New creates a Client for baseURL. A non-empty token is sent in the
// X-Auth-Token header of every request.
func New(baseURL, token string, opts ...Option) *Client {
	r := resty.New()
	r.SetLogger(logging.RestyLogger())
	r.SetBaseURL(baseURL)
	r.SetHeader("Accept", "application/json")
	if token != "" {
		r.SetHeader(TokenHeader, token)
	}

	c := &Client{http: r}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get sends a GET request and returns the response headers and raw body.
// Returns *APIError for non-2xx responses.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (http.Header, []byte, error) {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, nil, err
	}

	body := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		bodyStr := string(body)
		if len(bodyStr) > maxErrorBody {
			bodyStr = bodyStr[:maxErrorBody]
		}
		return resp.Header(), nil, &APIError{StatusCode: resp.StatusCode(), Body: bodyStr}
	}
	return resp.Header(), body, nil
}

// GetJSON sends a GET request and unmarshals the JSON response into dest.
// Numbers decode as json.Number so vendor IDs keep their exact digits.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dest any) error {
	_, body, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
