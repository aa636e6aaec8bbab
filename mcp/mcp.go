package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
)

const (
	defaultBaseURL = "http://localhost:8000/"
	userAgent      = "mcp-registry-go/0.1.0"
	mediaTypeJSON  = "application/json"

	headerNextCursor     = "X-Next-Cursor"
	headerRateLimit      = "X-RateLimit-Limit"
	headerRateRemaining  = "X-RateLimit-Remaining"
	headerRateLimitReset = "X-RateLimit-Reset"
)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at a registry other than the local default.
// A trailing slash is added when missing.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		if baseURL == "" {
			return errors.New("base URL cannot be empty")
		}

		u, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base URL must use HTTP or HTTPS scheme, got: %q", u.Scheme)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}

		c.BaseURL = u
		return nil
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.UserAgent = ua
		return nil
	}
}

// NewClient returns a registry API client. A nil httpClient selects a
// client with a 30 second timeout.
func NewClient(httpClient *http.Client, opts ...Option) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	baseURL, err := url.Parse(defaultBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse default base URL: %w", err)
	}

	c := &Client{
		client:     httpClient,
		BaseURL:    baseURL,
		UserAgent:  userAgent,
		rateLimits: make(map[string]Rate),
	}
	c.common.client = c
	c.Servers = (*ServersService)(&c.common)

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// NewRequest builds a request for urlStr resolved against BaseURL. urlStr
// must be relative and carry no leading slash. A non-nil body is sent as JSON.
func (c *Client) NewRequest(method, urlStr string, body any) (*http.Request, error) {
	if !strings.HasSuffix(c.BaseURL.Path, "/") {
		return nil, fmt.Errorf("BaseURL must have a trailing slash, but %q does not", c.BaseURL)
	}

	u, err := c.BaseURL.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	var buf io.ReadWriter
	if body != nil {
		buf = &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, u.String(), buf)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", mediaTypeJSON)
	}
	req.Header.Set("Accept", mediaTypeJSON)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	return req, nil
}

func newResponse(r *http.Response) *Response {
	return &Response{
		Response:   r,
		NextCursor: r.Header.Get(headerNextCursor),
		Rate:       parseRate(r),
	}
}

// parseRate reads the rate limit headers. Malformed values are left zero.
func parseRate(r *http.Response) Rate {
	var rate Rate
	if n, err := strconv.Atoi(r.Header.Get(headerRateLimit)); err == nil {
		rate.Limit = n
	}
	if n, err := strconv.Atoi(r.Header.Get(headerRateRemaining)); err == nil {
		rate.Remaining = n
	}
	if reset := r.Header.Get(headerRateLimitReset); reset != "" {
		if t, err := time.Parse(time.RFC3339, reset); err == nil {
			rate.Reset = t
		}
	}
	return rate
}

// Do sends req and decodes the JSON body into v. When v is an io.Writer the
// raw body is copied into it instead. API errors are returned as
// *ErrorResponse or *RateLimitError together with the Response.
func (c *Client) Do(ctx context.Context, req *http.Request, v any) (*Response, error) {
	if ctx == nil {
		return nil, errors.New("context must be non-nil")
	}
	req = req.WithContext(ctx)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	defer resp.Body.Close()

	response := newResponse(resp)

	c.rateMu.Lock()
	c.rateLimits[req.URL.Path] = response.Rate
	c.rateMu.Unlock()

	if err := CheckResponse(resp); err != nil {
		return response, err
	}

	if v == nil {
		return response, nil
	}
	if w, ok := v.(io.Writer); ok {
		_, err = io.Copy(w, resp.Body)
		return response, err
	}

	err = json.NewDecoder(resp.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return response, err
}

// RateLimit returns the rate observed on the last response for path.
func (c *Client) RateLimit(path string) Rate {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	return c.rateLimits[path]
}

// CheckResponse returns nil for 2xx responses and a typed error otherwise.
func CheckResponse(r *http.Response) error {
	if c := r.StatusCode; c >= 200 && c < 300 {
		return nil
	}

	errorResponse := &ErrorResponse{Response: r}
	data, err := io.ReadAll(r.Body)
	if err == nil && len(data) > 0 {
		if jsonErr := json.Unmarshal(data, errorResponse); jsonErr != nil {
			errorResponse.Message = strings.TrimSpace(string(data))
		}
	}
	if errorResponse.Message == "" {
		errorResponse.Message = http.StatusText(r.StatusCode)
	}

	if r.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Rate:     parseRate(r),
			Response: r,
			Message:  errorResponse.Message,
		}
	}
	return errorResponse
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	var errResp *ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil &&
		errResp.Response.StatusCode == http.StatusNotFound
}

// addOptions encodes opts as query parameters and appends them to s.
func addOptions(s string, opts any) (string, error) {
	v, err := query.Values(opts)
	if err != nil {
		return s, err
	}

	u, err := url.Parse(s)
	if err != nil {
		return s, err
	}

	if q := v.Encode(); q != "" {
		if u.RawQuery != "" {
			u.RawQuery += "&" + q
		} else {
			u.RawQuery = q
		}
	}

	return u.String(), nil
}
