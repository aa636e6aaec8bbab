package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		httpClient  *http.Client
		opts        []Option
		wantErrMsg  string
		wantBaseURL string
	}{
		{
			name:        "default client targets the local registry",
			wantBaseURL: "http://localhost:8000/",
		},
		{
			name:        "custom http client",
			httpClient:  &http.Client{Timeout: time.Minute},
			wantBaseURL: "http://localhost:8000/",
		},
		{
			name:        "base URL gains a trailing slash",
			opts:        []Option{WithBaseURL("https://registry.example.com")},
			wantBaseURL: "https://registry.example.com/",
		},
		{
			name:        "base URL with path",
			opts:        []Option{WithBaseURL("http://127.0.0.1:9000/registry")},
			wantBaseURL: "http://127.0.0.1:9000/registry/",
		},
		{
			name:       "empty base URL",
			opts:       []Option{WithBaseURL("")},
			wantErrMsg: "base URL cannot be empty",
		},
		{
			name:       "unparseable base URL",
			opts:       []Option{WithBaseURL("://nope")},
			wantErrMsg: "invalid base URL",
		},
		{
			name:       "missing scheme",
			opts:       []Option{WithBaseURL("registry.example.com/")},
			wantErrMsg: "must use HTTP or HTTPS scheme",
		},
		{
			name:       "ftp scheme",
			opts:       []Option{WithBaseURL("ftp://registry.example.com/")},
			wantErrMsg: "must use HTTP or HTTPS scheme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.httpClient, tt.opts...)

			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantBaseURL, client.BaseURL.String())
			assert.Equal(t, userAgent, client.UserAgent)
			assert.NotNil(t, client.Servers)
		})
	}
}

func TestWithUserAgent(t *testing.T) {
	client, err := NewClient(nil, WithUserAgent("registry-tests/1.0"))
	require.NoError(t, err)

	req, err := client.NewRequest(http.MethodGet, "v0.1/servers", nil)
	require.NoError(t, err)
	assert.Equal(t, "registry-tests/1.0", req.Header.Get("User-Agent"))
}

func TestNewRequest(t *testing.T) {
	tests := []struct {
		name       string
		baseURL    string
		method     string
		urlStr     string
		body       any
		wantURL    string
		wantErrMsg string
	}{
		{
			name:    "relative path",
			baseURL: "http://localhost:8000/",
			method:  http.MethodGet,
			urlStr:  "v0.1/servers",
			wantURL: "http://localhost:8000/v0.1/servers",
		},
		{
			name:    "escaped server name survives",
			baseURL: "http://localhost:8000/",
			method:  http.MethodGet,
			urlStr:  "v0.1/servers/io.github.example%2Fweather/versions/latest",
			wantURL: "http://localhost:8000/v0.1/servers/io.github.example%2Fweather/versions/latest",
		},
		{
			name:    "JSON body",
			baseURL: "http://localhost:8000/",
			method:  http.MethodPost,
			urlStr:  "v0.1/servers",
			body:    map[string]string{"name": "weather"},
			wantURL: "http://localhost:8000/v0.1/servers",
		},
		{
			name:       "base URL without trailing slash",
			baseURL:    "http://localhost:8000",
			method:     http.MethodGet,
			urlStr:     "v0.1/servers",
			wantErrMsg: "BaseURL must have a trailing slash",
		},
		{
			name:       "unparseable path",
			baseURL:    "http://localhost:8000/",
			method:     http.MethodGet,
			urlStr:     "://bad",
			wantErrMsg: "missing protocol scheme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(nil)
			require.NoError(t, err)
			c.BaseURL, err = url.Parse(tt.baseURL)
			require.NoError(t, err)

			req, err := c.NewRequest(tt.method, tt.urlStr, tt.body)
			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.wantURL, req.URL.String())
			assert.Equal(t, mediaTypeJSON, req.Header.Get("Accept"))
			assert.NotEmpty(t, req.Header.Get("User-Agent"))

			if tt.body == nil {
				assert.Empty(t, req.Header.Get("Content-Type"))
				return
			}
			assert.Equal(t, mediaTypeJSON, req.Header.Get("Content-Type"))
			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"name":"weather"}`, string(body))
		})
	}
}

func TestNewRequest_UnencodableBody(t *testing.T) {
	c, err := NewClient(nil)
	require.NoError(t, err)

	_, err = c.NewRequest(http.MethodPost, "v0.1/servers", struct{ C chan int }{C: make(chan int)})
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	reset := time.Date(2025, 9, 29, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		headers http.Header
		want    Rate
	}{
		{
			name:    "no headers",
			headers: http.Header{},
			want:    Rate{},
		},
		{
			name: "all headers",
			headers: http.Header{
				"X-Ratelimit-Limit":     {"60"},
				"X-Ratelimit-Remaining": {"59"},
				"X-Ratelimit-Reset":     {reset.Format(time.RFC3339)},
			},
			want: Rate{Limit: 60, Remaining: 59, Reset: reset},
		},
		{
			name: "malformed values are ignored",
			headers: http.Header{
				"X-Ratelimit-Limit":     {"sixty"},
				"X-Ratelimit-Remaining": {"5"},
				"X-Ratelimit-Reset":     {"tomorrow"},
			},
			want: Rate{Remaining: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRate(&http.Response{Header: tt.headers})
			assert.Equal(t, tt.want.Limit, got.Limit)
			assert.Equal(t, tt.want.Remaining, got.Remaining)
			assert.True(t, tt.want.Reset.Equal(got.Reset), "reset = %v, want %v", got.Reset, tt.want.Reset)
		})
	}
}

func TestNewResponse_NextCursorHeader(t *testing.T) {
	resp := newResponse(&http.Response{Header: http.Header{
		"X-Next-Cursor":     {"io.github.example/weather"},
		"X-Ratelimit-Limit": {"10"},
	}})

	assert.Equal(t, "io.github.example/weather", resp.NextCursor)
	assert.Equal(t, 10, resp.Rate.Limit)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(nil, WithBaseURL(server.URL))
	require.NoError(t, err)
	return client
}

func TestDo(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		want       map[string]string
		wantErr    bool
		wantSyntax bool
	}{
		{name: "decodes JSON", status: http.StatusOK, body: `{"status":"healthy"}`, want: map[string]string{"status": "healthy"}},
		{name: "empty body", status: http.StatusOK, body: ""},
		{name: "invalid JSON", status: http.StatusOK, body: "not json", wantErr: true, wantSyntax: true},
		{name: "API error", status: http.StatusNotFound, body: `{"message":"Server not found","code":"NOT_FOUND"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			req, err := client.NewRequest(http.MethodGet, "health", nil)
			require.NoError(t, err)

			var got map[string]string
			resp, err := client.Do(context.Background(), req, &got)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.wantSyntax {
				var syntaxErr *json.SyntaxError
				assert.True(t, errors.As(err, &syntaxErr), "got %T", err)
			}
		})
	}
}

func TestDo_NilContext(t *testing.T) {
	client, err := NewClient(nil)
	require.NoError(t, err)
	req, err := client.NewRequest(http.MethodGet, "health", nil)
	require.NoError(t, err)

	//nolint:staticcheck // exercising the nil guard
	_, err = client.Do(nil, req, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context must be non-nil")
}

func TestDo_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	})
	req, err := client.NewRequest(http.MethodGet, "health", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Do(ctx, req, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_Concurrent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "7")
		fmt.Fprint(w, `{"status":"healthy"}`)
	})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := client.NewRequest(http.MethodGet, "health", nil)
			if err != nil {
				errs <- err
				return
			}
			var got map[string]string
			_, err = client.Do(context.Background(), req, &got)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 7, client.RateLimit("/health").Remaining)
}

func TestDo_Writer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "raw body")
	})
	req, err := client.NewRequest(http.MethodGet, "health", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = client.Do(context.Background(), req, &buf)
	require.NoError(t, err)
	assert.Equal(t, "raw body", buf.String())
}

func TestDo_RecordsRateLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "100")
		w.Header().Set("X-RateLimit-Remaining", "42")
		fmt.Fprint(w, `{}`)
	})
	req, err := client.NewRequest(http.MethodGet, "v0.1/servers", nil)
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, resp.Rate.Remaining)
	assert.Equal(t, Rate{Limit: 100, Remaining: 42}, client.RateLimit("/v0.1/servers"))
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
		wantRate    bool
	}{
		{name: "JSON error body", status: http.StatusBadRequest, body: `{"message":"limit must be a non-negative integer","code":"INVALID_REQUEST"}`, wantMessage: "limit must be a non-negative integer", wantCode: "INVALID_REQUEST"},
		{name: "plain text body", status: http.StatusBadGateway, body: "upstream down\n", wantMessage: "upstream down"},
		{name: "empty body", status: http.StatusServiceUnavailable, wantMessage: "Service Unavailable"},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"message":"slow down"}`, wantMessage: "slow down", wantRate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.status,
				Header:     http.Header{"X-Ratelimit-Remaining": {"0"}},
				Body:       io.NopCloser(strings.NewReader(tt.body)),
				Request:    httptest.NewRequest(http.MethodGet, "http://localhost:8000/v0.1/servers", nil),
			}

			err := CheckResponse(resp)
			require.Error(t, err)

			if tt.wantRate {
				var rateErr *RateLimitError
				require.True(t, errors.As(err, &rateErr), "got %T", err)
				assert.Equal(t, tt.wantMessage, rateErr.Message)
				assert.Contains(t, rateErr.Error(), "rate limit exceeded")
				return
			}

			var errResp *ErrorResponse
			require.True(t, errors.As(err, &errResp), "got %T", err)
			assert.Equal(t, tt.wantMessage, errResp.Message)
			assert.Equal(t, tt.wantCode, errResp.Code)
			assert.Contains(t, errResp.Error(), fmt.Sprintf("GET http://localhost:8000/v0.1/servers: %d", tt.status))
		})
	}
}

func TestCheckResponse_Success(t *testing.T) {
	assert.NoError(t, CheckResponse(&http.Response{StatusCode: http.StatusOK}))
	assert.NoError(t, CheckResponse(&http.Response{StatusCode: http.StatusNoContent}))
}

func TestIsNotFound(t *testing.T) {
	notFound := &ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}}
	badRequest := &ErrorResponse{Response: &http.Response{StatusCode: http.StatusBadRequest}}

	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", notFound)))
	assert.False(t, IsNotFound(badRequest))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.False(t, IsNotFound(nil))
}

func TestAddOptions(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		opts    any
		wantURL string
	}{
		{name: "nil options", base: "v0.1/servers", opts: nil, wantURL: "v0.1/servers"},
		{name: "nil typed options", base: "v0.1/servers", opts: (*ServerListOptions)(nil), wantURL: "v0.1/servers"},
		{name: "empty options", base: "v0.1/servers", opts: &ServerListOptions{}, wantURL: "v0.1/servers"},
		{
			name:    "cursor and limit",
			base:    "v0.1/servers",
			opts:    &ServerListOptions{ListOptions: ListOptions{Cursor: "io.github.example/weather", Limit: 10}},
			wantURL: "v0.1/servers?cursor=io.github.example%2Fweather&limit=10",
		},
		{
			name:    "existing query is kept",
			base:    "v0.1/servers?debug=1",
			opts:    &ListOptions{Limit: 5},
			wantURL: "v0.1/servers?debug=1&limit=5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := addOptions(tt.base, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, got)
		})
	}
}

func TestAddOptions_Errors(t *testing.T) {
	_, err := addOptions("://bad", &ListOptions{Limit: 1})
	assert.Error(t, err)

	_, err = addOptions("v0.1/servers", 42)
	assert.Error(t, err)
}
