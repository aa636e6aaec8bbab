package mcp

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Client manages communication with an MCP server registry.
type Client struct {
	client *http.Client

	// BaseURL must carry a trailing slash.
	BaseURL   *url.URL
	UserAgent string

	rateMu     sync.Mutex
	rateLimits map[string]Rate

	common service

	Servers *ServersService
}

type service struct {
	client *Client
}

// Response wraps the HTTP response with pagination and rate limit details.
type Response struct {
	*http.Response

	// NextCursor is empty on the last page.
	NextCursor string

	Rate Rate
}

// Rate is the rate limit state reported by the server, when it reports one.
type Rate struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// ErrorResponse is a non-2xx reply from the registry.
type ErrorResponse struct {
	Response *http.Response `json:"-"`
	Message  string         `json:"message"`
	Code     string         `json:"code,omitempty"`
}

func (r *ErrorResponse) Error() string {
	if r.Response == nil || r.Response.Request == nil {
		return r.Message
	}
	return fmt.Sprintf("%v %v: %d %v",
		r.Response.Request.Method, r.Response.Request.URL,
		r.Response.StatusCode, r.Message)
}

// RateLimitError is returned for 429 responses.
type RateLimitError struct {
	Rate     Rate
	Response *http.Response
	Message  string
}

func (r *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %v (resets at %v)", r.Message, r.Rate.Reset.Format(time.RFC3339))
}

// ListOptions selects a page of a cursor-paginated listing.
type ListOptions struct {
	Cursor string `url:"cursor,omitempty"`
	Limit  int    `url:"limit,omitempty"`
}

// ServerListOptions filters Servers.List.
type ServerListOptions struct {
	ListOptions
}

// ServerGetOptions selects the version returned by Servers.Get. An empty
// Version means latest.
type ServerGetOptions struct {
	Version string
}
