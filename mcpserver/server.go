// Package mcpserver exposes the registry catalog as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/lujin3/mcp-registry-server/api"
	"github.com/lujin3/mcp-registry-server/catalog"
)

// Options configures the tool server.
type Options struct {
	Version string
	// MaxLimit caps the list_servers limit; zero selects api.DefaultMaxLimit
	// so both serving layers agree.
	MaxLimit int
}

// ListServersParams are the arguments of the list_servers tool
type ListServersParams struct {
	Cursor string `json:"cursor,omitempty" jsonschema:"Pagination cursor from a previous list_servers result"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Max servers per page (default: 50, capped by the server)"`
}

// ListServersResult is the structured output of list_servers
type ListServersResult struct {
	Servers    []json.RawMessage `json:"servers"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// GetServerParams are the arguments of the get_server tool
type GetServerParams struct {
	Name    string `json:"name" jsonschema:"Fully qualified server name"`
	Version string `json:"version,omitempty" jsonschema:"Exact version or 'latest' (default: 'latest')"`
}

// GetServerResult is the structured output of get_server
type GetServerResult struct {
	Server json.RawMessage `json:"server"`
}

// Server wraps the SDK server and answers tool calls from a catalog store.
type Server struct {
	store     *catalog.Store
	logger    logrus.FieldLogger
	maxLimit  int
	sdkServer *sdkmcp.Server
}

// NewServer creates the MCP server and registers its tools.
func NewServer(store *catalog.Store, logger logrus.FieldLogger, opts Options) *Server {
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = api.DefaultMaxLimit
	}
	s := &Server{
		store:    store,
		logger:   logger.WithField("component", "mcpserver"),
		maxLimit: opts.MaxLimit,
	}

	s.sdkServer = sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "mcp-registry",
		Version: opts.Version,
	}, nil)

	s.registerTools()

	return s
}

// SDKServer returns the underlying SDK server for custom transports.
func (s *Server) SDKServer() *sdkmcp.Server {
	return s.sdkServer
}

// Run serves tool calls over stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving MCP tools over stdio")
	return s.sdkServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.sdkServer, &sdkmcp.Tool{
		Name: "list_servers",
		Description: "List MCP servers in catalog order. " +
			"Pass the returned nextCursor as cursor to fetch the following page.",
	}, s.listServers)

	sdkmcp.AddTool(s.sdkServer, &sdkmcp.Tool{
		Name:        "get_server",
		Description: "Get a single MCP server by name, optionally pinned to an exact version.",
	}, s.getServer)
}

func (s *Server) listServers(
	_ context.Context, _ *sdkmcp.CallToolRequest, params ListServersParams,
) (*sdkmcp.CallToolResult, any, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = catalog.DefaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	page := s.store.Current().List(params.Cursor, limit)

	result := ListServersResult{
		Servers:    make([]json.RawMessage, 0, len(page.Records)),
		NextCursor: page.NextCursor,
	}
	for _, rec := range page.Records {
		result.Servers = append(result.Servers, rec.Payload)
	}

	s.logger.WithFields(logrus.Fields{
		"cursor": params.Cursor,
		"limit":  limit,
		"count":  len(result.Servers),
	}).Debug("list_servers")

	return nil, result, nil
}

func (s *Server) getServer(
	_ context.Context, _ *sdkmcp.CallToolRequest, params GetServerParams,
) (*sdkmcp.CallToolResult, any, error) {
	if params.Name == "" {
		return toolError("name is required"), nil, nil
	}

	c := s.store.Current()
	var (
		rec catalog.Record
		err error
	)
	if params.Version == "" || params.Version == "latest" {
		rec, err = c.GetLatest(params.Name)
	} else {
		rec, err = c.GetVersion(params.Name, params.Version)
	}
	if err != nil {
		if catalog.IsNotFound(err) {
			return toolError(fmt.Sprintf("server %q not found", params.Name)), nil, nil
		}
		return nil, nil, err
	}

	return nil, GetServerResult{Server: rec.Payload}, nil
}

func toolError(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: "Error: " + msg}},
		IsError: true,
	}
}
