// Package mcp is a Go client for the v0.1 API served by mcp-registry.
//
// The registry answers read-only queries about Model Context Protocol
// servers. Listings are cursor paginated: each page names the key of its last
// server as the cursor for the next one, and the final page carries none.
//
// # Usage
//
//	import "github.com/lujin3/mcp-registry-server/mcp"
//
// Create a client for a registry on the default address
// (http://localhost:8000/):
//
//	client, err := mcp.NewClient(nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Or point it elsewhere:
//
//	client, err := mcp.NewClient(nil, mcp.WithBaseURL("https://registry.example.com"))
//
// List one page:
//
//	opts := &mcp.ServerListOptions{ListOptions: mcp.ListOptions{Limit: 20}}
//	page, resp, err := client.Servers.List(ctx, opts)
//
// Follow cursors by hand:
//
//	for {
//		page, resp, err := client.Servers.List(ctx, opts)
//		if err != nil {
//			return err
//		}
//		handle(page.Servers)
//		if resp.NextCursor == "" {
//			break
//		}
//		opts.Cursor = resp.NextCursor
//	}
//
// Or let ListAll do it:
//
//	servers, _, err := client.Servers.ListAll(ctx, nil)
//
// Look servers up by name:
//
//	latest, _, err := client.Servers.GetByNameLatest(ctx, "github")
//	pinned, _, err := client.Servers.GetByNameExactVersion(ctx, "microsoft.docs.mcp", "1.0.0")
//	active, _, err := client.Servers.GetByNameLatestActiveVersion(ctx, "microsoft.docs.mcp")
//
// # Errors
//
// Non-2xx replies come back as *ErrorResponse, or *RateLimitError for 429.
// IsNotFound reports a 404:
//
//	server, _, err := client.Servers.Get(ctx, name, nil)
//	if mcp.IsNotFound(err) {
//		// unknown name, or version mismatch
//	}
//
// # Types
//
// Responses decode into the official registry types from
// github.com/modelcontextprotocol/registry/pkg/api/v0.
package mcp
