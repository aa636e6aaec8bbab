package mcp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Masterminds/semver/v3"
	registryv0 "github.com/modelcontextprotocol/registry/pkg/api/v0"
	"github.com/modelcontextprotocol/registry/pkg/model"
)

// ServersService handles the server endpoints of the v0.1 registry API.
type ServersService service

// List returns one page of servers.
func (s *ServersService) List(ctx context.Context, opts *ServerListOptions) (*registryv0.ServerListResponse, *Response, error) {
	u, err := addOptions("v0.1/servers", opts)
	if err != nil {
		return nil, nil, err
	}

	req, err := s.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}

	var result registryv0.ServerListResponse
	resp, err := s.client.Do(ctx, req, &result)
	if err != nil {
		return nil, resp, err
	}

	if resp.NextCursor == "" {
		resp.NextCursor = result.Metadata.NextCursor
	}

	return &result, resp, nil
}

// ListAll follows cursors until the listing is exhausted. The returned
// Response is the one for the last page.
func (s *ServersService) ListAll(ctx context.Context, opts *ServerListOptions) ([]registryv0.ServerJSON, *Response, error) {
	entries, resp, err := s.listAllEntries(ctx, opts)
	if err != nil {
		return nil, resp, err
	}
	return unwrap(entries), resp, nil
}

func (s *ServersService) listAllEntries(ctx context.Context, opts *ServerListOptions) ([]registryv0.ServerResponse, *Response, error) {
	pageOpts := ServerListOptions{}
	if opts != nil {
		pageOpts = *opts
	}

	var (
		all      []registryv0.ServerResponse
		lastResp *Response
	)
	for {
		page, resp, err := s.List(ctx, &pageOpts)
		if err != nil {
			return nil, resp, err
		}
		lastResp = resp
		all = append(all, page.Servers...)

		if resp.NextCursor == "" || resp.NextCursor == pageOpts.Cursor {
			break
		}
		pageOpts.Cursor = resp.NextCursor
	}

	return all, lastResp, nil
}

// Get returns a server by name. A nil opts or an empty Version selects the
// latest version.
func (s *ServersService) Get(ctx context.Context, name string, opts *ServerGetOptions) (*registryv0.ServerJSON, *Response, error) {
	version := "latest"
	if opts != nil && opts.Version != "" {
		version = opts.Version
	}

	u := fmt.Sprintf("v0.1/servers/%s/versions/%s", url.PathEscape(name), url.PathEscape(version))
	req, err := s.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}

	var result *registryv0.ServerResponse
	resp, err := s.client.Do(ctx, req, &result)
	if err != nil {
		return nil, resp, err
	}
	if result == nil {
		return nil, resp, nil
	}

	return &result.Server, resp, nil
}

// GetByNameLatest returns the latest version of the named server.
func (s *ServersService) GetByNameLatest(ctx context.Context, name string) (*registryv0.ServerJSON, *Response, error) {
	return s.Get(ctx, name, nil)
}

// GetByNameExactVersion returns the named server only when its version is
// exactly version.
func (s *ServersService) GetByNameExactVersion(ctx context.Context, name, version string) (*registryv0.ServerJSON, *Response, error) {
	return s.Get(ctx, name, &ServerGetOptions{Version: version})
}

// ListVersionsByName returns every version the registry holds for name.
func (s *ServersService) ListVersionsByName(ctx context.Context, name string) ([]registryv0.ServerJSON, *Response, error) {
	entries, resp, err := s.listVersions(ctx, name)
	if err != nil {
		return nil, resp, err
	}
	return unwrap(entries), resp, nil
}

func (s *ServersService) listVersions(ctx context.Context, name string) ([]registryv0.ServerResponse, *Response, error) {
	u := fmt.Sprintf("v0.1/servers/%s/versions", url.PathEscape(name))
	req, err := s.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}

	var result registryv0.ServerListResponse
	resp, err := s.client.Do(ctx, req, &result)
	if err != nil {
		return nil, resp, err
	}

	return result.Servers, resp, nil
}

// GetByNameLatestActiveVersion returns the highest semantic version of name
// whose registry status is active. Versions that do not parse as semver are
// skipped. It returns a nil server without error when nothing qualifies,
// including when the registry does not know name.
func (s *ServersService) GetByNameLatestActiveVersion(ctx context.Context, name string) (*registryv0.ServerJSON, *Response, error) {
	entries, resp, err := s.listVersions(ctx, name)
	if err != nil {
		if IsNotFound(err) {
			return nil, resp, nil
		}
		return nil, resp, err
	}

	var (
		best        *registryv0.ServerJSON
		bestVersion *semver.Version
	)
	for i := range entries {
		entry := &entries[i]
		if entry.Server.Name != name {
			continue
		}
		if entry.Meta.Official == nil || entry.Meta.Official.Status != model.StatusActive {
			continue
		}
		v, err := semver.NewVersion(entry.Server.Version)
		if err != nil {
			continue
		}
		if bestVersion == nil || v.GreaterThan(bestVersion) {
			best, bestVersion = &entry.Server, v
		}
	}

	return best, resp, nil
}

// ListByUpdatedSince walks the whole listing and keeps servers whose registry
// updatedAt is at or after since. Entries without registry metadata are
// skipped.
func (s *ServersService) ListByUpdatedSince(ctx context.Context, since time.Time) ([]registryv0.ServerJSON, *Response, error) {
	entries, resp, err := s.listAllEntries(ctx, nil)
	if err != nil {
		return nil, resp, err
	}

	servers := []registryv0.ServerJSON{}
	for _, entry := range entries {
		if entry.Meta.Official == nil || entry.Meta.Official.UpdatedAt.Before(since) {
			continue
		}
		servers = append(servers, entry.Server)
	}

	return servers, resp, nil
}

func unwrap(entries []registryv0.ServerResponse) []registryv0.ServerJSON {
	servers := make([]registryv0.ServerJSON, 0, len(entries))
	for _, entry := range entries {
		servers = append(servers, entry.Server)
	}
	return servers
}
