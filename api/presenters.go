package api

import (
	"encoding/json"
	"time"

	apiv0 "github.com/modelcontextprotocol/registry/pkg/api/v0"
	"github.com/modelcontextprotocol/registry/pkg/model"

	"github.com/lujin3/mcp-registry-server/catalog"
)

// PageInfo carries what a presenter may need besides the page itself.
type PageInfo struct {
	Total    int
	Limit    int
	LoadedAt time.Time
}

// Presenter shapes engine results into one API version's JSON documents.
type Presenter interface {
	// Name identifies the API version in the discovery document.
	Name() string
	// Prefix is prepended to every route of this version.
	Prefix() string
	Page(page catalog.Page, info PageInfo) any
	Item(rec catalog.Record, loadedAt time.Time) any
}

// OffsetPager is implemented by presenters whose list route also accepts an
// offset query parameter. An offset takes precedence over a cursor.
type OffsetPager interface {
	PagesByOffset() bool
}

func pagesByOffset(p Presenter) bool {
	op, ok := p.(OffsetPager)
	return ok && op.PagesByOffset()
}

// DefaultPresenters returns the API versions served by default.
func DefaultPresenters() []Presenter {
	return []Presenter{V01Presenter{}, V0Presenter{}, PlainPresenter{}}
}

// V01Presenter implements the MCP registry v0.1 envelope: every server is
// wrapped with registry metadata and pages carry a next cursor.
type V01Presenter struct{}

type serverResponse struct {
	Server json.RawMessage    `json:"server"`
	Meta   apiv0.ResponseMeta `json:"_meta"`
}

type listMetadata struct {
	NextCursor string `json:"nextCursor,omitempty"`
	Count      int    `json:"count"`
}

type serverListResponse struct {
	Servers  []serverResponse `json:"servers"`
	Metadata listMetadata     `json:"metadata"`
}

func (V01Presenter) Name() string   { return "v0.1" }
func (V01Presenter) Prefix() string { return "/v0.1" }

func (p V01Presenter) Page(page catalog.Page, info PageInfo) any {
	resp := serverListResponse{
		Servers: make([]serverResponse, 0, len(page.Records)),
		Metadata: listMetadata{
			NextCursor: page.NextCursor,
			Count:      len(page.Records),
		},
	}
	for _, rec := range page.Records {
		resp.Servers = append(resp.Servers, p.wrap(rec, info.LoadedAt))
	}
	return resp
}

func (p V01Presenter) Item(rec catalog.Record, loadedAt time.Time) any {
	return p.wrap(rec, loadedAt)
}

func (V01Presenter) wrap(rec catalog.Record, loadedAt time.Time) serverResponse {
	// Every catalog record is the only, and so the latest, version of its key.
	return serverResponse{
		Server: rec.Payload,
		Meta: apiv0.ResponseMeta{
			Official: &apiv0.RegistryExtensions{
				Status:      model.StatusActive,
				PublishedAt: loadedAt,
				UpdatedAt:   loadedAt,
				IsLatest:    true,
			},
		},
	}
}

// V0Presenter implements the legacy envelope with a pagination block. It
// pages by offset as well as by cursor.
type V0Presenter struct{}

type legacyPagination struct {
	Total      int    `json:"total"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type legacyListResponse struct {
	Servers    []json.RawMessage `json:"servers"`
	Pagination legacyPagination  `json:"pagination"`
}

func (V0Presenter) Name() string   { return "v0" }
func (V0Presenter) Prefix() string { return "/v0" }

func (V0Presenter) PagesByOffset() bool { return true }

func (V0Presenter) Page(page catalog.Page, info PageInfo) any {
	return legacyListResponse{
		Servers: payloads(page.Records),
		Pagination: legacyPagination{
			Total:      info.Total,
			Limit:      info.Limit,
			Offset:     page.Offset,
			HasMore:    page.NextCursor != "",
			NextCursor: page.NextCursor,
		},
	}
}

func (V0Presenter) Item(rec catalog.Record, _ time.Time) any {
	return rec.Payload
}

// PlainPresenter returns bare arrays of servers. The next cursor travels in
// the X-Next-Cursor header only.
type PlainPresenter struct{}

func (PlainPresenter) Name() string   { return "plain" }
func (PlainPresenter) Prefix() string { return "" }

func (PlainPresenter) Page(page catalog.Page, _ PageInfo) any {
	return payloads(page.Records)
}

func (PlainPresenter) Item(rec catalog.Record, _ time.Time) any {
	return rec.Payload
}

func payloads(records []catalog.Record) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Payload)
	}
	return out
}
