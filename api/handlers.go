package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/lujin3/mcp-registry-server/catalog"
)

const (
	mediaTypeJSON = "application/json; charset=utf-8"

	// NextCursorHeader carries the next page cursor on every list response.
	NextCursorHeader = "X-Next-Cursor"

	// DefaultMaxLimit caps the page size a client may request.
	DefaultMaxLimit = 100
)

var (
	errInvalidLimit  = errors.New("limit must be a non-negative integer")
	errInvalidOffset = errors.New("offset must be a non-negative integer")
)

// Options configures the serving layer.
type Options struct {
	Name          string
	Version       string
	Documentation string
	// MaxLimit caps the limit query parameter; zero selects DefaultMaxLimit.
	MaxLimit   int
	Presenters []Presenter
}

// Handlers contains HTTP handlers for the registry API
type Handlers struct {
	store      *catalog.Store
	logger     logrus.FieldLogger
	opts       Options
	presenters []Presenter
}

// NewHandlers creates a new handlers instance
func NewHandlers(store *catalog.Store, logger logrus.FieldLogger, opts Options) *Handlers {
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}
	presenters := opts.Presenters
	if len(presenters) == 0 {
		presenters = DefaultPresenters()
	}
	return &Handlers{
		store:      store,
		logger:     logger.WithField("component", "api"),
		opts:       opts,
		presenters: presenters,
	}
}

// Router returns the complete HTTP handler, middleware included.
func (h *Handlers) Router() http.Handler {
	r := mux.NewRouter().UseEncodedPath()

	r.HandleFunc("/", h.HandleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)

	for _, p := range h.presenters {
		prefix := p.Prefix()
		r.HandleFunc(prefix+"/servers", h.listServers(p)).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/servers/{name}", h.getServer(p)).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/servers/{name}/versions", h.listVersions(p)).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/servers/{name}/versions/{version}", h.getServerVersion(p)).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)

	return h.logRequests(cors(h.preflight(r)))
}

// HandleHealth handles health check requests
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// HandleRoot serves the discovery document listing the available endpoints
func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	endpoints := make(map[string]string, len(h.presenters))
	for _, p := range h.presenters {
		endpoints[p.Name()] = p.Prefix() + "/servers"
	}
	h.json(w, http.StatusOK, RootResponse{
		Name:          h.opts.Name,
		Version:       h.opts.Version,
		Endpoints:     endpoints,
		Documentation: h.opts.Documentation,
	})
}

// HandlePreflight answers CORS pre-flight requests on any path
func (h *Handlers) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, struct{}{})
}

func (h *Handlers) listServers(p Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, err := h.parseLimit(q.Get("limit"))
		if err != nil {
			h.errorWithCode(w, err.Error(), "INVALID_REQUEST", http.StatusBadRequest)
			return
		}

		c := h.store.Current()
		var page catalog.Page
		if raw := q.Get("offset"); raw != "" && pagesByOffset(p) {
			offset, err := strconv.Atoi(raw)
			if err != nil || offset < 0 {
				h.errorWithCode(w, errInvalidOffset.Error(), "INVALID_REQUEST", http.StatusBadRequest)
				return
			}
			page = c.ListAt(offset, limit)
		} else {
			page = c.List(q.Get("cursor"), limit)
		}

		if page.NextCursor != "" {
			w.Header().Set(NextCursorHeader, page.NextCursor)
		}
		h.json(w, http.StatusOK, p.Page(page, PageInfo{
			Total:    c.Len(),
			Limit:    limit,
			LoadedAt: c.LoadedAt(),
		}))
	}
}

func (h *Handlers) getServer(p Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := h.pathVar(w, r, "name")
		if !ok {
			return
		}

		c := h.store.Current()
		rec, err := c.GetLatest(name)
		if err != nil {
			h.lookupError(w, err)
			return
		}
		h.json(w, http.StatusOK, p.Item(rec, c.LoadedAt()))
	}
}

func (h *Handlers) listVersions(p Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := h.pathVar(w, r, "name")
		if !ok {
			return
		}

		c := h.store.Current()
		rec, err := c.GetLatest(name)
		if err != nil {
			h.lookupError(w, err)
			return
		}
		page := catalog.Page{Records: []catalog.Record{rec}}
		h.json(w, http.StatusOK, p.Page(page, PageInfo{Total: 1, Limit: 1, LoadedAt: c.LoadedAt()}))
	}
}

func (h *Handlers) getServerVersion(p Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := h.pathVar(w, r, "name")
		if !ok {
			return
		}
		version, ok := h.pathVar(w, r, "version")
		if !ok {
			return
		}

		c := h.store.Current()
		var (
			rec catalog.Record
			err error
		)
		if version == "latest" {
			rec, err = c.GetLatest(name)
		} else {
			rec, err = c.GetVersion(name, version)
		}
		if err != nil {
			h.lookupError(w, err)
			return
		}
		h.json(w, http.StatusOK, p.Item(rec, c.LoadedAt()))
	}
}

// parseLimit applies the default for an absent limit and clamps to MaxLimit.
func (h *Handlers) parseLimit(raw string) (int, error) {
	limit := catalog.DefaultLimit
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, errInvalidLimit
		}
		limit = n
	}
	if limit > h.opts.MaxLimit {
		limit = h.opts.MaxLimit
	}
	return limit, nil
}

// pathVar returns the unescaped route variable. The router matches on the
// encoded path so names containing "/" arrive as %2F.
func (h *Handlers) pathVar(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	value, err := url.PathUnescape(mux.Vars(r)[key])
	if err != nil || value == "" {
		h.errorWithCode(w, "invalid "+key, "INVALID_REQUEST", http.StatusBadRequest)
		return "", false
	}
	return value, true
}

func (h *Handlers) lookupError(w http.ResponseWriter, err error) {
	if catalog.IsNotFound(err) {
		h.logger.WithError(err).Debug("lookup missed")
		h.errorWithCode(w, "Server not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	h.logger.WithError(err).Error("lookup failed")
	h.errorWithCode(w, err.Error(), "", http.StatusInternalServerError)
}

// Helper methods

func (h *Handlers) json(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", mediaTypeJSON)
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		h.logger.WithError(err).Error("failed to encode response")
	}
}

func (h *Handlers) errorWithCode(w http.ResponseWriter, message, code string, status int) {
	h.json(w, status, ErrorResponse{Message: message, Code: code})
}

func (h *Handlers) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.errorWithCode(w, "method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.errorWithCode(w, "not found", "NOT_FOUND", http.StatusNotFound)
}
