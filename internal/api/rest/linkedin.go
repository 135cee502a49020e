package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dpax/linkedin-feed/internal/app"
	"github.com/dpax/linkedin-feed/internal/cache"
	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/dpax/linkedin-feed/internal/feed"
)

// Loader provides the current feed document
type Loader interface {
	Load(ctx context.Context) (*entity.FeedDocument, error)
}

// Generator renders a feed document as Atom or RSS
type Generator interface {
	Generate(doc *entity.FeedDocument, params *entity.FeedParams) ([]byte, error)
}

// LinkedInHandler serves the synced LinkedIn feed document and its renditions
type LinkedInHandler struct {
	cache     cache.Cache
	loader    Loader
	generator Generator
	limit     int
	logger    *slog.Logger
}

// NewLinkedInHandler creates a new LinkedInHandler and registers its routes on mux
func NewLinkedInHandler(mux *http.ServeMux, c cache.Cache, l Loader, g Generator, limit int) *LinkedInHandler {
	handler := &LinkedInHandler{
		cache:     c,
		loader:    l,
		generator: g,
		limit:     limit,
		logger:    app.Logger(),
	}

	mux.HandleFunc("GET /linkedin/posts", handler.GetPosts)
	mux.HandleFunc("GET /linkedin/feed", handler.GetFeed)

	return handler
}

// GetPosts responds with the feed document as the website sees it
func (h *LinkedInHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)

	if !ok {
		return
	}

	published := *doc
	published.Posts = feed.Published(doc, h.limit)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(&published); err != nil {
		handleBadErrorResponse(err, published)
	}
}

// GetFeed handles requests for the Atom or RSS rendition
func (h *LinkedInHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	params, err := entity.NewFeedParamsFromRequest(r)

	if err != nil {
		h.handleError(w, err, http.StatusBadRequest)
		return
	}

	cacheKey := buildCacheKey(params)

	if params.CacheTTL > 0 {
		cachedContent, cacheErr := h.cache.Get(r.Context(), cacheKey)

		if cacheErr == nil {
			w.Header().Set("X-CACHE-STATUS", "HIT")
			h.serveContent(w, cachedContent, params.Format, params.CacheTTL)
			return
		} else if !errors.Is(cacheErr, cache.ErrCacheMiss) {
			h.logger.Error("Cache error", "error", cacheErr)
		}
	}

	doc, ok := h.load(w, r)

	if !ok {
		return
	}

	content, err := h.generator.Generate(doc, params)

	if err != nil {
		h.handleError(w, err, http.StatusInternalServerError)
		return
	}

	if params.CacheTTL > 0 {
		cacheTTL := time.Duration(params.CacheTTL) * time.Minute

		// Use background context for caching to avoid cancellation
		cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.cache.Set(cacheCtx, cacheKey, content, cacheTTL); err != nil {
			h.logger.Error("Failed to cache content", "error", err)
		}
	}

	w.Header().Set("X-CACHE-STATUS", "MISS")
	h.serveContent(w, content, params.Format, params.CacheTTL)
}

func (h *LinkedInHandler) load(w http.ResponseWriter, r *http.Request) (*entity.FeedDocument, bool) {
	doc, err := h.loader.Load(r.Context())

	if errors.Is(err, fs.ErrNotExist) {
		h.handleError(w, errors.New("feed document has not been synced yet"), http.StatusNotFound)
		return nil, false
	}

	if err != nil {
		h.handleError(w, err, http.StatusInternalServerError)
		return nil, false
	}

	return doc, true
}

func buildCacheKey(params *entity.FeedParams) string {
	reposts := "0"

	if params.IncludeReposts {
		reposts = "1"
	}

	return fmt.Sprintf("feed:%s:%s", params.Format, reposts)
}

// serveContent sends the content to the client with appropriate headers
func (h *LinkedInHandler) serveContent(w http.ResponseWriter, content []byte, format string, cacheTTL int) {
	var contentType string

	switch format {
	case entity.FormatRSS:
		contentType = "application/rss+xml"
	case entity.FormatAtom:
		contentType = "application/atom+xml"
	default:
		contentType = "application/xml"
	}

	w.Header().Set("Content-Type", contentType+"; charset=utf-8")

	if cacheTTL > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", cacheTTL*60))
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}

	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(content); err != nil {
		handleBadErrorResponse(err, content)
	}
}

// handleError responds with an error message
func (h *LinkedInHandler) handleError(w http.ResponseWriter, err error, statusCode int) {
	h.logger.Error("Request error", "error", err, "status", statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]string{"error": err.Error()}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		handleBadErrorResponse(err, response)
	}
}

func handleBadErrorResponse(err error, resp any) {
	app.Logger().Error(
		"failed to encode an error response",
		"error", err,
		"response", resp,
	)
}
