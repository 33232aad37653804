package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
	"github.com/vadim/neo-threads/internal/httpx/response"
)

// BulkReader runs the whole-account aggregations
type BulkReader interface {
	All(ctx context.Context, accessToken string) []entity.Post
	WithReplies(ctx context.Context, accessToken, username string) []entity.Post
	AllWithReplies(ctx context.Context, accessToken, username string) []entity.Post
}

// ProfileReader resolves the username a reply walk keeps
type ProfileReader interface {
	Profile(ctx context.Context, accessToken string) entity.Profile
}

// BulkHandler handles the bulk aggregation routes
type BulkHandler struct {
	bulk     BulkReader
	profiles ProfileReader
	identity IdentityCache
	logger   *slog.Logger
}

// NewBulkHandler creates a new bulk handler
func NewBulkHandler(bulk BulkReader, profiles ProfileReader, identity IdentityCache, logger *slog.Logger) *BulkHandler {
	return &BulkHandler{
		bulk:     bulk,
		profiles: profiles,
		identity: identity,
		logger:   logger,
	}
}

// RegisterRoutes registers bulk routes
func (h *BulkHandler) RegisterRoutes(r chi.Router) {
	r.Get("/threads_all", h.All())
	r.Get("/threads_with_replies", h.WithReplies())
	r.Get("/threads_all_with_replies", h.AllWithReplies())
}

// BulkResponse is the result of a bulk route
type BulkResponse struct {
	Data  []entity.Post `json:"data"`
	Total int           `json:"total"`
}

func bulkResponse(posts []entity.Post) BulkResponse {
	if posts == nil {
		posts = []entity.Post{}
	}
	return BulkResponse{Data: posts, Total: len(posts)}
}

// All handles GET /threads_all
func (h *BulkHandler) All() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts := h.bulk.All(r.Context(), credential(r).AccessToken)
		h.logger.InfoContext(r.Context(), "loaded all threads", "count", len(posts))
		response.OK(w, bulkResponse(posts))
	}
}

// WithReplies handles GET /threads_with_replies
func (h *BulkHandler) WithReplies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := credential(r).AccessToken
		posts := h.bulk.WithReplies(r.Context(), token, h.username(w, r))
		response.OK(w, bulkResponse(posts))
	}
}

// AllWithReplies handles GET /threads_all_with_replies
func (h *BulkHandler) AllWithReplies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := credential(r).AccessToken
		posts := h.bulk.AllWithReplies(r.Context(), token, h.username(w, r))
		h.logger.InfoContext(r.Context(), "loaded original threads with reply chains", "count", len(posts))
		response.OK(w, bulkResponse(posts))
	}
}

// username returns the session's cached username, fetching and caching
// the profile when it isn't known yet. An empty result makes the reply
// walk keep nothing.
func (h *BulkHandler) username(w http.ResponseWriter, r *http.Request) string {
	c := credential(r)
	if c.Username != "" {
		return c.Username
	}

	profile := h.profiles.Profile(r.Context(), c.AccessToken)
	if profile.Username == "" {
		h.logger.WarnContext(r.Context(), "username unavailable, reply chains will be empty")
		return ""
	}
	if err := h.identity.Remember(w, r, profile.ID, profile.Username); err != nil {
		h.logger.WarnContext(r.Context(), "failed to cache identity", "error", err)
	}
	return profile.Username
}
