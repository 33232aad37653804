package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
	"github.com/vadim/neo-threads/internal/httpx/response"
	"github.com/vadim/neo-threads/internal/httpx/upstream/threads"
)

// ThreadReader fetches posts, replies and their insights
type ThreadReader interface {
	Threads(ctx context.Context, accessToken string, q entity.PageQuery) entity.Page
	UserReplies(ctx context.Context, accessToken string, q entity.PageQuery) entity.Page
	Mentions(ctx context.Context, accessToken string, q entity.PageQuery) entity.Page
	Replies(ctx context.Context, accessToken, threadID string, q entity.PageQuery) entity.Page
	Conversation(ctx context.Context, accessToken, threadID string, q entity.PageQuery) entity.Page
	Search(ctx context.Context, accessToken, keyword, searchType string, q entity.PageQuery) entity.Page
	Thread(ctx context.Context, accessToken, threadID string) entity.Post
	ThreadInsights(ctx context.Context, accessToken, threadID string, r entity.TimeRange) entity.Insights
	Embed(ctx context.Context, postURL string) string
}

// ThreadHandler handles read only post routes
type ThreadHandler struct {
	reader ThreadReader
}

// NewThreadHandler creates a new thread handler
func NewThreadHandler(reader ThreadReader) *ThreadHandler {
	return &ThreadHandler{reader: reader}
}

// RegisterRoutes registers routes that need a logged in session
func (h *ThreadHandler) RegisterRoutes(r chi.Router) {
	r.Get("/threads", h.List())
	r.Get("/replies", h.UserReplies())
	r.Get("/mentions", h.Mentions())
	r.Get("/keywordSearch", h.Search())
	r.Route("/threads/{id}", func(r chi.Router) {
		r.Get("/", h.Get())
		r.Get("/replies", h.Replies())
		r.Get("/conversation", h.Conversation())
		r.Get("/insights", h.Insights())
	})
}

// RegisterPublicRoutes registers routes that don't need a session
func (h *ThreadHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/oEmbed", h.Embed())
}

// List handles GET /threads
func (h *ThreadHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := h.reader.Threads(r.Context(), credential(r).AccessToken, pageQuery(r))
		response.OK(w, paged(r, page))
	}
}

// UserReplies handles GET /replies
func (h *ThreadHandler) UserReplies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := h.reader.UserReplies(r.Context(), credential(r).AccessToken, pageQuery(r))
		response.OK(w, paged(r, page))
	}
}

// Mentions handles GET /mentions
func (h *ThreadHandler) Mentions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := h.reader.Mentions(r.Context(), credential(r).AccessToken, pageQuery(r))
		response.OK(w, paged(r, page))
	}
}

// Search handles GET /keywordSearch
func (h *ThreadHandler) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
		if keyword == "" {
			response.OK(w, paged(r, entity.Page{}))
			return
		}

		searchType := strings.ToUpper(r.URL.Query().Get("searchType"))
		if searchType != threads.SearchTypeRecent {
			searchType = threads.SearchTypeTop
		}

		page := h.reader.Search(r.Context(), credential(r).AccessToken, keyword, searchType, pageQuery(r))
		response.OK(w, paged(r, page))
	}
}

// Get handles GET /threads/{id}
func (h *ThreadHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post := h.reader.Thread(r.Context(), credential(r).AccessToken, chi.URLParam(r, "id"))
		response.OK(w, post)
	}
}

// Replies handles GET /threads/{id}/replies
func (h *ThreadHandler) Replies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := h.reader.Replies(r.Context(), credential(r).AccessToken, chi.URLParam(r, "id"), pageQuery(r))
		response.OK(w, paged(r, page))
	}
}

// Conversation handles GET /threads/{id}/conversation
func (h *ThreadHandler) Conversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := h.reader.Conversation(r.Context(), credential(r).AccessToken, chi.URLParam(r, "id"), pageQuery(r))
		response.OK(w, paged(r, page))
	}
}

// Insights handles GET /threads/{id}/insights
func (h *ThreadHandler) Insights() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		insights := h.reader.ThreadInsights(r.Context(), credential(r).AccessToken, chi.URLParam(r, "id"), timeRange(r))
		response.OK(w, insights)
	}
}

// Embed handles GET /oEmbed
func (h *ThreadHandler) Embed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postURL := r.URL.Query().Get("url")
		if postURL == "" {
			response.BadRequest(w, "url is required")
			return
		}
		response.HTML(w, http.StatusOK, h.reader.Embed(r.Context(), postURL))
	}
}
