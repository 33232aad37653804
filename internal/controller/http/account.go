package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
	"github.com/vadim/neo-threads/internal/httpx/response"
)

// AccountReader fetches account level data
type AccountReader interface {
	Profile(ctx context.Context, accessToken string) entity.Profile
	UserInsights(ctx context.Context, accessToken string, r entity.TimeRange) entity.Insights
	PublishingLimit(ctx context.Context, accessToken string) entity.PublishingLimit
}

// IdentityCache remembers who the session belongs to
type IdentityCache interface {
	Remember(w http.ResponseWriter, r *http.Request, userID, username string) error
}

// AccountHandler handles HTTP requests for the logged in account
type AccountHandler struct {
	reader   AccountReader
	identity IdentityCache
	logger   *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(reader AccountReader, identity IdentityCache, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		reader:   reader,
		identity: identity,
		logger:   logger,
	}
}

// RegisterRoutes registers account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Get("/account", h.Account())
	r.Get("/userInsights", h.UserInsights())
	r.Get("/publishingLimit", h.PublishingLimit())
}

// AccountResponse is the profile with its public URL
type AccountResponse struct {
	entity.Profile
	URL string `json:"profile_url,omitempty"`
}

// Account handles GET /account
func (h *AccountHandler) Account() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := h.reader.Profile(r.Context(), credential(r).AccessToken)

		if profile.ID != "" || profile.Username != "" {
			if err := h.identity.Remember(w, r, profile.ID, profile.Username); err != nil {
				h.logger.WarnContext(r.Context(), "failed to cache identity", "error", err)
			}
		}

		out := AccountResponse{Profile: profile}
		if profile.Username != "" {
			out.URL = entity.ProfileURL(profile.Username)
		}
		response.OK(w, out)
	}
}

// UserInsights handles GET /userInsights
func (h *AccountHandler) UserInsights() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		insights := h.reader.UserInsights(r.Context(), credential(r).AccessToken, timeRange(r))
		response.OK(w, insights)
	}
}

// PublishingLimit handles GET /publishingLimit
func (h *AccountHandler) PublishingLimit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, h.reader.PublishingLimit(r.Context(), credential(r).AccessToken))
	}
}
