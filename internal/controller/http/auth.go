package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-threads/internal/httpx/response"
	"github.com/vadim/neo-threads/internal/httpx/upstream/threads"
	"github.com/vadim/neo-threads/internal/session"
)

// OAuthClient runs the authorization code flow
type OAuthClient interface {
	AuthorizeURL(cfg threads.OAuthConfig) (string, error)
	ExchangeCode(ctx context.Context, cfg threads.OAuthConfig, code string) (threads.Token, error)
}

// Sessions reads and writes the login state of a browser
type Sessions interface {
	Load(r *http.Request) (session.Credential, bool)
	Save(w http.ResponseWriter, r *http.Request, c session.Credential) error
	Clear(w http.ResponseWriter, r *http.Request) error
	Bootstrap(w http.ResponseWriter, r *http.Request) (session.Credential, bool)
}

// AuthHandler handles login, callback and logout
type AuthHandler struct {
	oauth    OAuthClient
	cfg      threads.OAuthConfig
	sessions Sessions
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(oauth OAuthClient, cfg threads.OAuthConfig, sessions Sessions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		oauth:    oauth,
		cfg:      cfg,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index())
	r.Get("/login", h.Login())
	r.Get("/callback", h.Callback())
	r.Get("/logout", h.Logout())
}

// IndexResponse tells the client whether it is logged in
type IndexResponse struct {
	LoggedIn  bool   `json:"logged_in"`
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	LoginURL  string `json:"login_url,omitempty"`
	ReturnURL string `json:"return_url,omitempty"`
}

// Index handles GET /
func (h *AuthHandler) Index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returnURL := localURL(r.URL.Query().Get(session.ParamReturnURL))

		c, ok := h.sessions.Load(r)
		if !ok {
			c, ok = h.sessions.Bootstrap(w, r)
			if ok {
				if returnURL == "" {
					returnURL = "/account"
				}
				http.Redirect(w, r, returnURL, http.StatusFound)
				return
			}
		}

		if !ok {
			response.OK(w, IndexResponse{
				LoginURL:  "/login",
				ReturnURL: returnURL,
			})
			return
		}

		response.OK(w, IndexResponse{
			LoggedIn: true,
			UserID:   c.UserID,
			Username: c.Username,
		})
	}
}

// Login handles GET /login
func (h *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := h.oauth.AuthorizeURL(h.cfg)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to build authorize url", "error", err)
			response.InternalError(w, "failed to build login url")
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// Callback handles GET /callback
func (h *AuthHandler) Callback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if msg := r.URL.Query().Get("error_description"); msg != "" {
			response.BadRequest(w, msg)
			return
		}

		token, err := h.oauth.ExchangeCode(r.Context(), h.cfg, r.URL.Query().Get("code"))
		if err != nil {
			if errors.Is(err, threads.ErrMissingCode) {
				response.BadRequest(w, err.Error())
				return
			}
			h.logger.ErrorContext(r.Context(), "code exchange failed", "error", err)
			response.BadGateway(w, threads.ErrorMessage(err))
			return
		}

		err = h.sessions.Save(w, r, session.Credential{
			AccessToken: token.AccessToken,
			UserID:      token.UserID.String(),
		})
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to save session", "error", err)
			response.InternalError(w, "failed to save session")
			return
		}

		http.Redirect(w, r, "/account", http.StatusFound)
	}
}

// Logout handles GET /logout
func (h *AuthHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.sessions.Clear(w, r); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to clear session", "error", err)
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// localURL keeps only same-site paths so return_url can't redirect off site
func localURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" {
		return ""
	}
	return u.RequestURI()
}
