package session

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"
)

const (
	keyAccessToken = "access_token"
	keyUserID      = "user_id"
	keyUsername    = "username"

	// ParamReturnURL carries the originally requested URL to the login page
	ParamReturnURL = "return_url"
)

// StoreConfig configures the cookie store
type StoreConfig struct {
	Secret string
	MaxAge int
	Secure bool
}

// NewCookieStore creates an authenticated and encrypted cookie store. Both
// keys are derived from the configured secret.
func NewCookieStore(cfg StoreConfig) *sessions.CookieStore {
	authKey := sha256.Sum256([]byte("auth:" + cfg.Secret))
	encKey := sha256.Sum256([]byte("enc:" + cfg.Secret))

	store := sessions.NewCookieStore(authKey[:], encKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Manager reads and writes the session credential
type Manager struct {
	store     sessions.Store
	name      string
	bootstrap *Bootstrap
	logger    *slog.Logger
}

// NewManager creates a new session manager
func NewManager(store sessions.Store, name string, bootstrap *Bootstrap, logger *slog.Logger) *Manager {
	return &Manager{
		store:     store,
		name:      name,
		bootstrap: bootstrap,
		logger:    logger,
	}
}

// Load returns the credential of the request's session
func (m *Manager) Load(r *http.Request) (Credential, bool) {
	s, err := m.store.Get(r, m.name)
	if err != nil {
		// a cookie signed with an old secret decodes as a fresh session
		m.logger.DebugContext(r.Context(), "discarding unreadable session", "error", err)
	}
	if s == nil {
		return Credential{}, false
	}

	c := Credential{
		AccessToken: stringValue(s.Values, keyAccessToken),
		UserID:      stringValue(s.Values, keyUserID),
		Username:    stringValue(s.Values, keyUsername),
	}
	return c, c.Valid()
}

// Save writes the credential into the session cookie
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, c Credential) error {
	s, _ := m.store.Get(r, m.name)
	if s == nil {
		return fmt.Errorf("session store returned no session")
	}

	s.Values[keyAccessToken] = c.AccessToken
	s.Values[keyUserID] = c.UserID
	s.Values[keyUsername] = c.Username

	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Clear drops the session
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	s, _ := m.store.Get(r, m.name)
	if s == nil {
		return nil
	}

	s.Values = map[any]any{}
	s.Options.MaxAge = -1

	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Remember updates the identity cached next to the token, keeping the token
func (m *Manager) Remember(w http.ResponseWriter, r *http.Request, userID, username string) error {
	c, ok := m.Load(r)
	if !ok {
		return nil
	}
	if (userID == "" || userID == c.UserID) && (username == "" || username == c.Username) {
		return nil
	}
	if userID != "" {
		c.UserID = userID
	}
	if username != "" {
		c.Username = username
	}
	return m.Save(w, r, c)
}

// Bootstrap logs the session in with the preconfigured credential when
// it is still available
func (m *Manager) Bootstrap(w http.ResponseWriter, r *http.Request) (Credential, bool) {
	c, ok := m.bootstrap.Take()
	if !ok {
		return Credential{}, false
	}
	if err := m.Save(w, r, c); err != nil {
		m.logger.ErrorContext(r.Context(), "failed to store bootstrap credential", "error", err)
	}
	m.logger.InfoContext(r.Context(), "session logged in with bootstrap credential")
	return c, true
}

// RequireLogin attaches the session credential to the request context or
// redirects to the index page with the original URL as return_url
func (m *Manager) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := m.Load(r)
		if !ok {
			c, ok = m.Bootstrap(w, r)
		}
		if !ok {
			http.Redirect(w, r, "/?"+ParamReturnURL+"="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), c)))
	})
}

func stringValue(values map[any]any, key string) string {
	v, _ := values[key].(string)
	return v
}
