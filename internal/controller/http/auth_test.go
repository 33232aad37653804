package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/neo-threads/internal/httpx/upstream/threads"
	"github.com/vadim/neo-threads/internal/session"
)

type fakeOAuth struct {
	token threads.Token
	err   error
}

func (f *fakeOAuth) AuthorizeURL(cfg threads.OAuthConfig) (string, error) {
	return "https://www.threads.net/oauth/authorize?client_id=" + cfg.AppID, nil
}

func (f *fakeOAuth) ExchangeCode(_ context.Context, _ threads.OAuthConfig, code string) (threads.Token, error) {
	if code == "" {
		return threads.Token{}, threads.ErrMissingCode
	}
	return f.token, f.err
}

func newAuthRouter(oauth OAuthClient, bootstrap *session.Bootstrap) (chi.Router, *session.Manager) {
	store := session.NewCookieStore(session.StoreConfig{Secret: "test-secret", MaxAge: 600})
	manager := session.NewManager(store, "threads_session", bootstrap, discardLogger())

	r := chi.NewRouter()
	NewAuthHandler(oauth, threads.OAuthConfig{AppID: "app"}, manager, discardLogger()).RegisterRoutes(r)
	return r, manager
}

func TestAuthHandler_IndexWithoutSession(t *testing.T) {
	r, _ := newAuthRouter(&fakeOAuth{}, session.NewBootstrap("", ""))

	rec := serve(r, http.MethodGet, "/?return_url=%2Fthreads", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out IndexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.False(t, out.LoggedIn)
	assert.Equal(t, "/login", out.LoginURL)
	assert.Equal(t, "/threads", out.ReturnURL)
}

func TestAuthHandler_IndexBootstrapsOnce(t *testing.T) {
	r, _ := newAuthRouter(&fakeOAuth{}, session.NewBootstrap("seed-token", "7"))

	rec := serve(r, http.MethodGet, "/?return_url=%2Fthreads", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/threads", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))

	// a second browser doesn't get the consumed credential
	rec = serve(r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"logged_in":false`)
}

func TestAuthHandler_IndexBootstrapDefaultsToAccount(t *testing.T) {
	r, _ := newAuthRouter(&fakeOAuth{}, session.NewBootstrap("seed-token", "7"))

	rec := serve(r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/account", rec.Header().Get("Location"))
}

func TestAuthHandler_Login(t *testing.T) {
	r, _ := newAuthRouter(&fakeOAuth{}, session.NewBootstrap("", ""))

	rec := serve(r, http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://www.threads.net/oauth/authorize?client_id=app", rec.Header().Get("Location"))
}

func TestAuthHandler_CallbackStoresToken(t *testing.T) {
	oauth := &fakeOAuth{token: threads.Token{AccessToken: "user-token", UserID: json.Number("123")}}
	r, manager := newAuthRouter(oauth, session.NewBootstrap("", ""))

	rec := serve(r, http.MethodGet, "/callback?code=abc", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/account", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	c, ok := manager.Load(req)
	require.True(t, ok)
	assert.Equal(t, "user-token", c.AccessToken)
	assert.Equal(t, "123", c.UserID)
}

func TestAuthHandler_CallbackErrors(t *testing.T) {
	oauth := &fakeOAuth{err: &threads.APIError{Message: "Invalid code", StatusCode: http.StatusBadRequest}}
	r, _ := newAuthRouter(oauth, session.NewBootstrap("", ""))

	rec := serve(r, http.MethodGet, "/callback", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodGet, "/callback?code=stale", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid code")
}
