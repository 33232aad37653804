package session

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(bootstrap *Bootstrap) *Manager {
	store := NewCookieStore(StoreConfig{Secret: "test-secret", MaxAge: 3600})
	return NewManager(store, "threads_session", bootstrap, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func protected(m *Manager) http.Handler {
	return m.RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, c.AccessToken)
	}))
}

func TestRequireLogin_RedirectsWithReturnURL(t *testing.T) {
	m := newTestManager(NewBootstrap("", ""))

	rec := httptest.NewRecorder()
	protected(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/threads?limit=5", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/?return_url=%2Fthreads%3Flimit%3D5", rec.Header().Get("Location"))
}

func TestRequireLogin_BootstrapIsConsumedOnce(t *testing.T) {
	m := newTestManager(NewBootstrap("initial-token", "17"))
	handler := protected(m)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/account", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "initial-token", first.Body.String())

	// the first session keeps working through its cookie
	withCookie := httptest.NewRequest(http.MethodGet, "/account", nil)
	for _, c := range first.Result().Cookies() {
		withCookie.AddCookie(c)
	}
	again := httptest.NewRecorder()
	handler.ServeHTTP(again, withCookie)
	assert.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "initial-token", again.Body.String())

	// a second, cookieless session is not logged in
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/account", nil))
	assert.Equal(t, http.StatusFound, second.Code)
}

func TestBootstrap_RequiresTokenAndUserID(t *testing.T) {
	_, ok := NewBootstrap("token", "").Take()
	assert.False(t, ok)

	_, ok = NewBootstrap("", "17").Take()
	assert.False(t, ok)

	var nilHolder *Bootstrap
	assert.False(t, nilHolder.Available())
}

func TestBootstrap_ConcurrentTakeHandsOutOnce(t *testing.T) {
	b := NewBootstrap("token", "17")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		taken int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := b.Take(); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, taken)
	assert.False(t, b.Available())
}

func TestManager_ClearLogsOut(t *testing.T) {
	m := newTestManager(nil)

	saveRec := httptest.NewRecorder()
	require.NoError(t, m.Save(saveRec, httptest.NewRequest(http.MethodGet, "/callback", nil), Credential{AccessToken: "tok", UserID: "1"}))

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	for _, c := range saveRec.Result().Cookies() {
		req.AddCookie(c)
	}
	c, ok := m.Load(req)
	require.True(t, ok)
	assert.Equal(t, "tok", c.AccessToken)

	clearRec := httptest.NewRecorder()
	require.NoError(t, m.Clear(clearRec, req))

	cookies := clearRec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Less(t, cookies[0].MaxAge, 0)
}
