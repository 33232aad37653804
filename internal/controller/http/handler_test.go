package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	exportentity "github.com/vadim/neo-threads/internal/domain/export/entity"
	"github.com/vadim/neo-threads/internal/domain/thread/entity"
	"github.com/vadim/neo-threads/internal/httpx/response"
	"github.com/vadim/neo-threads/internal/httpx/upstream/threads"
	"github.com/vadim/neo-threads/internal/session"
)

var testCredential = session.Credential{AccessToken: "tok", UserID: "42"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loggedIn mounts routes behind a middleware that plays RequireLogin
func loggedIn(c session.Credential, register func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(session.WithCredential(r.Context(), c)))
			})
		})
		register(r)
	})
	return r
}

func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type fakeReader struct {
	page      entity.Page
	lastToken string
	lastQuery entity.PageQuery
	profile   entity.Profile
	embed     string
}

func (f *fakeReader) Threads(_ context.Context, tok string, q entity.PageQuery) entity.Page {
	f.lastToken, f.lastQuery = tok, q
	return f.page
}

func (f *fakeReader) UserReplies(_ context.Context, tok string, q entity.PageQuery) entity.Page {
	f.lastToken, f.lastQuery = tok, q
	return f.page
}

func (f *fakeReader) Mentions(_ context.Context, tok string, q entity.PageQuery) entity.Page {
	f.lastToken, f.lastQuery = tok, q
	return f.page
}

func (f *fakeReader) Replies(_ context.Context, tok, _ string, q entity.PageQuery) entity.Page {
	f.lastToken, f.lastQuery = tok, q
	return f.page
}

func (f *fakeReader) Conversation(_ context.Context, tok, _ string, q entity.PageQuery) entity.Page {
	f.lastToken, f.lastQuery = tok, q
	return f.page
}

func (f *fakeReader) Search(_ context.Context, tok, _, _ string, q entity.PageQuery) entity.Page {
	f.lastToken, f.lastQuery = tok, q
	return f.page
}

func (f *fakeReader) Thread(_ context.Context, _, id string) entity.Post {
	return entity.Post{ID: id}
}

func (f *fakeReader) ThreadInsights(context.Context, string, string, entity.TimeRange) entity.Insights {
	return entity.Insights{entity.MetricViews: 5}
}

func (f *fakeReader) Embed(context.Context, string) string {
	return f.embed
}

func (f *fakeReader) Profile(context.Context, string) entity.Profile {
	return f.profile
}

func TestThreadHandler_ListTranslatesCursors(t *testing.T) {
	reader := &fakeReader{page: entity.Page{
		Data: []entity.Post{{ID: "1"}, {ID: "2"}},
		Paging: &entity.Paging{
			Next:     "https://graph.threads.net/v1.0/me/threads?access_token=secret&fields=id&limit=2&after=A2",
			Previous: "https://graph.threads.net/v1.0/me/threads?access_token=secret&before=B1",
		},
	}}
	h := loggedIn(testCredential, NewThreadHandler(reader).RegisterRoutes)

	rec := serve(h, http.MethodGet, "/threads?limit=2&after=A1&fields=ignored", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "tok", reader.lastToken)
	assert.Equal(t, 2, reader.lastQuery.Limit)
	assert.Equal(t, "A1", reader.lastQuery.After)

	var out PagedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Data, 2)

	next, err := url.Parse(out.Paging.Next)
	require.NoError(t, err)
	assert.Equal(t, "http", next.Scheme)
	assert.Equal(t, "example.com", next.Host)
	assert.Equal(t, "/threads", next.Path)
	assert.Equal(t, url.Values{"limit": {"2"}, "after": {"A2"}}, next.Query())

	prev, err := url.Parse(out.Paging.Previous)
	require.NoError(t, err)
	assert.Equal(t, url.Values{"before": {"B1"}}, prev.Query())
	assert.Equal(t, "http://example.com/threads?before=B1", out.Paging.Previous)
}

func TestThreadHandler_CursorsFollowForwardedScheme(t *testing.T) {
	reader := &fakeReader{page: entity.Page{
		Data:   []entity.Post{{ID: "1"}},
		Paging: &entity.Paging{Next: "https://graph.threads.net/v1.0/me/replies?access_token=secret&after=A2"},
	}}
	h := loggedIn(testCredential, NewThreadHandler(reader).RegisterRoutes)

	req := httptest.NewRequest(http.MethodGet, "http://threads.local:8080/replies", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out PagedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "https://threads.local:8080/replies?after=A2", out.Paging.Next)
}

func TestThreadHandler_EmptyPageHasNoLinks(t *testing.T) {
	h := loggedIn(testCredential, NewThreadHandler(&fakeReader{}).RegisterRoutes)

	rec := serve(h, http.MethodGet, "/mentions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"paging":{}}`, rec.Body.String())
}

func TestThreadHandler_SingleThreadRoutes(t *testing.T) {
	h := loggedIn(testCredential, NewThreadHandler(&fakeReader{}).RegisterRoutes)

	rec := serve(h, http.MethodGet, "/threads/99", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"99"`)

	rec = serve(h, http.MethodGet, "/threads/99/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"views":5}`, rec.Body.String())
}

func TestThreadHandler_Embed(t *testing.T) {
	r := chi.NewRouter()
	NewThreadHandler(&fakeReader{embed: "<blockquote>post</blockquote>"}).RegisterPublicRoutes(r)

	rec := serve(r, http.MethodGet, "/oEmbed?url=https://www.threads.net/@a/post/b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<blockquote>post</blockquote>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = serve(r, http.MethodGet, "/oEmbed", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type MockComposer struct {
	mock.Mock
}

func (m *MockComposer) CreateContainer(ctx context.Context, tok string, d entity.Draft) (string, error) {
	args := m.Called(ctx, tok, d)
	return args.String(0), args.Error(1)
}

func (m *MockComposer) Publish(ctx context.Context, tok, containerID string, wait bool) (string, error) {
	args := m.Called(ctx, tok, containerID, wait)
	return args.String(0), args.Error(1)
}

type MockActions struct {
	mock.Mock
}

func (m *MockActions) Repost(ctx context.Context, tok, postID string) (string, error) {
	args := m.Called(ctx, tok, postID)
	return args.String(0), args.Error(1)
}

func (m *MockActions) ManageReply(ctx context.Context, tok, replyID string, hide bool) error {
	return m.Called(ctx, tok, replyID, hide).Error(0)
}

func (m *MockActions) ContainerStatus(ctx context.Context, tok, containerID string) (entity.ContainerStatus, error) {
	args := m.Called(ctx, tok, containerID)
	return args.Get(0).(entity.ContainerStatus), args.Error(1)
}

func TestPublishHandler_Upload(t *testing.T) {
	composer := new(MockComposer)
	composer.On("CreateContainer", mock.Anything, "tok", entity.Draft{Text: "hello"}).Return("c1", nil)
	h := loggedIn(testCredential, NewPublishHandler(composer, new(MockActions), discardLogger()).RegisterRoutes)

	rec := serve(h, http.MethodPost, "/upload", strings.NewReader(`{"text":"hello"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"c1"}`, rec.Body.String())
	composer.AssertExpectations(t)
}

func TestPublishHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "invalid draft",
			err:      entity.ErrEmptyDraft,
			wantCode: http.StatusBadRequest,
			wantMsg:  entity.ErrEmptyDraft.Error(),
		},
		{
			name:     "upstream rejection keeps status and message",
			err:      &threads.APIError{Message: "Invalid parameter", StatusCode: http.StatusBadRequest},
			wantCode: http.StatusBadRequest,
			wantMsg:  "Invalid parameter",
		},
		{
			name:     "upstream outage",
			err:      &threads.APIError{StatusCode: http.StatusInternalServerError},
			wantCode: http.StatusBadGateway,
			wantMsg:  threads.GenericErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composer := new(MockComposer)
			composer.On("CreateContainer", mock.Anything, "tok", mock.Anything).Return("", tt.err)
			h := loggedIn(testCredential, NewPublishHandler(composer, new(MockActions), discardLogger()).RegisterRoutes)

			rec := serve(h, http.MethodPost, "/upload", strings.NewReader(`{}`))
			require.Equal(t, tt.wantCode, rec.Code)

			var body response.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestPublishHandler_PublishWaitsOnRequest(t *testing.T) {
	composer := new(MockComposer)
	composer.On("Publish", mock.Anything, "tok", "c1", true).Return("p1", nil)
	h := loggedIn(testCredential, NewPublishHandler(composer, new(MockActions), discardLogger()).RegisterRoutes)

	rec := serve(h, http.MethodPost, "/publish", strings.NewReader(`{"container_id":"c1","wait":true}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"p1"}`, rec.Body.String())
	composer.AssertExpectations(t)
}

func TestPublishHandler_PublishFailedContainer(t *testing.T) {
	composer := new(MockComposer)
	composer.On("Publish", mock.Anything, "tok", "c1", true).Return("", entity.ErrContainerFailed)
	h := loggedIn(testCredential, NewPublishHandler(composer, new(MockActions), discardLogger()).RegisterRoutes)

	rec := serve(h, http.MethodPost, "/publish", strings.NewReader(`{"container_id":"c1","wait":true}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublishHandler_RepostRedirects(t *testing.T) {
	actions := new(MockActions)
	actions.On("Repost", mock.Anything, "tok", "orig").Return("r1", nil)
	h := loggedIn(testCredential, NewPublishHandler(new(MockComposer), actions, discardLogger()).RegisterRoutes)

	rec := serve(h, http.MethodPost, "/repost", strings.NewReader(`{"repost_id":"orig"}`))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/threads/r1", rec.Header().Get("Location"))
}

func TestPublishHandler_ManageReply(t *testing.T) {
	actions := new(MockActions)
	actions.On("ManageReply", mock.Anything, "tok", "r9", true).Return(nil)
	h := loggedIn(testCredential, NewPublishHandler(new(MockComposer), actions, discardLogger()).RegisterRoutes)

	rec := serve(h, http.MethodPost, "/manage_reply/r9?hide=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	actions.AssertExpectations(t)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, posts []entity.Post) (int, error) {
	args := m.Called(ctx, posts)
	return args.Int(0), args.Error(1)
}

func TestExportHandler_Save(t *testing.T) {
	exporter := new(MockExporter)
	exporter.On("Export", mock.Anything, mock.MatchedBy(func(posts []entity.Post) bool {
		return len(posts) == 2
	})).Return(2, nil)
	h := loggedIn(testCredential, NewExportHandler(exporter).RegisterRoutes)

	rec := serve(h, http.MethodPost, "/save-to-notion", strings.NewReader(`{"threads":[{"id":"1"},{"id":"2"}]}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"saved":2}`, rec.Body.String())
}

func TestExportHandler_ReportsPartialExport(t *testing.T) {
	exporter := new(MockExporter)
	exporter.On("Export", mock.Anything, mock.Anything).Return(1, errors.New("notion unavailable"))
	h := loggedIn(testCredential, NewExportHandler(exporter).RegisterRoutes)

	rec := serve(h, http.MethodPost, "/save-to-notion", strings.NewReader(`{"threads":[{"id":"1"},{"id":"2"},{"id":"3"}]}`))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var out ExportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Error)
	assert.Equal(t, 1, out.Saved)
}

func TestExportHandler_RejectsEmptyBody(t *testing.T) {
	exporter := new(MockExporter)
	h := loggedIn(testCredential, NewExportHandler(exporter).RegisterRoutes)

	rec := serve(h, http.MethodPost, "/save-to-notion", strings.NewReader(`{"threads":[]}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), exportentity.ErrNoPosts.Error())
	exporter.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
}

type fakeBulk struct {
	username string
}

func (f *fakeBulk) All(context.Context, string) []entity.Post {
	return nil
}

func (f *fakeBulk) WithReplies(_ context.Context, _, username string) []entity.Post {
	f.username = username
	return []entity.Post{{ID: "1"}}
}

func (f *fakeBulk) AllWithReplies(_ context.Context, _, username string) []entity.Post {
	f.username = username
	return []entity.Post{{ID: "1"}, {ID: "2"}}
}

type recordingIdentity struct {
	userID, username string
}

func (r *recordingIdentity) Remember(_ http.ResponseWriter, _ *http.Request, userID, username string) error {
	r.userID, r.username = userID, username
	return nil
}

func TestBulkHandler_LooksUpUsernameOnce(t *testing.T) {
	bulk := &fakeBulk{}
	identity := &recordingIdentity{}
	reader := &fakeReader{profile: entity.Profile{ID: "42", Username: "me"}}
	h := loggedIn(testCredential, NewBulkHandler(bulk, reader, identity, discardLogger()).RegisterRoutes)

	rec := serve(h, http.MethodGet, "/threads_all_with_replies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "me", bulk.username)
	assert.Equal(t, "me", identity.username)

	var out BulkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Total)
}

func TestBulkHandler_UsesCachedUsername(t *testing.T) {
	bulk := &fakeBulk{}
	identity := &recordingIdentity{}
	c := testCredential
	c.Username = "cached"
	h := loggedIn(c, NewBulkHandler(bulk, &fakeReader{}, identity, discardLogger()).RegisterRoutes)

	rec := serve(h, http.MethodGet, "/threads_with_replies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cached", bulk.username)
	assert.Empty(t, identity.username)
}

func TestBulkHandler_AllReturnsEmptyList(t *testing.T) {
	h := loggedIn(testCredential, NewBulkHandler(&fakeBulk{}, &fakeReader{}, &recordingIdentity{}, discardLogger()).RegisterRoutes)

	rec := serve(h, http.MethodGet, "/threads_all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"total":0}`, rec.Body.String())
}

func TestMediaHandler_WithoutStorage(t *testing.T) {
	h := loggedIn(testCredential, NewMediaHandler(nil, discardLogger()).RegisterRoutes)

	rec := serve(h, http.MethodPost, "/media/upload", bytes.NewReader(nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLocalURL(t *testing.T) {
	assert.Equal(t, "/threads?after=x", localURL("/threads?after=x"))
	assert.Empty(t, localURL("https://evil.example/"))
	assert.Empty(t, localURL("//evil.example/"))
	assert.Empty(t, localURL(""))
}
