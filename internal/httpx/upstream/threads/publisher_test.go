package threads

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
)

func TestPublisher_CreateTextContainer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1.0/me/threads", r.URL.Path)
		assert.Equal(t, ContainerText, q.Get("media_type"))
		assert.Equal(t, "hello", q.Get("text"))
		assert.Equal(t, entity.ReplyControlMentionedOnly, q.Get("reply_control"))
		assert.Equal(t, "555", q.Get("quote_post_id"))
		writeJSON(w, http.StatusOK, map[string]string{"id": "c-1"})
	})

	id, err := NewPublisher(client).CreateContainer(context.Background(), "tok", entity.Draft{
		Text:         "hello",
		ReplyControl: entity.ReplyControlMentionedOnly,
		QuotePostID:  "555",
	})

	require.NoError(t, err)
	assert.Equal(t, "c-1", id)
}

func TestPublisher_CreateCarouselContainer(t *testing.T) {
	var (
		mu       sync.Mutex
		children []string
		parent   string
	)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("is_carousel_item") == "true" {
			id := "child-" + strings.TrimPrefix(q.Get("image_url")+q.Get("video_url"), "https://cdn.example.com/")
			mu.Lock()
			children = append(children, id)
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]string{"id": id})
			return
		}

		assert.Equal(t, ContainerCarousel, q.Get("media_type"))
		mu.Lock()
		parent = q.Get("children")
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"id": "carousel-1"})
	})

	id, err := NewPublisher(client).CreateContainer(context.Background(), "tok", entity.Draft{
		Text: "album",
		Attachments: []entity.Attachment{
			{Type: entity.AttachmentImage, URL: "https://cdn.example.com/a.png"},
			{Type: entity.AttachmentVideo, URL: "https://cdn.example.com/b.mp4"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "carousel-1", id)
	assert.Len(t, children, 2)
	assert.Equal(t, "child-a.png,child-b.mp4", parent)
}

func TestPublisher_CreateContainerRejectsInvalidDraft(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call to %s", r.URL.Path)
	})

	_, err := NewPublisher(client).CreateContainer(context.Background(), "tok", entity.Draft{})

	assert.ErrorIs(t, err, entity.ErrEmptyDraft)
}

func TestPublisher_PublishWaitsForContainer(t *testing.T) {
	var polls atomic.Int32

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1.0/c-9":
			status := entity.ContainerStatusInProgress
			if polls.Add(1) >= 2 {
				status = entity.ContainerStatusFinished
			}
			writeJSON(w, http.StatusOK, map[string]string{"id": "c-9", "status": status})
		case "/v1.0/me/threads_publish":
			assert.Equal(t, "c-9", r.URL.Query().Get("creation_id"))
			writeJSON(w, http.StatusOK, map[string]string{"id": "post-9"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	id, err := NewPublisher(client, WithPolling(5, time.Millisecond)).Publish(context.Background(), "tok", "c-9", true)

	require.NoError(t, err)
	assert.Equal(t, "post-9", id)
	assert.Equal(t, int32(2), polls.Load())
}

func TestPublisher_WaitForContainerFailed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"id":            "c-1",
			"status":        entity.ContainerStatusError,
			"error_message": "media download failed",
		})
	})

	err := NewPublisher(client, WithPolling(3, time.Millisecond)).WaitForContainer(context.Background(), "tok", "c-1")

	assert.ErrorIs(t, err, entity.ErrContainerFailed)
	assert.Contains(t, err.Error(), "media download failed")
}

func TestPublisher_PublishSurfacesUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeGraphError(w, "container not found")
	})

	_, err := NewPublisher(client).Publish(context.Background(), "tok", "c-1", false)

	require.Error(t, err)
	assert.Equal(t, "container not found", ErrorMessage(err))
}

func TestClient_ExchangeCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "/v1.0/oauth/access_token", r.URL.Path)
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "app", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","user_id":17841400000000000}`))
	})

	cfg := OAuthConfig{AppID: "app", AppSecret: "secret", RedirectURI: "https://localhost:8000/callback"}
	token, err := client.ExchangeCode(context.Background(), cfg, "the-code")

	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
	assert.Equal(t, "17841400000000000", token.UserID.String())
}

func TestClient_AuthorizeURL(t *testing.T) {
	client := New(WithAuthBaseURL("https://www.threads.net"))

	got, err := client.AuthorizeURL(OAuthConfig{AppID: "app", RedirectURI: "https://localhost:8000/callback"})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "https://www.threads.net/oauth/authorize?"))
	assert.Contains(t, got, "response_type=code")
	assert.Contains(t, got, "threads_basic%2Cthreads_content_publish")
	assert.NotContains(t, got, "access_token")
}
