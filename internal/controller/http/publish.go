package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
	"github.com/vadim/neo-threads/internal/httpx/response"
	"github.com/vadim/neo-threads/internal/httpx/upstream/threads"
)

// Composer turns drafts into containers and containers into posts
type Composer interface {
	CreateContainer(ctx context.Context, accessToken string, d entity.Draft) (string, error)
	Publish(ctx context.Context, accessToken, containerID string, wait bool) (string, error)
}

// PostActions are the mutating calls that act on existing posts
type PostActions interface {
	Repost(ctx context.Context, accessToken, postID string) (string, error)
	ManageReply(ctx context.Context, accessToken, replyID string, hide bool) error
	ContainerStatus(ctx context.Context, accessToken, containerID string) (entity.ContainerStatus, error)
}

// PublishHandler handles compose and publish routes
type PublishHandler struct {
	composer Composer
	actions  PostActions
	logger   *slog.Logger
}

// NewPublishHandler creates a new publish handler
func NewPublishHandler(composer Composer, actions PostActions, logger *slog.Logger) *PublishHandler {
	return &PublishHandler{
		composer: composer,
		actions:  actions,
		logger:   logger,
	}
}

// RegisterRoutes registers publish routes
func (h *PublishHandler) RegisterRoutes(r chi.Router) {
	r.Get("/upload", h.ComposeForm())
	r.Post("/upload", h.Upload())
	r.Post("/repost", h.Repost())
	r.Get("/publish/{containerId}", h.PublishForm())
	r.Post("/publish", h.Publish())
	r.Get("/container/status/{containerId}", h.ContainerStatus())
	r.Post("/manage_reply/{replyId}", h.ManageReply())
}

// ComposeDescriptor describes what the compose form accepts
type ComposeDescriptor struct {
	ReplyToID       string   `json:"reply_to_id,omitempty"`
	QuotePostID     string   `json:"quote_post_id,omitempty"`
	ReplyControls   []string `json:"reply_controls"`
	AttachmentTypes []string `json:"attachment_types"`
	MaxTextLength   int      `json:"max_text_length"`
	MaxAttachments  int      `json:"max_attachments"`
	MediaUploadURL  string   `json:"media_upload_url"`
}

// ComposeForm handles GET /upload
func (h *PublishHandler) ComposeForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, ComposeDescriptor{
			ReplyToID:   r.URL.Query().Get("replyToId"),
			QuotePostID: r.URL.Query().Get("quotePostId"),
			ReplyControls: []string{
				entity.ReplyControlEveryone,
				entity.ReplyControlAccountsYouFollow,
				entity.ReplyControlMentionedOnly,
			},
			AttachmentTypes: []string{string(entity.AttachmentImage), string(entity.AttachmentVideo)},
			MaxTextLength:   entity.MaxTextLength,
			MaxAttachments:  entity.MaxCarouselItems,
			MediaUploadURL:  "/media/upload",
		})
	}
}

// IDResponse carries the id of a created object
type IDResponse struct {
	ID string `json:"id"`
}

// Upload handles POST /upload
func (h *PublishHandler) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft entity.Draft
		if err := decodeJSON(w, r, &draft, MaxBodySize); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		id, err := h.composer.CreateContainer(r.Context(), credential(r).AccessToken, draft)
		if err != nil {
			h.handlePublishError(w, r, "container creation failed", err)
			return
		}

		response.Created(w, IDResponse{ID: id})
	}
}

// RepostRequest names the post to repost
type RepostRequest struct {
	RepostID string `json:"repost_id"`
}

// Repost handles POST /repost
func (h *PublishHandler) Repost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RepostRequest
		if err := decodeJSON(w, r, &req, MaxBodySize); err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		if req.RepostID == "" {
			response.BadRequest(w, "repost_id is required")
			return
		}

		id, err := h.actions.Repost(r.Context(), credential(r).AccessToken, req.RepostID)
		if err != nil {
			h.handlePublishError(w, r, "repost failed", err)
			return
		}

		http.Redirect(w, r, "/threads/"+url.PathEscape(id), http.StatusSeeOther)
	}
}

// PublishForm handles GET /publish/{containerId}
func (h *PublishHandler) PublishForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		containerID := chi.URLParam(r, "containerId")
		response.OK(w, map[string]string{
			"container_id": containerID,
			"status_url":   "/container/status/" + url.PathEscape(containerID),
			"publish_url":  "/publish",
		})
	}
}

// PublishRequest selects the container to publish
type PublishRequest struct {
	ContainerID string `json:"container_id"`
	Wait        bool   `json:"wait"`
}

// Publish handles POST /publish
func (h *PublishHandler) Publish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PublishRequest
		if err := decodeJSON(w, r, &req, MaxBodySize); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		id, err := h.composer.Publish(r.Context(), credential(r).AccessToken, req.ContainerID, req.Wait)
		if err != nil {
			h.handlePublishError(w, r, "publishing failed", err)
			return
		}

		response.OK(w, IDResponse{ID: id})
	}
}

// ContainerStatus handles GET /container/status/{containerId}
func (h *PublishHandler) ContainerStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := h.actions.ContainerStatus(r.Context(), credential(r).AccessToken, chi.URLParam(r, "containerId"))
		if err != nil {
			h.handlePublishError(w, r, "container status failed", err)
			return
		}
		response.OK(w, status)
	}
}

// ManageReply handles POST /manage_reply/{replyId}?hide=
func (h *PublishHandler) ManageReply() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hide := parseBool(strings.ToLower(r.URL.Query().Get("hide")))

		err := h.actions.ManageReply(r.Context(), credential(r).AccessToken, chi.URLParam(r, "replyId"), hide)
		if err != nil {
			h.handlePublishError(w, r, "managing reply failed", err)
			return
		}

		response.OK(w, map[string]bool{"hidden": hide})
	}
}

func (h *PublishHandler) handlePublishError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "error", err)

	switch {
	case errors.Is(err, entity.ErrEmptyDraft),
		errors.Is(err, entity.ErrTextTooLong),
		errors.Is(err, entity.ErrTooManyAttachments),
		errors.Is(err, entity.ErrInvalidAttachmentType),
		errors.Is(err, entity.ErrMissingAttachmentURL),
		errors.Is(err, entity.ErrInvalidReplyControl),
		errors.Is(err, entity.ErrMissingContainerID):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrContainerFailed),
		errors.Is(err, entity.ErrContainerExpired),
		errors.Is(err, entity.ErrContainerNotReady):
		response.Error(w, http.StatusConflict, err.Error())
	default:
		var apiErr *threads.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			response.Error(w, apiErr.StatusCode, threads.ErrorMessage(err))
			return
		}
		response.BadGateway(w, threads.ErrorMessage(err))
	}
}
