package threads

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
)

// Container media types accepted by me/threads
const (
	ContainerText     = "TEXT"
	ContainerImage    = "IMAGE"
	ContainerVideo    = "VIDEO"
	ContainerCarousel = "CAROUSEL"
)

// ContainerInput represents input for creating a media container
type ContainerInput struct {
	MediaType      string
	Text           string
	ImageURL       string
	VideoURL       string
	AltText        string
	IsCarouselItem bool
	Children       []string
	ReplyControl   string
	ReplyToID      string
	LinkAttachment string
	QuotePostID    string
}

func (in ContainerInput) params() url.Values {
	params := url.Values{}
	params.Set("media_type", in.MediaType)

	setIf := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	setIf("text", in.Text)
	setIf("image_url", in.ImageURL)
	setIf("video_url", in.VideoURL)
	setIf("alt_text", in.AltText)
	setIf("reply_control", in.ReplyControl)
	setIf("reply_to_id", in.ReplyToID)
	setIf("link_attachment", in.LinkAttachment)
	setIf("quote_post_id", in.QuotePostID)

	if in.IsCarouselItem {
		params.Set("is_carousel_item", "true")
	}
	if len(in.Children) > 0 {
		params.Set("children", strings.Join(in.Children, ","))
	}
	return params
}

type idResponse struct {
	ID string `json:"id"`
}

// CreateContainer creates a media container and returns its id
func (c *Client) CreateContainer(ctx context.Context, accessToken string, in ContainerInput) (string, error) {
	var out idResponse
	if err := c.post(ctx, "me/threads", in.params(), accessToken, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Publish publishes a finished container and returns the post id
func (c *Client) Publish(ctx context.Context, accessToken, containerID string) (string, error) {
	if containerID == "" {
		return "", entity.ErrMissingContainerID
	}

	params := url.Values{}
	params.Set("creation_id", containerID)

	var out idResponse
	if err := c.post(ctx, "me/threads_publish", params, accessToken, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Repost reposts a post and returns the id of the repost
func (c *Client) Repost(ctx context.Context, accessToken, postID string) (string, error) {
	var out idResponse
	if err := c.post(ctx, url.PathEscape(postID)+"/repost", nil, accessToken, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// ManageReply hides or unhides a reply
func (c *Client) ManageReply(ctx context.Context, accessToken, replyID string, hide bool) error {
	params := url.Values{}
	params.Set("hide", strconv.FormatBool(hide))

	return c.post(ctx, url.PathEscape(replyID)+"/manage_reply", params, accessToken, nil)
}

// ContainerStatus returns the processing state of a container
func (c *Client) ContainerStatus(ctx context.Context, accessToken, containerID string) (entity.ContainerStatus, error) {
	params := url.Values{}
	params.Set("fields", strings.Join(ContainerStatusFields, ","))

	var out entity.ContainerStatus
	if err := c.get(ctx, url.PathEscape(containerID), params, accessToken, &out); err != nil {
		return entity.ContainerStatus{}, err
	}
	return out, nil
}
