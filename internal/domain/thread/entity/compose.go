package entity

import (
	"errors"
	"unicode/utf8"
)

// AttachmentType is the kind of media attached to a draft
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentVideo AttachmentType = "video"
)

// Reply control values accepted by the API
const (
	ReplyControlEveryone          = "everyone"
	ReplyControlAccountsYouFollow = "accounts_you_follow"
	ReplyControlMentionedOnly     = "mentioned_only"
)

const (
	// MaxTextLength is the longest text a post may carry
	MaxTextLength = 500
	// MaxCarouselItems is the upper bound of carousel children
	MaxCarouselItems = 20
)

// Domain errors for composing and publishing
var (
	ErrEmptyDraft            = errors.New("post needs text or at least one attachment")
	ErrTextTooLong           = errors.New("text exceeds maximum length of 500 characters")
	ErrTooManyAttachments    = errors.New("carousel cannot have more than 20 items")
	ErrInvalidAttachmentType = errors.New("attachment type must be image or video")
	ErrMissingAttachmentURL  = errors.New("attachment url is required")
	ErrInvalidReplyControl   = errors.New("invalid reply control")
	ErrContainerNotReady     = errors.New("media container is not ready for publishing")
	ErrContainerFailed       = errors.New("media container processing failed")
	ErrContainerExpired      = errors.New("media container expired")
	ErrMissingContainerID    = errors.New("container id is required")
)

// Attachment is a media item referenced by public URL
type Attachment struct {
	Type    AttachmentType `json:"type"`
	URL     string         `json:"url"`
	AltText string         `json:"alt_text,omitempty"`
}

// Draft is the content of a post before a container is created for it
type Draft struct {
	Text           string       `json:"text"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	ReplyControl   string       `json:"reply_control,omitempty"`
	ReplyToID      string       `json:"reply_to_id,omitempty"`
	LinkAttachment string       `json:"link_attachment,omitempty"`
	QuotePostID    string       `json:"quote_post_id,omitempty"`
}

// Validate checks the draft against the API's publishing constraints
func (d Draft) Validate() error {
	if d.Text == "" && len(d.Attachments) == 0 {
		return ErrEmptyDraft
	}
	if utf8.RuneCountInString(d.Text) > MaxTextLength {
		return ErrTextTooLong
	}
	if len(d.Attachments) > MaxCarouselItems {
		return ErrTooManyAttachments
	}
	for _, a := range d.Attachments {
		if a.Type != AttachmentImage && a.Type != AttachmentVideo {
			return ErrInvalidAttachmentType
		}
		if a.URL == "" {
			return ErrMissingAttachmentURL
		}
	}
	switch d.ReplyControl {
	case "", ReplyControlEveryone, ReplyControlAccountsYouFollow, ReplyControlMentionedOnly:
	default:
		return ErrInvalidReplyControl
	}
	return nil
}

// IsCarousel reports whether the draft needs a carousel container
func (d Draft) IsCarousel() bool {
	return len(d.Attachments) > 1
}
