package entity

import (
	"fmt"
	"net/url"
	"time"
)

// MediaType is the media_type value reported by the Threads API
type MediaType string

const (
	MediaTypeText         MediaType = "TEXT_POST"
	MediaTypeImage        MediaType = "IMAGE"
	MediaTypeVideo        MediaType = "VIDEO"
	MediaTypeCarousel     MediaType = "CAROUSEL_ALBUM"
	MediaTypeAudio        MediaType = "AUDIO"
	MediaTypeRepostFacade MediaType = "REPOST_FACADE"
)

// Kind is the coarse content kind of a post
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindCarousel Kind = "carousel"
	KindRepost   Kind = "repost"
	KindQuote    Kind = "quote"
)

// ProfileBaseURL is the public profile/post host used to build permalinks
const ProfileBaseURL = "https://www.threads.net"

// Media is a child item of a carousel post
type Media struct {
	ID           string    `json:"id,omitempty"`
	MediaType    MediaType `json:"media_type,omitempty"`
	MediaURL     string    `json:"media_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	AltText      string    `json:"alt_text,omitempty"`
}

// MediaList wraps carousel children the way the API nests them
type MediaList struct {
	Data []Media `json:"data"`
}

// PostRef is a reference to a reposted or quoted post
type PostRef struct {
	ID           string     `json:"id,omitempty"`
	Username     string     `json:"username,omitempty"`
	Shortcode    string     `json:"shortcode,omitempty"`
	Permalink    string     `json:"permalink,omitempty"`
	Text         string     `json:"text,omitempty"`
	MediaType    MediaType  `json:"media_type,omitempty"`
	MediaURL     string     `json:"media_url,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	AltText      string     `json:"alt_text,omitempty"`
	Children     *MediaList `json:"children,omitempty"`
}

// Post is a snapshot of a Threads media object at fetch time
type Post struct {
	ID                string     `json:"id"`
	Username          string     `json:"username,omitempty"`
	Text              string     `json:"text,omitempty"`
	MediaProductType  string     `json:"media_product_type,omitempty"`
	MediaType         MediaType  `json:"media_type,omitempty"`
	MediaURL          string     `json:"media_url,omitempty"`
	ThumbnailURL      string     `json:"thumbnail_url,omitempty"`
	GIFURL            string     `json:"gif_url,omitempty"`
	Permalink         string     `json:"permalink,omitempty"`
	Shortcode         string     `json:"shortcode,omitempty"`
	Timestamp         string     `json:"timestamp,omitempty"`
	ReplyAudience     string     `json:"reply_audience,omitempty"`
	AltText           string     `json:"alt_text,omitempty"`
	LinkAttachmentURL string     `json:"link_attachment_url,omitempty"`
	HideStatus        string     `json:"hide_status,omitempty"`
	IsReply           bool       `json:"is_reply,omitempty"`
	IsQuotePost       bool       `json:"is_quote_post,omitempty"`
	Children          *MediaList `json:"children,omitempty"`
	QuotedPost        *PostRef   `json:"quoted_post,omitempty"`
	RepostedPost      *PostRef   `json:"reposted_post,omitempty"`

	// Enrichment, filled by this service rather than the API
	Insights   Insights    `json:"insights,omitempty"`
	ReplyChain []ReplyNode `json:"reply_chain,omitempty"`
}

// ReplyNode is one self-authored reply with its self-authored descendants
type ReplyNode struct {
	Post
	ChildReplies []ReplyNode `json:"child_replies"`
}

// Kind derives the coarse content kind
func (p Post) Kind() Kind {
	switch {
	case p.MediaType == MediaTypeRepostFacade:
		return KindRepost
	case p.IsQuotePost || p.QuotedPost != nil:
		return KindQuote
	case p.MediaType == MediaTypeCarousel:
		return KindCarousel
	case p.MediaType == MediaTypeImage:
		return KindImage
	case p.MediaType == MediaTypeVideo:
		return KindVideo
	default:
		return KindText
	}
}

// IsRepost reports whether the post is a repost facade entry
func (p Post) IsRepost() bool {
	return p.MediaType == MediaTypeRepostFacade
}

// NotRepost is a filter that keeps original content only
func NotRepost(p Post) bool {
	return !p.IsRepost()
}

// timestampLayout is how the Threads API formats timestamps (2024-07-01T12:00:00+0000)
const timestampLayout = "2006-01-02T15:04:05-0700"

// CreatedAt parses the post timestamp; zero time if absent or malformed
func (p Post) CreatedAt() time.Time {
	if p.Timestamp == "" {
		return time.Time{}
	}
	if t, err := time.Parse(timestampLayout, p.Timestamp); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, p.Timestamp); err == nil {
		return t
	}
	return time.Time{}
}

// ChildMediaURLs returns the media URLs of carousel children in order
func (p Post) ChildMediaURLs() []string {
	if p.Children == nil {
		return nil
	}
	urls := make([]string, 0, len(p.Children.Data))
	for _, c := range p.Children.Data {
		if c.MediaURL != "" {
			urls = append(urls, c.MediaURL)
		}
	}
	return urls
}

// Normalize gives nested structures a consistent shape: carousel children
// always carry a (possibly empty) list and quoted posts get a permalink.
func (p *Post) Normalize() {
	if p.MediaType == MediaTypeCarousel {
		p.Children = normalizeChildren(p.Children)
	}

	if p.IsQuotePost && p.QuotedPost != nil {
		q := p.QuotedPost
		if q.Permalink == "" && q.Username != "" && q.Shortcode != "" {
			q.Permalink = PostPermalink(q.Username, q.Shortcode)
		}
		if q.MediaType == MediaTypeCarousel {
			q.Children = normalizeChildren(q.Children)
		}
	}
}

func normalizeChildren(children *MediaList) *MediaList {
	if children == nil || children.Data == nil {
		return &MediaList{Data: []Media{}}
	}
	return children
}

// PostPermalink builds the public URL of a post
func PostPermalink(username, shortcode string) string {
	return fmt.Sprintf("%s/@%s/post/%s", ProfileBaseURL, url.PathEscape(username), url.PathEscape(shortcode))
}

// ProfileURL builds the public URL of a profile
func ProfileURL(username string) string {
	return fmt.Sprintf("%s/@%s", ProfileBaseURL, url.PathEscape(username))
}

// Profile is the authenticated user's profile
type Profile struct {
	ID                string `json:"id,omitempty"`
	Username          string `json:"username,omitempty"`
	ProfilePictureURL string `json:"threads_profile_picture_url,omitempty"`
	Biography         string `json:"threads_biography,omitempty"`
	ProfileURL        string `json:"user_profile_url,omitempty"`
}

// PublishingLimit describes the user's current publishing quota
type PublishingLimit struct {
	QuotaUsage      int64        `json:"quota_usage"`
	Config          *QuotaConfig `json:"config,omitempty"`
	ReplyQuotaUsage int64        `json:"reply_quota_usage"`
	ReplyConfig     *QuotaConfig `json:"reply_config,omitempty"`
}

// QuotaConfig is a quota window
type QuotaConfig struct {
	QuotaTotal    int64 `json:"quota_total"`
	QuotaDuration int64 `json:"quota_duration"`
}

// ContainerStatus is the processing state of a media container
type ContainerStatus struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

const (
	ContainerStatusInProgress = "IN_PROGRESS"
	ContainerStatusFinished   = "FINISHED"
	ContainerStatusPublished  = "PUBLISHED"
	ContainerStatusError      = "ERROR"
	ContainerStatusExpired    = "EXPIRED"
)
