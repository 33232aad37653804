package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"

	thread "github.com/vadim/neo-threads/internal/domain/thread/entity"
)

// Domain errors
var (
	ErrNoPosts         = errors.New("no posts to export")
	ErrSinkUnavailable = errors.New("export sink is not configured")
)

// Record is one post flattened for a workspace database row
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	MediaType string    `json:"media_type"`
	Content   string    `json:"content"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	Replies   int64     `json:"replies"`
	Reposts   int64     `json:"reposts"`
	ThreadURL string    `json:"thread_url"`
	MediaURLs string    `json:"media_urls"`
}

// RecordFromPost flattens a post. Carousels list their children's media
// URLs one per line; other posts carry their own media URL.
func RecordFromPost(p thread.Post) Record {
	mediaURLs := p.MediaURL
	if p.MediaType == thread.MediaTypeCarousel {
		mediaURLs = strings.Join(p.ChildMediaURLs(), "\n")
	}

	return Record{
		ID:        p.ID,
		CreatedAt: p.CreatedAt(),
		MediaType: string(p.MediaType),
		Content:   p.Text,
		Views:     p.Insights.Get(thread.MetricViews),
		Likes:     p.Insights.Get(thread.MetricLikes),
		Replies:   p.Insights.Get(thread.MetricReplies),
		Reposts:   p.Insights.Get(thread.MetricReposts),
		ThreadURL: p.Permalink,
		MediaURLs: mediaURLs,
	}
}

// RecordsFromPosts flattens posts in order
func RecordsFromPosts(posts []thread.Post) []Record {
	return lo.Map(posts, func(p thread.Post, _ int) Record { return RecordFromPost(p) })
}
