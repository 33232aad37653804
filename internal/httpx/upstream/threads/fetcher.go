package threads

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
	"github.com/vadim/neo-threads/internal/metrics"
)

// EmbedPlaceholder is returned when a post cannot be embedded
const EmbedPlaceholder = "<p>Unable to embed</p>"

// Search types accepted by keyword search
const (
	SearchTypeTop    = "TOP"
	SearchTypeRecent = "RECENT"
)

func applyRange(params url.Values, r entity.TimeRange) {
	if r.Since != "" {
		params.Set("since", r.Since)
	}
	if r.Until != "" {
		params.Set("until", r.Until)
	}
}

// Fetcher performs single read calls. A failed call is logged with the
// upstream message and answered with the documented default value, so
// callers never handle upstream errors on the read path.
type Fetcher struct {
	client    *Client
	logger    *slog.Logger
	appID     string
	appSecret string
}

// FetcherOption configures the Fetcher
type FetcherOption func(*Fetcher)

// WithAppCredentials sets the app id and secret used for app-token calls
func WithAppCredentials(appID, appSecret string) FetcherOption {
	return func(f *Fetcher) {
		f.appID = appID
		f.appSecret = appSecret
	}
}

// NewFetcher creates a new Fetcher
func NewFetcher(client *Client, logger *slog.Logger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: client,
		logger: logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) fail(ctx context.Context, fetcher string, err error, attrs ...any) {
	metrics.UpstreamFailures.WithLabelValues(fetcher).Inc()
	attrs = append(attrs, "fetcher", fetcher, "error", ErrorMessage(err))
	f.logger.ErrorContext(ctx, "upstream request failed", attrs...)
}

// Profile returns the authenticated user's profile with its public URL
func (f *Fetcher) Profile(ctx context.Context, accessToken string) entity.Profile {
	params := url.Values{}
	params.Set("fields", strings.Join(ProfileFields, ","))

	var out entity.Profile
	if err := f.client.get(ctx, "me", params, accessToken, &out); err != nil {
		f.fail(ctx, "profile", err)
		return entity.Profile{}
	}
	if out.Username != "" {
		out.ProfileURL = entity.ProfileURL(out.Username)
	}
	return out
}

// UserInsights returns account-level metrics, zero for every metric on failure
func (f *Fetcher) UserInsights(ctx context.Context, accessToken string, r entity.TimeRange) entity.Insights {
	params := url.Values{}
	params.Set("metric", strings.Join(entity.UserMetrics, ","))
	applyRange(params, r)

	var resp MetricsResponse
	if err := f.client.get(ctx, "me/threads_insights", params, accessToken, &resp); err != nil {
		f.fail(ctx, "user_insights", err)
		return entity.ZeroInsights(entity.UserMetrics)
	}
	return UserMetricRules.Apply(entity.UserMetrics, resp)
}

// ThreadInsights returns post-level metrics, zero for every metric on failure
func (f *Fetcher) ThreadInsights(ctx context.Context, accessToken, threadID string, r entity.TimeRange) entity.Insights {
	params := url.Values{}
	params.Set("metric", strings.Join(entity.ThreadMetrics, ","))
	applyRange(params, r)

	var resp MetricsResponse
	if err := f.client.get(ctx, url.PathEscape(threadID)+"/insights", params, accessToken, &resp); err != nil {
		f.fail(ctx, "thread_insights", err, "thread_id", threadID)
		return entity.ZeroInsights(entity.ThreadMetrics)
	}
	return ThreadMetricRules.Apply(entity.ThreadMetrics, resp)
}

// Threads returns a page of the user's own posts
func (f *Fetcher) Threads(ctx context.Context, accessToken string, q entity.PageQuery) entity.Page {
	return f.page(ctx, "threads", "me/threads", accessToken, withFields(q, ThreadListFields))
}

// UserReplies returns a page of replies authored by the user
func (f *Fetcher) UserReplies(ctx context.Context, accessToken string, q entity.PageQuery) entity.Page {
	return f.page(ctx, "user_replies", "me/replies", accessToken, withFields(q, UserReplyFields))
}

// Replies returns a page of top-level replies to a post
func (f *Fetcher) Replies(ctx context.Context, accessToken, threadID string, q entity.PageQuery) entity.Page {
	return f.page(ctx, "replies", url.PathEscape(threadID)+"/replies", accessToken, withFields(q, ReplyFields))
}

// Conversation returns a page of the flattened reply tree of a post
func (f *Fetcher) Conversation(ctx context.Context, accessToken, threadID string, q entity.PageQuery) entity.Page {
	return f.page(ctx, "conversation", url.PathEscape(threadID)+"/conversation", accessToken, withFields(q, ReplyFields))
}

// Mentions returns a page of posts mentioning the user
func (f *Fetcher) Mentions(ctx context.Context, accessToken string, q entity.PageQuery) entity.Page {
	return f.page(ctx, "mentions", "me/mentions", accessToken, withFields(q, MentionFields))
}

// Search runs a keyword search
func (f *Fetcher) Search(ctx context.Context, accessToken, keyword, searchType string, q entity.PageQuery) entity.Page {
	params := withFields(q, SearchFields).Params()
	params.Set("q", keyword)
	if searchType != "" {
		params.Set("search_type", searchType)
	}
	return f.pageParams(ctx, "search", "keyword_search", accessToken, params)
}

// PublishingLimit returns the current quota usage
func (f *Fetcher) PublishingLimit(ctx context.Context, accessToken string) entity.PublishingLimit {
	params := url.Values{}
	params.Set("fields", strings.Join(PublishingLimitFields, ","))

	var resp struct {
		Data []entity.PublishingLimit `json:"data"`
	}
	if err := f.client.get(ctx, "me/threads_publishing_limit", params, accessToken, &resp); err != nil {
		f.fail(ctx, "publishing_limit", err)
		return entity.PublishingLimit{}
	}
	if len(resp.Data) == 0 {
		return entity.PublishingLimit{}
	}
	return resp.Data[0]
}

// Thread returns a single post; on failure a post carrying only the id
func (f *Fetcher) Thread(ctx context.Context, accessToken, threadID string) entity.Post {
	params := url.Values{}
	params.Set("fields", strings.Join(ThreadFields, ","))

	var out entity.Post
	if err := f.client.get(ctx, url.PathEscape(threadID), params, accessToken, &out); err != nil {
		f.fail(ctx, "thread", err, "thread_id", threadID)
		return entity.Post{ID: threadID}
	}
	if out.ID == "" {
		out.ID = threadID
	}
	return out
}

// Embed returns oEmbed HTML for a public post URL using the app token
func (f *Fetcher) Embed(ctx context.Context, postURL string) string {
	params := url.Values{}
	params.Set("url", postURL)

	var resp struct {
		HTML string `json:"html"`
	}
	if err := f.client.get(ctx, "oembed", params, f.appToken(), &resp); err != nil {
		f.fail(ctx, "embed", err, "url", postURL)
		return EmbedPlaceholder
	}
	if resp.HTML == "" {
		return EmbedPlaceholder
	}
	return resp.HTML
}

func (f *Fetcher) appToken() string {
	return "TH|" + f.appID + "|" + f.appSecret
}

func (f *Fetcher) page(ctx context.Context, fetcher, path, accessToken string, q entity.PageQuery) entity.Page {
	return f.pageParams(ctx, fetcher, path, accessToken, q.Params())
}

func (f *Fetcher) pageParams(ctx context.Context, fetcher, path, accessToken string, params url.Values) entity.Page {
	var out entity.Page
	if err := f.client.get(ctx, path, params, accessToken, &out); err != nil {
		f.fail(ctx, fetcher, err)
		return entity.Page{Data: []entity.Post{}}
	}
	if out.Data == nil {
		out.Data = []entity.Post{}
	}
	return out
}

func withFields(q entity.PageQuery, fields []string) entity.PageQuery {
	if len(q.Fields) == 0 {
		q.Fields = fields
	}
	return q
}
