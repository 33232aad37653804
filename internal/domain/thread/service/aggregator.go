package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
	"github.com/vadim/neo-threads/internal/metrics"
)

const (
	DefaultMaxPages  = 10
	DefaultPagePause = time.Second
)

// PageSource is what aggregation needs from the Graph API
type PageSource interface {
	Threads(ctx context.Context, accessToken string, q entity.PageQuery) entity.Page
	ThreadInsights(ctx context.Context, accessToken, threadID string, r entity.TimeRange) entity.Insights
}

// AggregatorConfig bounds a full fetch
type AggregatorConfig struct {
	// Fields requested for every post; nested children and quoted posts
	// must be requested here to be normalized
	Fields    []string
	PageSize  int
	MaxPages  int
	PagePause time.Duration
}

// FetchOptions tune a single aggregation
type FetchOptions struct {
	// Filter keeps a post when it returns true; nil keeps everything
	Filter func(entity.Post) bool
}

// Aggregator walks the user's post pages, enriching every post with its
// insights, until the last page or the page ceiling
type Aggregator struct {
	source PageSource
	logger *slog.Logger
	cfg    AggregatorConfig
}

// NewAggregator creates a new Aggregator
func NewAggregator(source PageSource, logger *slog.Logger, cfg AggregatorConfig) *Aggregator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = entity.DefaultPageLimit
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.PagePause < 0 {
		cfg.PagePause = 0
	}
	return &Aggregator{
		source: source,
		logger: logger,
		cfg:    cfg,
	}
}

// FetchAll returns every post in upstream order. It never fails: a page
// that cannot be fetched arrives empty and ends the walk, and a
// cancelled context returns what was collected so far.
func (a *Aggregator) FetchAll(ctx context.Context, accessToken string, opts FetchOptions) []entity.Post {
	all := make([]entity.Post, 0)
	cursor := ""

	for page := 1; ; page++ {
		a.logger.DebugContext(ctx, "fetching page", "page", page, "loaded", len(all))

		result := a.source.Threads(ctx, accessToken, entity.PageQuery{
			Fields: a.cfg.Fields,
			Limit:  a.cfg.PageSize,
			After:  cursor,
		})
		metrics.PagesFetched.Inc()

		all = append(all, a.enrich(ctx, accessToken, result.Data)...)

		cursor = result.NextCursor()
		if cursor == "" {
			break
		}
		if page >= a.cfg.MaxPages {
			metrics.PageCeilingHits.Inc()
			a.logger.InfoContext(ctx, "page ceiling reached, stopping", "pages", page, "loaded", len(all))
			break
		}
		if err := pause(ctx, a.cfg.PagePause); err != nil {
			a.logger.WarnContext(ctx, "aggregation interrupted", "pages", page, "error", err)
			break
		}
	}

	if opts.Filter != nil {
		all = lo.Filter(all, func(p entity.Post, _ int) bool { return opts.Filter(p) })
	}
	return all
}

// enrich fetches insights for every post of a page concurrently and
// normalizes nested structures
func (a *Aggregator) enrich(ctx context.Context, accessToken string, posts []entity.Post) []entity.Post {
	out := make([]entity.Post, len(posts))

	var g errgroup.Group
	for i, p := range posts {
		g.Go(func() error {
			p.Insights = a.source.ThreadInsights(ctx, accessToken, p.ID, entity.TimeRange{})
			p.Normalize()
			out[i] = p
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
