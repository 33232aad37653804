package service

import (
	"context"
	"time"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
)

// BulkConfig holds the batching used by each bulk mode
type BulkConfig struct {
	// WithReplies walks one post at a time
	WithReplies BatchOptions
	// AllWithReplies walks original posts in parallel batches
	AllWithReplies BatchOptions
}

// DefaultBulkConfig mirrors the Graph API's tolerance for reply lookups
var DefaultBulkConfig = BulkConfig{
	WithReplies:    BatchOptions{Size: 1, Pause: 2 * time.Second},
	AllWithReplies: BatchOptions{Size: 20, Pause: 250 * time.Millisecond},
}

// Bulk composes aggregation and reply walks into the bulk views
type Bulk struct {
	aggregator *Aggregator
	walker     *ReplyWalker
	cfg        BulkConfig
}

// NewBulk creates a new Bulk service
func NewBulk(aggregator *Aggregator, walker *ReplyWalker, cfg BulkConfig) *Bulk {
	return &Bulk{
		aggregator: aggregator,
		walker:     walker,
		cfg:        cfg,
	}
}

// All returns every post with insights
func (b *Bulk) All(ctx context.Context, accessToken string) []entity.Post {
	return b.aggregator.FetchAll(ctx, accessToken, FetchOptions{})
}

// WithReplies returns every post with its self-authored reply chain
func (b *Bulk) WithReplies(ctx context.Context, accessToken, username string) []entity.Post {
	posts := b.aggregator.FetchAll(ctx, accessToken, FetchOptions{})
	return b.walker.AttachChains(ctx, accessToken, username, posts, b.cfg.WithReplies)
}

// AllWithReplies returns original posts only, reposts excluded, with
// their reply chains
func (b *Bulk) AllWithReplies(ctx context.Context, accessToken, username string) []entity.Post {
	posts := b.aggregator.FetchAll(ctx, accessToken, FetchOptions{Filter: entity.NotRepost})
	return b.walker.AttachChains(ctx, accessToken, username, posts, b.cfg.AllWithReplies)
}
