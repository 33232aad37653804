package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
)

const DefaultMaxReplyDepth = 50

// ReplySource is what the reply walk needs from the Graph API
type ReplySource interface {
	Replies(ctx context.Context, accessToken, threadID string, q entity.PageQuery) entity.Page
	ThreadInsights(ctx context.Context, accessToken, threadID string, r entity.TimeRange) entity.Insights
}

// ReplyWalkerConfig configures reply tree walks
type ReplyWalkerConfig struct {
	Fields []string
	// MaxDepth stops recursion below this many levels; 0 means unlimited
	MaxDepth int
}

// BatchOptions controls how many reply trees are walked at once
type BatchOptions struct {
	Size  int
	Pause time.Duration
}

// ReplyWalker collects the self-authored reply tree under a post
type ReplyWalker struct {
	source ReplySource
	logger *slog.Logger
	cfg    ReplyWalkerConfig
}

// NewReplyWalker creates a new ReplyWalker
func NewReplyWalker(source ReplySource, logger *slog.Logger, cfg ReplyWalkerConfig) *ReplyWalker {
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	return &ReplyWalker{
		source: source,
		logger: logger,
		cfg:    cfg,
	}
}

// Walk returns the replies under postID written by username, each with
// its insights and its own self-authored replies. Replies by anyone else
// are skipped together with everything beneath them.
func (w *ReplyWalker) Walk(ctx context.Context, accessToken, postID, username string) []entity.ReplyNode {
	if username == "" {
		return []entity.ReplyNode{}
	}
	return w.walk(ctx, accessToken, postID, username, 1)
}

func (w *ReplyWalker) walk(ctx context.Context, accessToken, postID, username string, depth int) []entity.ReplyNode {
	nodes := make([]entity.ReplyNode, 0)

	if w.cfg.MaxDepth > 0 && depth > w.cfg.MaxDepth {
		w.logger.WarnContext(ctx, "reply depth limit reached", "post_id", postID, "max_depth", w.cfg.MaxDepth)
		return nodes
	}
	if ctx.Err() != nil {
		return nodes
	}

	page := w.source.Replies(ctx, accessToken, postID, entity.PageQuery{Fields: w.cfg.Fields})
	for _, reply := range page.Data {
		if reply.Username != username {
			continue
		}

		reply.Insights = w.source.ThreadInsights(ctx, accessToken, reply.ID, entity.TimeRange{})
		nodes = append(nodes, entity.ReplyNode{
			Post:         reply,
			ChildReplies: w.walk(ctx, accessToken, reply.ID, username, depth+1),
		})
	}

	return nodes
}

// AttachChains fills ReplyChain of every post, walking opts.Size posts
// concurrently and pausing opts.Pause between batches
func (w *ReplyWalker) AttachChains(ctx context.Context, accessToken, username string, posts []entity.Post, opts BatchOptions) []entity.Post {
	size := opts.Size
	if size <= 0 {
		size = 1
	}

	for start := 0; start < len(posts); start += size {
		end := min(start+size, len(posts))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				posts[i].ReplyChain = w.Walk(ctx, accessToken, posts[i].ID, username)
				return nil
			})
		}
		_ = g.Wait()

		w.logger.DebugContext(ctx, "reply chains collected", "done", end, "total", len(posts))

		if end < len(posts) {
			if err := pause(ctx, opts.Pause); err != nil {
				w.logger.WarnContext(ctx, "reply chain collection interrupted", "done", end, "error", err)
				break
			}
		}
	}

	return posts
}
