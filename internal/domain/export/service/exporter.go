package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/vadim/neo-threads/internal/domain/export/entity"
	thread "github.com/vadim/neo-threads/internal/domain/thread/entity"
	"github.com/vadim/neo-threads/internal/metrics"
)

// DefaultInterval keeps submissions under three per second
const DefaultInterval = 350 * time.Millisecond

// Sink stores one record in a workspace database
type Sink interface {
	Name() string
	Save(ctx context.Context, r entity.Record) error
}

// Config configures the exporter
type Config struct {
	// Interval separates consecutive submissions; 0 disables spacing
	Interval time.Duration
}

// Exporter submits posts to a sink one at a time
type Exporter struct {
	sink    Sink
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a new exporter. The limiter is shared by every export so
// concurrent requests together respect the interval.
func New(sink Sink, logger *slog.Logger, cfg Config) *Exporter {
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	return &Exporter{
		sink:    sink,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Export submits posts in order and stops at the first failure, returning
// how many were stored before it
func (e *Exporter) Export(ctx context.Context, posts []thread.Post) (int, error) {
	if e.sink == nil {
		return 0, entity.ErrSinkUnavailable
	}

	saved := 0
	for _, p := range posts {
		if err := e.limiter.Wait(ctx); err != nil {
			return saved, fmt.Errorf("waiting for export slot: %w", err)
		}

		if err := e.sink.Save(ctx, entity.RecordFromPost(p)); err != nil {
			metrics.RecordsExported.WithLabelValues(e.sink.Name(), "failed").Inc()
			e.logger.ErrorContext(ctx, "export failed", "sink", e.sink.Name(), "post_id", p.ID, "saved", saved, "error", err)
			return saved, fmt.Errorf("exporting post %s: %w", p.ID, err)
		}

		metrics.RecordsExported.WithLabelValues(e.sink.Name(), "saved").Inc()
		saved++
	}

	e.logger.InfoContext(ctx, "export finished", "sink", e.sink.Name(), "saved", saved)
	return saved, nil
}
