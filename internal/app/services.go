package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/neo-threads/internal/config"
	"github.com/vadim/neo-threads/internal/database"
	exportdao "github.com/vadim/neo-threads/internal/domain/export/dao"
	exportservice "github.com/vadim/neo-threads/internal/domain/export/service"
	threadservice "github.com/vadim/neo-threads/internal/domain/thread/service"
	"github.com/vadim/neo-threads/internal/httpx/upstream/notion"
	"github.com/vadim/neo-threads/internal/httpx/upstream/threads"
	"github.com/vadim/neo-threads/internal/storage"
)

// Services holds the domain layer shared by the HTTP server and the CLI
type Services struct {
	Client     *threads.Client
	Fetcher    *threads.Fetcher
	Publisher  *threads.Publisher
	Aggregator *threadservice.Aggregator
	Walker     *threadservice.ReplyWalker
	Bulk       *threadservice.Bulk
	Exporter   *exportservice.Exporter

	// Storage is nil unless S3 uploads are enabled
	Storage *storage.S3Storage
	// Pool is nil unless a database DSN is configured
	Pool *pgxpool.Pool
}

// NewServices wires the Threads client and the domain services from cfg
func NewServices(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Services, error) {
	s := &Services{}

	s.Client = threads.New(
		threads.WithBaseURL(cfg.Threads.BaseURL),
		threads.WithAuthBaseURL(cfg.Threads.AuthBaseURL),
		threads.WithAPIVersion(cfg.Threads.APIVersion),
		threads.WithTimeout(cfg.Threads.RequestTimeout),
		threads.WithInsecureTLS(!cfg.Threads.RejectUnauthorized),
	)
	if !cfg.Threads.RejectUnauthorized {
		logger.Warn("TLS verification of upstream calls is disabled")
	}

	s.Fetcher = threads.NewFetcher(s.Client, logger,
		threads.WithAppCredentials(cfg.Threads.AppID, cfg.Threads.AppSecret),
	)
	s.Publisher = threads.NewPublisher(s.Client,
		threads.WithPolling(cfg.Threads.PollAttempts, cfg.Threads.PollInterval),
	)

	s.Aggregator = threadservice.NewAggregator(s.Fetcher, logger, threadservice.AggregatorConfig{
		Fields:    threads.AggregateFields,
		PageSize:  cfg.Aggregation.PageSize,
		MaxPages:  cfg.Aggregation.MaxPages,
		PagePause: cfg.Aggregation.PagePause,
	})
	s.Walker = threadservice.NewReplyWalker(s.Fetcher, logger, threadservice.ReplyWalkerConfig{
		Fields:   threads.ReplyChainFields,
		MaxDepth: cfg.Aggregation.MaxReplyDepth,
	})
	s.Bulk = threadservice.NewBulk(s.Aggregator, s.Walker, threadservice.BulkConfig{
		WithReplies: threadservice.BatchOptions{
			Size:  cfg.Aggregation.RepliesBatchSize,
			Pause: cfg.Aggregation.RepliesBatchPause,
		},
		AllWithReplies: threadservice.BatchOptions{
			Size:  cfg.Aggregation.AllRepliesBatchSize,
			Pause: cfg.Aggregation.AllRepliesBatchPause,
		},
	})

	if cfg.Database.PostgresDSN != "" {
		pool, err := database.NewPostgresPool(ctx, database.PoolConfig{
			DSN:          cfg.Database.PostgresDSN,
			MaxConns:     int32(cfg.Database.MaxOpenConns),
			MinConns:     int32(cfg.Database.MaxIdleConns),
			ConnLifetime: cfg.Database.ConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		s.Pool = pool
	}

	sink, err := s.newSink(ctx, cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Exporter = exportservice.New(sink, logger, exportservice.Config{Interval: cfg.Export.Interval})

	if cfg.S3.Enabled {
		s.Storage = storage.NewS3Storage(storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			PublicURL:       cfg.S3.PublicURL,
		})
	}

	return s, nil
}

// newSink picks the export sink. A sink that isn't configured leaves the
// exporter without one, which fails exports instead of startup.
func (s *Services) newSink(ctx context.Context, cfg config.Config, logger *slog.Logger) (exportservice.Sink, error) {
	switch cfg.Export.Sink {
	case config.SinkNotion:
		if !cfg.Notion.Enabled() {
			logger.Warn("notion export sink selected but NOTION_TOKEN or NOTION_DATABASE_ID is missing")
			return nil, nil
		}
		return notion.New(cfg.Notion.Token, cfg.Notion.DatabaseID), nil
	case config.SinkPostgres:
		if s.Pool == nil {
			return nil, fmt.Errorf("postgres export sink needs DATABASE_URL")
		}
		records := exportdao.NewRecordPostgres(s.Pool)
		if err := records.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("preparing export table: %w", err)
		}
		return records, nil
	case config.SinkNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown export sink %q", cfg.Export.Sink)
	}
}

// Close releases the upstream client and the database pool
func (s *Services) Close() {
	if s.Client != nil {
		_ = s.Client.Close()
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}
