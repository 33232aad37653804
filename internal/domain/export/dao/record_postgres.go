package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/neo-threads/internal/domain/export/entity"
)

const schema = `
	CREATE TABLE IF NOT EXISTS thread_exports (
		id          TEXT PRIMARY KEY,
		created_at  TIMESTAMPTZ,
		media_type  TEXT NOT NULL DEFAULT '',
		content     TEXT NOT NULL DEFAULT '',
		views       BIGINT NOT NULL DEFAULT 0,
		likes       BIGINT NOT NULL DEFAULT 0,
		replies     BIGINT NOT NULL DEFAULT 0,
		reposts     BIGINT NOT NULL DEFAULT 0,
		thread_url  TEXT NOT NULL DEFAULT '',
		media_urls  TEXT NOT NULL DEFAULT '',
		exported_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// RecordPostgres stores export records in PostgreSQL
type RecordPostgres struct {
	pool *pgxpool.Pool
}

// NewRecordPostgres creates a new PostgreSQL export sink
func NewRecordPostgres(pool *pgxpool.Pool) *RecordPostgres {
	return &RecordPostgres{pool: pool}
}

// EnsureSchema creates the export table when missing
func (r *RecordPostgres) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating thread_exports: %w", err)
	}
	return nil
}

// Name identifies the sink in logs and metrics
func (r *RecordPostgres) Name() string {
	return "postgres"
}

// Save inserts a record or refreshes its metrics when it was exported before
func (r *RecordPostgres) Save(ctx context.Context, rec entity.Record) error {
	query := `
		INSERT INTO thread_exports (id, created_at, media_type, content, views, likes, replies, reposts, thread_url, media_urls, exported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			views = EXCLUDED.views,
			likes = EXCLUDED.likes,
			replies = EXCLUDED.replies,
			reposts = EXCLUDED.reposts,
			media_urls = EXCLUDED.media_urls,
			exported_at = NOW()
	`

	var createdAt any
	if !rec.CreatedAt.IsZero() {
		createdAt = rec.CreatedAt
	}

	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		createdAt,
		rec.MediaType,
		rec.Content,
		rec.Views,
		rec.Likes,
		rec.Replies,
		rec.Reposts,
		rec.ThreadURL,
		rec.MediaURLs,
	)
	if err != nil {
		return fmt.Errorf("upserting export record: %w", err)
	}

	return nil
}
