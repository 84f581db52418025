package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS receipts (
		id UUID PRIMARY KEY,
		filename TEXT NOT NULL,
		path TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size_bytes BIGINT NOT NULL,
		category TEXT NOT NULL,
		upload_date TIMESTAMPTZ NOT NULL DEFAULT now(),
		merchant TEXT,
		receipt_date DATE,
		total DOUBLE PRECISION,
		items JSONB,
		raw_text TEXT,
		confidence DOUBLE PRECISION,
		status TEXT NOT NULL DEFAULT 'pending'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_receipts_status_upload_date
		ON receipts (status, upload_date)`,
	`CREATE TABLE IF NOT EXISTS budgets (
		id UUID PRIMARY KEY,
		category TEXT NOT NULL UNIQUE,
		amount DOUBLE PRECISION NOT NULL CHECK (amount >= 0)
	)`,
}

// Migrate applies the idempotent schema DDL at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	logger.Info("Database schema ensured")
	return nil
}
