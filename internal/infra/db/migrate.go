package db

import (
	"context"
	"database/sql"
	"fmt"
)

// MigrateUp creates the preference schema. Every statement is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS user_preferences (
    user_id        TEXT PRIMARY KEY,
    regions        JSONB NOT NULL DEFAULT '["GLOBAL"]',
    news_count     INTEGER NOT NULL DEFAULT 5 CHECK (news_count BETWEEN 1 AND 10),
    notify_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    language       VARCHAR(8) NOT NULL DEFAULT 'en',
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		// 購読者一覧用の部分インデックス
		`CREATE INDEX IF NOT EXISTS idx_user_preferences_notify ON user_preferences(user_id) WHERE notify_enabled = TRUE`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}
	return nil
}

// MigrateDown drops the preference schema and all stored preferences.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`DROP INDEX IF EXISTS idx_user_preferences_notify`,
		`DROP TABLE IF EXISTS user_preferences`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	}
	return nil
}
