package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pixienews/internal/domain/entity"
	"pixienews/internal/observability/metrics"
	"pixienews/internal/repository"
)

type PreferenceRepo struct{ db *sql.DB }

func NewPreferenceRepo(db *sql.DB) repository.PreferenceRepository {
	return &PreferenceRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreferences(s rowScanner) (*entity.Preferences, error) {
	var p entity.Preferences
	var regionsJSON []byte
	if err := s.Scan(&p.UserID, &regionsJSON, &p.NewsCount, &p.NotifyEnabled, &p.Language, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(regionsJSON) > 0 {
		if err := json.Unmarshal(regionsJSON, &p.Regions); err != nil {
			return nil, fmt.Errorf("unmarshal regions: %w", err)
		}
	}
	return &p, nil
}

func (repo *PreferenceRepo) Get(ctx context.Context, userID string) (*entity.Preferences, error) {
	const query = `
SELECT user_id, regions, news_count, notify_enabled, language, updated_at
FROM user_preferences
WHERE user_id = $1
LIMIT 1`
	start := time.Now()
	defer func() { metrics.RecordDBQuery("preferences_get", time.Since(start)) }()

	p, err := scanPreferences(repo.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return p, nil
}

func (repo *PreferenceRepo) Save(ctx context.Context, prefs *entity.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	regionsJSON, err := json.Marshal(prefs.Regions)
	if err != nil {
		return fmt.Errorf("Save: marshal regions: %w", err)
	}

	const query = `
INSERT INTO user_preferences (user_id, regions, news_count, notify_enabled, language, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (user_id) DO UPDATE SET
       regions        = EXCLUDED.regions,
       news_count     = EXCLUDED.news_count,
       notify_enabled = EXCLUDED.notify_enabled,
       language       = EXCLUDED.language,
       updated_at     = now()`
	start := time.Now()
	defer func() { metrics.RecordDBQuery("preferences_save", time.Since(start)) }()

	if _, err := repo.db.ExecContext(ctx, query,
		prefs.UserID, regionsJSON, prefs.NewsCount, prefs.NotifyEnabled, prefs.Language,
	); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (repo *PreferenceRepo) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM user_preferences WHERE user_id = $1`
	res, err := repo.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *PreferenceRepo) ListSubscribers(ctx context.Context) ([]*entity.Preferences, error) {
	const query = `
SELECT user_id, regions, news_count, notify_enabled, language, updated_at
FROM user_preferences
WHERE notify_enabled = TRUE
ORDER BY user_id ASC`
	start := time.Now()
	defer func() { metrics.RecordDBQuery("preferences_list_subscribers", time.Since(start)) }()

	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListSubscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := make([]*entity.Preferences, 0, 32)
	for rows.Next() {
		p, err := scanPreferences(rows)
		if err != nil {
			return nil, fmt.Errorf("ListSubscribers: %w", err)
		}
		subs = append(subs, p)
	}
	return subs, rows.Err()
}
