package repository

import (
	"context"

	"pixienews/internal/domain/entity"
)

// PreferenceRepository persists chat user preferences.
// Get returns (nil, nil) when the user has never saved anything.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*entity.Preferences, error)
	Save(ctx context.Context, prefs *entity.Preferences) error
	Delete(ctx context.Context, userID string) error
	ListSubscribers(ctx context.Context) ([]*entity.Preferences, error)
}
