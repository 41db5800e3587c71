// Package memory provides process-local repository implementations used when
// no database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pixienews/internal/domain/entity"
	"pixienews/internal/repository"
)

type PreferenceRepo struct {
	mu    sync.RWMutex
	prefs map[string]entity.Preferences
	now   func() time.Time
}

func NewPreferenceRepo() repository.PreferenceRepository {
	return &PreferenceRepo{prefs: make(map[string]entity.Preferences), now: time.Now}
}

func clonePrefs(p entity.Preferences) *entity.Preferences {
	p.Regions = append([]string(nil), p.Regions...)
	return &p
}

func (r *PreferenceRepo) Get(_ context.Context, userID string) (*entity.Preferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prefs[userID]
	if !ok {
		return nil, nil
	}
	return clonePrefs(p), nil
}

func (r *PreferenceRepo) Save(_ context.Context, prefs *entity.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	stored := *clonePrefs(*prefs)
	stored.UpdatedAt = r.now()

	r.mu.Lock()
	r.prefs[prefs.UserID] = stored
	r.mu.Unlock()
	return nil
}

func (r *PreferenceRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prefs[userID]; !ok {
		return fmt.Errorf("Delete: %w", entity.ErrNotFound)
	}
	delete(r.prefs, userID)
	return nil
}

func (r *PreferenceRepo) ListSubscribers(_ context.Context) ([]*entity.Preferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs := make([]*entity.Preferences, 0, len(r.prefs))
	for _, p := range r.prefs {
		if p.NotifyEnabled {
			subs = append(subs, clonePrefs(p))
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].UserID < subs[j].UserID })
	return subs, nil
}
