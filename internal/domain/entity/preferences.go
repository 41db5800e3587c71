package entity

import (
	"fmt"
	"time"
)

const (
	// DefaultRegion is the region a new user starts with.
	DefaultRegion = "GLOBAL"
	// DefaultNewsCount is how many items a new user receives per request.
	DefaultNewsCount = 5
	// MaxNewsCount caps the per-request item count.
	MaxNewsCount = 10
)

// Preferences holds a chat user's settings.
type Preferences struct {
	UserID        string
	Regions       []string
	NewsCount     int
	NotifyEnabled bool
	Language      string
	UpdatedAt     time.Time
}

// DefaultPreferences returns the settings of a user who never changed anything.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:        userID,
		Regions:       []string{DefaultRegion},
		NewsCount:     DefaultNewsCount,
		NotifyEnabled: true,
		Language:      "en",
	}
}

// PrimaryRegion returns the first preferred region, falling back to DefaultRegion.
func (p *Preferences) PrimaryRegion() string {
	if p == nil || len(p.Regions) == 0 {
		return DefaultRegion
	}
	return p.Regions[0]
}

// Validate validates the Preferences fields.
func (p *Preferences) Validate() error {
	if p.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "user id is required"}
	}
	if p.NewsCount < 1 || p.NewsCount > MaxNewsCount {
		return &ValidationError{
			Field:   "news_count",
			Message: fmt.Sprintf("news count must be between 1 and %d", MaxNewsCount),
		}
	}
	for _, code := range p.Regions {
		if err := ValidateRegionCode(code); err != nil {
			return err
		}
	}
	return nil
}
