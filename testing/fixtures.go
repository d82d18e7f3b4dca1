package testing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindlabs/bind/models"
)

// CreateTestProfile inserts a profile with defaults and returns it. The
// username and user id are derived from the suffix so multiple fixtures in
// one test do not collide.
func CreateTestProfile(db *gorm.DB, suffix string) (*models.Profile, error) {
	profile := &models.Profile{
		UUID:             uuid.New(),
		UserID:           "user-" + suffix,
		Username:         "tester_" + suffix,
		ProfileOpacity:   models.DefaultProfileOpacity,
		ProfileBlur:      models.DefaultProfileBlur,
		DiscordPresence:  models.DiscordPresenceDisabled,
		BackgroundEffect: models.BackgroundEffectNone,
		UnlockedBadges:   []string{"pioneer"},
		EquippedBadges:   []string{},
	}
	if err := db.Create(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create test profile: %w", err)
	}
	return profile, nil
}

// CreateTestLink inserts a link owned by the profile
func CreateTestLink(db *gorm.DB, profileID uint, title, url string, order int) (*models.Link, error) {
	link := &models.Link{
		UUID:      uuid.New(),
		ProfileID: profileID,
		Title:     title,
		URL:       url,
		Order:     order,
	}
	if err := db.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create test link: %w", err)
	}
	return link, nil
}

// CreateTestEvent inserts an analytics event with an explicit timestamp
func CreateTestEvent(db *gorm.DB, profileID uint, eventType string, linkID *uint, at time.Time) (*models.AnalyticsEvent, error) {
	event := &models.AnalyticsEvent{
		UUID:      uuid.New(),
		ProfileID: profileID,
		EventType: eventType,
		LinkID:    linkID,
		CreatedAt: at,
	}
	if err := db.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to create test event: %w", err)
	}
	return event, nil
}
