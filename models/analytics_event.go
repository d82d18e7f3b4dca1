package models

import (
	"time"

	"github.com/google/uuid"
)

// Analytics event types
const (
	EventTypeProfileView = "profile_view"
	EventTypeLinkClick   = "link_click"
)

// AnalyticsEvent is one append-only row in the traffic event log.
// LinkID is set only for link_click events. Rows are never updated or
// deleted by the application; all counters are computed on read.
type AnalyticsEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_analytics_events_uuid" json:"uuid"`
	ProfileID uint      `gorm:"not null;index:idx_analytics_events_profile_id" json:"profile_id"`
	EventType string    `gorm:"size:16;not null;index:idx_analytics_events_event_type" json:"event_type"`
	LinkID    *uint     `gorm:"index:idx_analytics_events_link_id" json:"link_id,omitempty"`

	UserAgent *string `gorm:"type:text" json:"user_agent,omitempty"`
	IP        *string `gorm:"size:64" json:"ip,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_analytics_events_created_at" json:"created_at"`
}

// TableName returns the table name for AnalyticsEvent
func (AnalyticsEvent) TableName() string { return "analytics_events" }

// AnalyticsEventFilter provides filter fields for repository queries
type AnalyticsEventFilter struct {
	ProfileID     *uint
	EventType     *string
	LinkID        *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
