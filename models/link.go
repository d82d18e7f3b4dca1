package models

import (
	"time"

	"github.com/google/uuid"
)

// Link is a single outbound URL entry owned by a profile.
// UUID is the durable public identifier handed to clients; Order defines the
// display sequence and is renumbered 0..N-1 on every successful save.
type Link struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_links_uuid" json:"uuid"`
	ProfileID uint      `gorm:"not null;index:idx_links_profile_id" json:"profile_id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	Order     int       `gorm:"column:order;not null;default:0" json:"order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Link
func (Link) TableName() string { return "links" }

// LinkFilter provides filter fields for repository queries
type LinkFilter struct {
	ID            *uint
	UUID          *string
	ProfileID     *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
