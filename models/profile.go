// Package models defines the database entities for the Bind profile service
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role values stored on a profile. Role is nil for regular users until an
// administrator grants one explicitly.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DiscordPresence modes
const (
	DiscordPresenceEnabled  = "enabled"
	DiscordPresenceDisabled = "disabled"
)

// Background effect identifiers
const (
	BackgroundEffectRain  = "rain"
	BackgroundEffectSnow  = "snow"
	BackgroundEffectStars = "stars"
	BackgroundEffectNone  = "none"
)

// Customization defaults
const (
	DefaultProfileOpacity = 80
	DefaultProfileBlur    = 10
)

// Profile is the per-user record of identity and customization attributes.
// UserID is the external auth principal; exactly one profile exists per
// principal and it is created on first login, never hard-deleted.
// Badge slices are serialized as JSON so the model works on both the
// Postgres production database and the sqlite test database.
type Profile struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UUID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_profiles_uuid" json:"uuid"`
	UserID string    `gorm:"size:64;not null;uniqueIndex:uk_profiles_user_id" json:"user_id"`

	Username string  `gorm:"size:30;not null;uniqueIndex:uk_profiles_username" json:"username"`
	FullName *string `gorm:"size:100" json:"full_name,omitempty"`
	Bio      *string `gorm:"size:160" json:"bio,omitempty"`
	Email    *string `gorm:"size:255" json:"email,omitempty"`
	Role     *string `gorm:"size:16" json:"role,omitempty"`
	Location *string `gorm:"size:100" json:"location,omitempty"`

	AvatarURL          *string `gorm:"type:text" json:"avatar_url,omitempty"`
	BackgroundImageURL *string `gorm:"type:text" json:"background_image_url,omitempty"`

	AccentColor     *string `gorm:"size:9" json:"accent_color,omitempty"`
	TextColor       *string `gorm:"size:9" json:"text_color,omitempty"`
	BackgroundColor *string `gorm:"size:9" json:"background_color,omitempty"`
	IconColor       *string `gorm:"size:9" json:"icon_color,omitempty"`

	ProfileOpacity int `gorm:"not null;default:80" json:"profile_opacity"`
	ProfileBlur    int `gorm:"not null;default:10" json:"profile_blur"`

	EnableProfileGradient   bool `gorm:"not null;default:false" json:"enable_profile_gradient"`
	MonochromeIcons         bool `gorm:"not null;default:false" json:"monochrome_icons"`
	AnimatedTitle           bool `gorm:"not null;default:false" json:"animated_title"`
	SwapBoxColors           bool `gorm:"not null;default:false" json:"swap_box_colors"`
	VolumeControl           bool `gorm:"not null;default:false" json:"volume_control"`
	UseDiscordAvatar        bool `gorm:"not null;default:false" json:"use_discord_avatar"`
	DiscordAvatarDecoration bool `gorm:"not null;default:false" json:"discord_avatar_decoration"`

	DiscordPresence  string `gorm:"size:16;not null;default:'disabled'" json:"discord_presence"`
	BackgroundEffect string `gorm:"size:16;not null;default:'none'" json:"background_effect"`

	UnlockedBadges []string `gorm:"serializer:json" json:"unlocked_badges"`
	EquippedBadges []string `gorm:"serializer:json" json:"equipped_badges"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Profile
func (Profile) TableName() string { return "profiles" }

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role != nil && *p.Role == RoleAdmin
}

// HasUnlockedBadge reports whether the badge id is in the unlocked set.
func (p *Profile) HasUnlockedBadge(id string) bool {
	for _, b := range p.UnlockedBadges {
		if b == id {
			return true
		}
	}
	return false
}

// ProfileFilter provides filter fields for repository queries
type ProfileFilter struct {
	ID            *uint
	UUID          *string
	UserID        *string
	Username      *string
	Role          *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
