// Package businessflow contains the core business logic for the Bind profile service
package businessflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	"github.com/bindlabs/bind/repository"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client-related information for event recording and logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// VisitorKey derives a stable anonymous identifier for view throttling from
// the client address and user agent. No raw IP is stored under this key.
func (cm *ClientMetadata) VisitorKey() string {
	sum := sha256.Sum256([]byte(cm.IPAddress + "|" + cm.UserAgent))
	return hex.EncodeToString(sum[:16])
}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
)

// validateUsername enforces the username contract: 3-30 characters of
// letters, digits, and underscores.
func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 30 || !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// getProfileByUserID loads the caller's profile or fails with not-found.
func getProfileByUserID(ctx context.Context, repo repository.ProfileRepository, userID string) (*models.Profile, error) {
	profile, err := repo.ByUserID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("PROFILE_FETCH_FAILED", "Failed to fetch profile", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// ToProfileDTO converts a profile model to its API representation
func ToProfileDTO(p *models.Profile) dto.ProfileDTO {
	return dto.ProfileDTO{
		UUID:                    p.UUID.String(),
		Username:                p.Username,
		FullName:                p.FullName,
		Bio:                     p.Bio,
		Email:                   p.Email,
		Role:                    p.Role,
		Location:                p.Location,
		AvatarURL:               p.AvatarURL,
		BackgroundImageURL:      p.BackgroundImageURL,
		AccentColor:             p.AccentColor,
		TextColor:               p.TextColor,
		BackgroundColor:         p.BackgroundColor,
		IconColor:               p.IconColor,
		ProfileOpacity:          p.ProfileOpacity,
		ProfileBlur:             p.ProfileBlur,
		EnableProfileGradient:   p.EnableProfileGradient,
		MonochromeIcons:         p.MonochromeIcons,
		AnimatedTitle:           p.AnimatedTitle,
		SwapBoxColors:           p.SwapBoxColors,
		VolumeControl:           p.VolumeControl,
		UseDiscordAvatar:        p.UseDiscordAvatar,
		DiscordAvatarDecoration: p.DiscordAvatarDecoration,
		DiscordPresence:         p.DiscordPresence,
		BackgroundEffect:        p.BackgroundEffect,
		UnlockedBadges:          p.UnlockedBadges,
		EquippedBadges:          p.EquippedBadges,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}
}

// ToLinkDTO converts a link model to its API representation
func ToLinkDTO(l *models.Link) dto.LinkDTO {
	return dto.LinkDTO{
		ID:        l.UUID.String(),
		Title:     l.Title,
		URL:       l.URL,
		Order:     l.Order,
		CreatedAt: l.CreatedAt,
	}
}

// ToLinkDTOs converts a slice of link models preserving order
func ToLinkDTOs(links []*models.Link) []dto.LinkDTO {
	out := make([]dto.LinkDTO, 0, len(links))
	for _, l := range links {
		out = append(out, ToLinkDTO(l))
	}
	return out
}
