package businessflow

import (
	"net/url"
	"strings"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
)

// Badge identifiers. New profiles unlock the pioneer badge on creation;
// the rest are granted out of band.
const (
	BadgePioneer      = "pioneer"
	BadgeVerified     = "verified"
	BadgeSupporter    = "supporter"
	BadgeCreator      = "creator"
	BadgeAIEnthusiast = "ai-enthusiast"
	BadgeHaunted      = "haunted"
)

// BadgeCatalog maps badge ids to their display names. Unknown ids stored on
// a profile are silently dropped from public rendering.
var BadgeCatalog = map[string]string{
	BadgePioneer:      "Pioneer",
	BadgeVerified:     "Verified",
	BadgeSupporter:    "Supporter",
	BadgeCreator:      "Creator",
	BadgeAIEnthusiast: "AI Enthusiast",
	BadgeHaunted:      "Haunted",
}

// FallbackBackgroundGradient is the page background when no image is set.
const FallbackBackgroundGradient = "linear-gradient(to bottom, #100518, #08020c)"

// IconCategoryGeneric is returned for URLs matching no known platform.
const IconCategoryGeneric = "link"

var iconCategories = []struct {
	fragment string
	category string
}{
	{"github.com", "github"},
	{"twitter.com", "twitter-x"},
	{"x.com", "twitter-x"},
	{"instagram.com", "instagram"},
	{"youtube.com", "youtube"},
	{"twitch.tv", "twitch"},
	{"linkedin.com", "linkedin"},
	{"facebook.com", "facebook"},
	{"gitlab.com", "gitlab"},
}

// IconCategoryForURL maps a link URL to an icon category by hostname. The
// match is on the host with any leading "www." stripped; unparseable URLs
// fall back to the generic category.
func IconCategoryForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return IconCategoryGeneric
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	for _, ic := range iconCategories {
		if host == ic.fragment || strings.HasSuffix(host, "."+ic.fragment) {
			return ic.category
		}
	}
	return IconCategoryGeneric
}

// clampInt bounds v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ProjectPublicProfile derives the public page model from stored state. It
// is pure: the same profile and links always produce the same page. Opacity
// and blur are clamped to their ranges, equipped badges are filtered to
// known unlocked ones, and links keep their stored order.
func ProjectPublicProfile(profile *models.Profile, links []*models.Link) *dto.PublicProfilePage {
	displayName := profile.Username
	if profile.FullName != nil && strings.TrimSpace(*profile.FullName) != "" {
		displayName = *profile.FullName
	}

	background := dto.BackgroundStyleDTO{
		Effect: profile.BackgroundEffect,
	}
	if profile.BackgroundImageURL != nil && *profile.BackgroundImageURL != "" {
		background.ImageURL = profile.BackgroundImageURL
	} else {
		background.Gradient = FallbackBackgroundGradient
	}

	card := dto.CardStyleDTO{
		BackgroundAlpha: float64(clampInt(profile.ProfileOpacity, 0, 100)) / 100,
		BlurPx:          clampInt(profile.ProfileBlur, 0, 80),
		AccentColor:     profile.AccentColor,
		TextColor:       profile.TextColor,
		BackgroundColor: profile.BackgroundColor,
		IconColor:       profile.IconColor,
		Gradient:        profile.EnableProfileGradient,
		MonochromeIcons: profile.MonochromeIcons,
		AnimatedTitle:   profile.AnimatedTitle,
		SwapBoxColors:   profile.SwapBoxColors,
	}

	badges := make([]dto.PublicBadgeDTO, 0, len(profile.EquippedBadges))
	for _, id := range profile.EquippedBadges {
		name, known := BadgeCatalog[id]
		if !known || !profile.HasUnlockedBadge(id) {
			continue
		}
		badges = append(badges, dto.PublicBadgeDTO{ID: id, Name: name})
	}

	publicLinks := make([]dto.PublicLinkDTO, 0, len(links))
	for _, l := range links {
		publicLinks = append(publicLinks, dto.PublicLinkDTO{
			ID:    l.UUID.String(),
			Title: l.Title,
			URL:   l.URL,
			Icon:  IconCategoryForURL(l.URL),
		})
	}

	return &dto.PublicProfilePage{
		ProfileID:       profile.UUID.String(),
		Username:        profile.Username,
		DisplayName:     displayName,
		Bio:             profile.Bio,
		Location:        profile.Location,
		AvatarURL:       profile.AvatarURL,
		DiscordPresence: profile.DiscordPresence,
		Background:      background,
		Card:            card,
		Badges:          badges,
		Links:           publicLinks,
	}
}
