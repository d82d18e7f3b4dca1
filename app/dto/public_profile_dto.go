package dto

// PublicBadgeDTO is one badge icon on the public page
type PublicBadgeDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PublicLinkDTO is one link button on the public page. Icon is the
// category resolved from the URL hostname.
type PublicLinkDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Icon  string `json:"icon"`
}

// BackgroundStyleDTO describes the page background: the uploaded image when
// one is set, a fixed gradient otherwise.
type BackgroundStyleDTO struct {
	ImageURL *string `json:"image_url,omitempty"`
	Gradient string  `json:"gradient,omitempty"`
	Effect   string  `json:"effect"`
}

// CardStyleDTO describes the profile card rendering
type CardStyleDTO struct {
	BackgroundAlpha float64 `json:"background_alpha"`
	BlurPx          int     `json:"blur_px"`
	AccentColor     *string `json:"accent_color,omitempty"`
	TextColor       *string `json:"text_color,omitempty"`
	BackgroundColor *string `json:"background_color,omitempty"`
	IconColor       *string `json:"icon_color,omitempty"`
	Gradient        bool    `json:"gradient"`
	MonochromeIcons bool    `json:"monochrome_icons"`
	AnimatedTitle   bool    `json:"animated_title"`
	SwapBoxColors   bool    `json:"swap_box_colors"`
}

// PublicProfilePage is the deterministic projection of stored state into
// the publicly rendered page model.
type PublicProfilePage struct {
	ProfileID       string             `json:"profile_id"`
	Username        string             `json:"username"`
	DisplayName     string             `json:"display_name"`
	Bio             *string            `json:"bio,omitempty"`
	Location        *string            `json:"location,omitempty"`
	AvatarURL       *string            `json:"avatar_url,omitempty"`
	DiscordPresence string             `json:"discord_presence"`
	Background      BackgroundStyleDTO `json:"background"`
	Card            CardStyleDTO       `json:"card"`
	Badges          []PublicBadgeDTO   `json:"badges"`
	Links           []PublicLinkDTO    `json:"links"`
}
