package dto

import "time"

// ProfileDTO is the API representation of a profile
type ProfileDTO struct {
	UUID     string  `json:"id"`
	Username string  `json:"username"`
	FullName *string `json:"full_name,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	Location *string `json:"location,omitempty"`

	AvatarURL          *string `json:"avatar_url,omitempty"`
	BackgroundImageURL *string `json:"background_image_url,omitempty"`

	AccentColor     *string `json:"accent_color,omitempty"`
	TextColor       *string `json:"text_color,omitempty"`
	BackgroundColor *string `json:"background_color,omitempty"`
	IconColor       *string `json:"icon_color,omitempty"`

	ProfileOpacity int `json:"profile_opacity"`
	ProfileBlur    int `json:"profile_blur"`

	EnableProfileGradient   bool `json:"enable_profile_gradient"`
	MonochromeIcons         bool `json:"monochrome_icons"`
	AnimatedTitle           bool `json:"animated_title"`
	SwapBoxColors           bool `json:"swap_box_colors"`
	VolumeControl           bool `json:"volume_control"`
	UseDiscordAvatar        bool `json:"use_discord_avatar"`
	DiscordAvatarDecoration bool `json:"discord_avatar_decoration"`

	DiscordPresence  string `json:"discord_presence"`
	BackgroundEffect string `json:"background_effect"`

	UnlockedBadges []string `json:"unlocked_badges"`
	EquippedBadges []string `json:"equipped_badges"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetProfileResponse wraps a profile read or write result
type GetProfileResponse struct {
	Message string     `json:"message"`
	Profile ProfileDTO `json:"profile"`
}

// BootstrapProfileRequest seeds a profile on first login. Username and the
// optional identity fields come from the signup form of the external auth
// system.
type BootstrapProfileRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=30"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

// UpdateProfileRequest carries identity-facing field changes. Only fields
// present in the request are validated and applied.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=100"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=160"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=100"`
}

// UpdateCustomizationRequest carries visual field changes. Only fields
// present in the request are validated and applied; overlapping partials
// resolve last-write-wins per field.
type UpdateCustomizationRequest struct {
	AccentColor     *string `json:"accent_color,omitempty" validate:"omitempty,hexcolor"`
	TextColor       *string `json:"text_color,omitempty" validate:"omitempty,hexcolor"`
	BackgroundColor *string `json:"background_color,omitempty" validate:"omitempty,hexcolor"`
	IconColor       *string `json:"icon_color,omitempty" validate:"omitempty,hexcolor"`

	ProfileOpacity *int `json:"profile_opacity,omitempty" validate:"omitempty,gte=0,lte=100"`
	ProfileBlur    *int `json:"profile_blur,omitempty" validate:"omitempty,gte=0,lte=80"`

	EnableProfileGradient   *bool `json:"enable_profile_gradient,omitempty"`
	MonochromeIcons         *bool `json:"monochrome_icons,omitempty"`
	AnimatedTitle           *bool `json:"animated_title,omitempty"`
	SwapBoxColors           *bool `json:"swap_box_colors,omitempty"`
	VolumeControl           *bool `json:"volume_control,omitempty"`
	UseDiscordAvatar        *bool `json:"use_discord_avatar,omitempty"`
	DiscordAvatarDecoration *bool `json:"discord_avatar_decoration,omitempty"`

	DiscordPresence  *string `json:"discord_presence,omitempty" validate:"omitempty,oneof=enabled disabled"`
	BackgroundEffect *string `json:"background_effect,omitempty" validate:"omitempty,oneof=rain snow stars none"`

	BackgroundImageURL *string `json:"background_image_url,omitempty" validate:"omitempty,url"`
}

// EquipBadgesRequest replaces the equipped badge set
type EquipBadgesRequest struct {
	Badges []string `json:"badges" validate:"dive,required"`
}
