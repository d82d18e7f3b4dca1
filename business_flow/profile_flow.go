package businessflow

import (
	"context"

	"gorm.io/gorm"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	"github.com/bindlabs/bind/repository"
	"github.com/bindlabs/bind/utils"
)

// ProfileFlow manages identity-facing attributes, visual customization, and
// the equipped badge set of the caller's own profile.
type ProfileFlow interface {
	GetProfile(ctx context.Context, userID string) (*dto.GetProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error)
	ApplyCustomization(ctx context.Context, userID string, req *dto.UpdateCustomizationRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error)
	EquipBadges(ctx context.Context, userID string, req *dto.EquipBadgesRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error)
}

type ProfileFlowImpl struct {
	profileRepo repository.ProfileRepository
	db          *gorm.DB
}

func NewProfileFlow(
	profileRepo repository.ProfileRepository,
	db *gorm.DB,
) ProfileFlow {
	return &ProfileFlowImpl{
		profileRepo: profileRepo,
		db:          db,
	}
}

func (f *ProfileFlowImpl) GetProfile(ctx context.Context, userID string) (*dto.GetProfileResponse, error) {
	profile, err := getProfileByUserID(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	return &dto.GetProfileResponse{
		Message: "Profile fetched",
		Profile: ToProfileDTO(profile),
	}, nil
}

// UpdateProfile applies the identity-facing fields present in the request.
// Absent fields are left untouched; a username change re-checks uniqueness
// inside the transaction that persists it.
func (f *ProfileFlowImpl) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error) {
	if req.Username == nil && req.FullName == nil && req.Bio == nil && req.Location == nil {
		return nil, ErrNoFieldsToUpdate
	}

	profile, err := getProfileByUserID(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		if err := validateUsername(*req.Username); err != nil {
			return nil, err
		}
	}
	if req.Bio != nil && len(*req.Bio) > 160 {
		return nil, ErrInvalidBio
	}
	if req.FullName != nil && len(*req.FullName) > 100 {
		return nil, ErrInvalidFullName
	}
	if req.Location != nil && len(*req.Location) > 100 {
		return nil, ErrInvalidLocation
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if req.Username != nil && *req.Username != profile.Username {
			taken, err := f.profileRepo.UsernameTaken(txCtx, *req.Username, profile.ID)
			if err != nil {
				return NewBusinessError("USERNAME_CHECK_FAILED", "Failed to check username", err)
			}
			if taken {
				return ErrUsernameTaken
			}
			profile.Username = *req.Username
		}
		if req.FullName != nil {
			profile.FullName = req.FullName
		}
		if req.Bio != nil {
			profile.Bio = req.Bio
		}
		if req.Location != nil {
			profile.Location = req.Location
		}
		profile.UpdatedAt = utils.UTCNow()

		if err := f.profileRepo.Update(txCtx, profile); err != nil {
			return NewBusinessError("PROFILE_UPDATE_FAILED", "Failed to update profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.GetProfileResponse{
		Message: "Profile updated",
		Profile: ToProfileDTO(profile),
	}, nil
}

// ApplyCustomization merges the visual fields present in the request into
// the stored state. Each field is validated against its range or enum before
// anything is written, so a request with one bad field changes nothing.
func (f *ProfileFlowImpl) ApplyCustomization(ctx context.Context, userID string, req *dto.UpdateCustomizationRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error) {
	profile, err := getProfileByUserID(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, err
	}

	if req.ProfileOpacity != nil && (*req.ProfileOpacity < 0 || *req.ProfileOpacity > 100) {
		return nil, ErrInvalidOpacity
	}
	if req.ProfileBlur != nil && (*req.ProfileBlur < 0 || *req.ProfileBlur > 80) {
		return nil, ErrInvalidBlur
	}
	for _, c := range []*string{req.AccentColor, req.TextColor, req.BackgroundColor, req.IconColor} {
		if c != nil && !hexColorPattern.MatchString(*c) {
			return nil, ErrInvalidColor
		}
	}
	if req.DiscordPresence != nil {
		switch *req.DiscordPresence {
		case models.DiscordPresenceEnabled, models.DiscordPresenceDisabled:
		default:
			return nil, ErrInvalidPresenceMode
		}
	}
	if req.BackgroundEffect != nil {
		switch *req.BackgroundEffect {
		case models.BackgroundEffectRain, models.BackgroundEffectSnow, models.BackgroundEffectStars, models.BackgroundEffectNone:
		default:
			return nil, ErrInvalidBackgroundEffect
		}
	}

	applyCustomization(profile, req)
	profile.UpdatedAt = utils.UTCNow()

	if err := f.profileRepo.Update(ctx, profile); err != nil {
		return nil, NewBusinessError("CUSTOMIZATION_UPDATE_FAILED", "Failed to update customization", err)
	}

	return &dto.GetProfileResponse{
		Message: "Customization updated",
		Profile: ToProfileDTO(profile),
	}, nil
}

// applyCustomization copies every non-nil request field onto the profile.
func applyCustomization(profile *models.Profile, req *dto.UpdateCustomizationRequest) {
	if req.AccentColor != nil {
		profile.AccentColor = req.AccentColor
	}
	if req.TextColor != nil {
		profile.TextColor = req.TextColor
	}
	if req.BackgroundColor != nil {
		profile.BackgroundColor = req.BackgroundColor
	}
	if req.IconColor != nil {
		profile.IconColor = req.IconColor
	}
	if req.ProfileOpacity != nil {
		profile.ProfileOpacity = *req.ProfileOpacity
	}
	if req.ProfileBlur != nil {
		profile.ProfileBlur = *req.ProfileBlur
	}
	if req.EnableProfileGradient != nil {
		profile.EnableProfileGradient = *req.EnableProfileGradient
	}
	if req.MonochromeIcons != nil {
		profile.MonochromeIcons = *req.MonochromeIcons
	}
	if req.AnimatedTitle != nil {
		profile.AnimatedTitle = *req.AnimatedTitle
	}
	if req.SwapBoxColors != nil {
		profile.SwapBoxColors = *req.SwapBoxColors
	}
	if req.VolumeControl != nil {
		profile.VolumeControl = *req.VolumeControl
	}
	if req.UseDiscordAvatar != nil {
		profile.UseDiscordAvatar = *req.UseDiscordAvatar
	}
	if req.DiscordAvatarDecoration != nil {
		profile.DiscordAvatarDecoration = *req.DiscordAvatarDecoration
	}
	if req.DiscordPresence != nil {
		profile.DiscordPresence = *req.DiscordPresence
	}
	if req.BackgroundEffect != nil {
		profile.BackgroundEffect = *req.BackgroundEffect
	}
	if req.BackgroundImageURL != nil {
		profile.BackgroundImageURL = req.BackgroundImageURL
	}
}

// EquipBadges replaces the equipped badge set. Every submitted id must be a
// known badge the caller has unlocked; equipping never changes unlocks.
func (f *ProfileFlowImpl) EquipBadges(ctx context.Context, userID string, req *dto.EquipBadgesRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error) {
	profile, err := getProfileByUserID(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Badges))
	equipped := make([]string, 0, len(req.Badges))
	for _, id := range req.Badges {
		if _, known := BadgeCatalog[id]; !known {
			return nil, NewBusinessErrorf("UNKNOWN_BADGE", "Unknown badge %q", ErrUnknownBadge, id)
		}
		if !profile.HasUnlockedBadge(id) {
			return nil, NewBusinessErrorf("BADGE_NOT_UNLOCKED", "Badge %q is not unlocked", ErrBadgeNotUnlocked, id)
		}
		if !seen[id] {
			seen[id] = true
			equipped = append(equipped, id)
		}
	}

	profile.EquippedBadges = equipped
	profile.UpdatedAt = utils.UTCNow()

	if err := f.profileRepo.Update(ctx, profile); err != nil {
		return nil, NewBusinessError("BADGE_UPDATE_FAILED", "Failed to update badges", err)
	}

	return &dto.GetProfileResponse{
		Message: "Badges updated",
		Profile: ToProfileDTO(profile),
	}, nil
}
