package businessflow

import (
	"context"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	"github.com/bindlabs/bind/repository"
	"github.com/bindlabs/bind/utils"
)

// IdentityFlow resolves the external auth principal into a local profile.
type IdentityFlow interface {
	ResolveOrCreateProfile(ctx context.Context, userID string, req *dto.BootstrapProfileRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error)
}

type IdentityFlowImpl struct {
	profileRepo repository.ProfileRepository
	db          *gorm.DB
}

func NewIdentityFlow(
	profileRepo repository.ProfileRepository,
	db *gorm.DB,
) IdentityFlow {
	return &IdentityFlowImpl{
		profileRepo: profileRepo,
		db:          db,
	}
}

// ResolveOrCreateProfile returns the existing profile for the principal, or
// creates one with default customization on first login. Repeating the call
// for the same principal never creates a second profile and never mutates
// the existing one, regardless of the request payload.
func (f *IdentityFlowImpl) ResolveOrCreateProfile(ctx context.Context, userID string, req *dto.BootstrapProfileRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error) {
	existing, err := f.profileRepo.ByUserID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("PROFILE_FETCH_FAILED", "Failed to fetch profile", err)
	}
	if existing != nil {
		return &dto.GetProfileResponse{
			Message: "Profile resolved",
			Profile: ToProfileDTO(existing),
		}, nil
	}

	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		UUID:             uuid.New(),
		UserID:           userID,
		Username:         req.Username,
		FullName:         req.FullName,
		Email:            req.Email,
		ProfileOpacity:   models.DefaultProfileOpacity,
		ProfileBlur:      models.DefaultProfileBlur,
		DiscordPresence:  models.DiscordPresenceDisabled,
		BackgroundEffect: models.BackgroundEffectNone,
		UnlockedBadges:   []string{BadgePioneer},
		EquippedBadges:   []string{},
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		taken, err := f.profileRepo.UsernameTaken(txCtx, req.Username, 0)
		if err != nil {
			return NewBusinessError("USERNAME_CHECK_FAILED", "Failed to check username", err)
		}
		if taken {
			return ErrUsernameTaken
		}
		if err := f.profileRepo.Save(txCtx, profile); err != nil {
			return NewBusinessError("PROFILE_CREATE_FAILED", "Failed to create profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Profile created: user_id=%s username=%s request_id=%s at %s",
		userID, profile.Username, metadata.RequestID, utils.UTCNowRFC3339())

	return &dto.GetProfileResponse{
		Message: "Profile created",
		Profile: ToProfileDTO(profile),
	}, nil
}
