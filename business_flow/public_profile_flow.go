package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	"github.com/bindlabs/bind/repository"
)

// PublicProfileFlow serves the unauthenticated public page for a username.
type PublicProfileFlow interface {
	GetPublicProfile(ctx context.Context, username string, metadata *ClientMetadata) (*dto.PublicProfilePage, error)
}

type PublicProfileFlowImpl struct {
	profileRepo   repository.ProfileRepository
	linkRepo      repository.LinkRepository
	analyticsFlow AnalyticsFlow
}

func NewPublicProfileFlow(
	profileRepo repository.ProfileRepository,
	linkRepo repository.LinkRepository,
	analyticsFlow AnalyticsFlow,
) PublicProfileFlow {
	return &PublicProfileFlowImpl{
		profileRepo:   profileRepo,
		linkRepo:      linkRepo,
		analyticsFlow: analyticsFlow,
	}
}

// GetPublicProfile resolves a username (exact, case-sensitive match) into
// the rendered page model and records a profile view in the background. A
// failed view recording never affects the response.
func (f *PublicProfileFlowImpl) GetPublicProfile(ctx context.Context, username string, metadata *ClientMetadata) (*dto.PublicProfilePage, error) {
	profile, err := f.profileRepo.ByUsername(ctx, username)
	if err != nil {
		return nil, NewBusinessError("PROFILE_FETCH_FAILED", "Failed to fetch profile", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	links, err := f.linkRepo.ByProfileID(ctx, profile.ID)
	if err != nil {
		return nil, NewBusinessError("LINK_FETCH_FAILED", "Failed to fetch links", err)
	}

	go func(profileUUID string, metadata *ClientMetadata) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		err := f.analyticsFlow.RecordEvent(ctx, &dto.RecordEventRequest{
			ProfileID: profileUUID,
			EventType: models.EventTypeProfileView,
		}, metadata)
		if err != nil {
			log.Printf("profile view recording failed: %v", err)
		}
	}(profile.UUID.String(), metadata)

	return ProjectPublicProfile(profile, links), nil
}
