package businessflow

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	"github.com/bindlabs/bind/repository"
	"github.com/bindlabs/bind/utils"
)

// LinkFlow manages the ordered link collection of a profile. Writes take the
// full desired set and reconcile it against storage in one transaction.
type LinkFlow interface {
	GetLinks(ctx context.Context, userID string) (*dto.GetLinksResponse, error)
	ReconcileLinks(ctx context.Context, userID string, req *dto.SaveLinksRequest, metadata *ClientMetadata) (*dto.GetLinksResponse, error)
}

type LinkFlowImpl struct {
	profileRepo repository.ProfileRepository
	linkRepo    repository.LinkRepository
	db          *gorm.DB
}

func NewLinkFlow(
	profileRepo repository.ProfileRepository,
	linkRepo repository.LinkRepository,
	db *gorm.DB,
) LinkFlow {
	return &LinkFlowImpl{
		profileRepo: profileRepo,
		linkRepo:    linkRepo,
		db:          db,
	}
}

func (f *LinkFlowImpl) GetLinks(ctx context.Context, userID string) (*dto.GetLinksResponse, error) {
	profile, err := getProfileByUserID(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	links, err := f.linkRepo.ByProfileID(ctx, profile.ID)
	if err != nil {
		return nil, NewBusinessError("LINK_FETCH_FAILED", "Failed to fetch links", err)
	}
	return &dto.GetLinksResponse{
		Message: "Links fetched",
		Links:   ToLinkDTOs(links),
	}, nil
}

// validSubmittedLink requires a non-empty title and an absolute URL with a host.
func validSubmittedLink(l *dto.SubmittedLink) bool {
	if strings.TrimSpace(l.Title) == "" {
		return false
	}
	u, err := url.Parse(l.URL)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}

// ReconcileLinks replaces the caller's link set with the submitted one.
// Entries whose id carries the "new-" prefix are inserted with a fresh
// server id; other ids must belong to the caller's current set. Stored links
// absent from the submission are deleted, and every surviving link's order
// is set to its position in the submitted slice. The whole reconciliation
// runs in one transaction, so a failed submission changes nothing.
func (f *LinkFlowImpl) ReconcileLinks(ctx context.Context, userID string, req *dto.SaveLinksRequest, metadata *ClientMetadata) (*dto.GetLinksResponse, error) {
	profile, err := getProfileByUserID(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, err
	}

	var badIndices []int
	for i := range req.Links {
		if !validSubmittedLink(&req.Links[i]) {
			badIndices = append(badIndices, i)
		}
	}
	if len(badIndices) > 0 {
		return nil, &LinkValidationError{Indices: badIndices}
	}

	existing, err := f.linkRepo.ByProfileID(ctx, profile.ID)
	if err != nil {
		return nil, NewBusinessError("LINK_FETCH_FAILED", "Failed to fetch links", err)
	}
	existingByUUID := make(map[string]*models.Link, len(existing))
	for _, l := range existing {
		existingByUUID[l.UUID.String()] = l
	}

	// Every submitted id that is not client-local must be in the caller's
	// own current set. This also rejects ids belonging to other profiles.
	submitted := make(map[string]bool, len(req.Links))
	for i := range req.Links {
		id := req.Links[i].ID
		if strings.HasPrefix(id, utils.NewLinkIDPrefix) {
			continue
		}
		if _, ok := existingByUUID[id]; !ok {
			return nil, NewBusinessErrorf("LINK_NOT_FOUND", "Link %q not found", ErrLinkNotFound, id)
		}
		submitted[id] = true
	}

	var toDelete []string
	for id := range existingByUUID {
		if !submitted[id] {
			toDelete = append(toDelete, id)
		}
	}

	now := utils.UTCNow()
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if len(toDelete) > 0 {
			if err := f.linkRepo.DeleteByUUIDs(txCtx, profile.ID, toDelete); err != nil {
				return NewBusinessError("LINK_DELETE_FAILED", "Failed to delete links", err)
			}
		}
		for i := range req.Links {
			sub := &req.Links[i]
			if strings.HasPrefix(sub.ID, utils.NewLinkIDPrefix) {
				link := &models.Link{
					UUID:      uuid.New(),
					ProfileID: profile.ID,
					Title:     sub.Title,
					URL:       sub.URL,
					Order:     i,
				}
				if err := f.linkRepo.Save(txCtx, link); err != nil {
					return NewBusinessError("LINK_CREATE_FAILED", "Failed to create link", err)
				}
				continue
			}
			link := existingByUUID[sub.ID]
			link.Title = sub.Title
			link.URL = sub.URL
			link.Order = i
			link.UpdatedAt = now
			if err := f.linkRepo.Update(txCtx, link); err != nil {
				return NewBusinessError("LINK_UPDATE_FAILED", "Failed to update link", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fresh, err := f.linkRepo.ByProfileID(ctx, profile.ID)
	if err != nil {
		return nil, NewBusinessError("LINK_FETCH_FAILED", "Failed to fetch links", err)
	}
	return &dto.GetLinksResponse{
		Message: "Links saved",
		Links:   ToLinkDTOs(fresh),
	}, nil
}
