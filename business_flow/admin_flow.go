package businessflow

import (
	"context"

	"gorm.io/gorm"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/models"
	"github.com/bindlabs/bind/repository"
	"github.com/bindlabs/bind/utils"
)

// AdminFlow covers role administration and the profile listing used by the
// admin dashboard. Every operation requires the caller to hold the admin
// role already; the first admin is seeded directly in the database.
type AdminFlow interface {
	SetRole(ctx context.Context, actorUserID, targetProfileUUID string, req *dto.SetRoleRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error)
	ListProfiles(ctx context.Context, actorUserID string, page, pageSize int) (*dto.ListProfilesResponse, error)
	GetAuditTrail(ctx context.Context, actorUserID, targetProfileUUID string) (*dto.AuditTrailResponse, error)
}

type AdminFlowImpl struct {
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
}

func NewAdminFlow(
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) AdminFlow {
	return &AdminFlowImpl{
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		db:          db,
	}
}

func (f *AdminFlowImpl) requireAdmin(ctx context.Context, actorUserID string) (*models.Profile, error) {
	actor, err := getProfileByUserID(ctx, f.profileRepo, actorUserID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, ErrAdminAccessRequired
	}
	return actor, nil
}

// SetRole changes the target profile's role and writes an audit row in the
// same transaction.
func (f *AdminFlowImpl) SetRole(ctx context.Context, actorUserID, targetProfileUUID string, req *dto.SetRoleRequest, metadata *ClientMetadata) (*dto.GetProfileResponse, error) {
	if req.Role != models.RoleAdmin && req.Role != models.RoleUser {
		return nil, ErrInvalidRole
	}

	actor, err := f.requireAdmin(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	target, err := f.profileRepo.ByUUID(ctx, targetProfileUUID)
	if err != nil {
		return nil, NewBusinessError("PROFILE_FETCH_FAILED", "Failed to fetch profile", err)
	}
	if target == nil {
		return nil, ErrProfileNotFound
	}

	oldRole := target.Role
	target.Role = utils.ToPtr(req.Role)
	target.UpdatedAt = utils.UTCNow()

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.profileRepo.Update(txCtx, target); err != nil {
			return NewBusinessError("ROLE_UPDATE_FAILED", "Failed to update role", err)
		}
		entry := &models.AuditLog{
			ActorProfileID:  actor.ID,
			TargetProfileID: target.ID,
			Action:          models.AuditActionSetRole,
			OldValue:        oldRole,
			NewValue:        target.Role,
		}
		if err := f.auditRepo.Save(txCtx, entry); err != nil {
			return NewBusinessError("AUDIT_WRITE_FAILED", "Failed to write audit log", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.GetProfileResponse{
		Message: "Role updated",
		Profile: ToProfileDTO(target),
	}, nil
}

// ListProfiles returns a page of profiles, most recently created first.
func (f *AdminFlowImpl) ListProfiles(ctx context.Context, actorUserID string, page, pageSize int) (*dto.ListProfilesResponse, error) {
	if _, err := f.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, ErrInvalidPageSize
	}

	profiles, err := f.profileRepo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("PROFILE_LIST_FAILED", "Failed to list profiles", err)
	}

	out := make([]dto.ProfileDTO, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ToProfileDTO(p))
	}
	return &dto.ListProfilesResponse{
		Message:  "Profiles listed",
		Page:     page,
		PageSize: pageSize,
		Profiles: out,
	}, nil
}

// GetAuditTrail returns the most recent administrative actions recorded
// against the target profile, newest first.
func (f *AdminFlowImpl) GetAuditTrail(ctx context.Context, actorUserID, targetProfileUUID string) (*dto.AuditTrailResponse, error) {
	if _, err := f.requireAdmin(ctx, actorUserID); err != nil {
		return nil, err
	}

	target, err := f.profileRepo.ByUUID(ctx, targetProfileUUID)
	if err != nil {
		return nil, NewBusinessError("PROFILE_FETCH_FAILED", "Failed to fetch profile", err)
	}
	if target == nil {
		return nil, ErrProfileNotFound
	}

	entries, err := f.auditRepo.ByTargetProfileID(ctx, target.ID, utils.AuditTrailLimit)
	if err != nil {
		return nil, NewBusinessError("AUDIT_FETCH_FAILED", "Failed to fetch audit trail", err)
	}

	out := make([]dto.AuditEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.AuditEntryDTO{
			Action:         e.Action,
			ActorProfileID: e.ActorProfileID,
			OldValue:       e.OldValue,
			NewValue:       e.NewValue,
			CreatedAt:      e.CreatedAt,
		})
	}
	return &dto.AuditTrailResponse{
		Message: "Audit trail fetched",
		Entries: out,
	}, nil
}
