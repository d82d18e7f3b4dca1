package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bindlabs/bind/models"
	"gorm.io/gorm"
)

// ProfileRepositoryImpl implements ProfileRepository
type ProfileRepositoryImpl struct {
	*BaseRepository[models.Profile, models.ProfileFilter]
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &ProfileRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Profile, models.ProfileFilter](db),
	}
}

func (r *ProfileRepositoryImpl) byColumn(ctx context.Context, column string, value any) (*models.Profile, error) {
	db := r.getDB(ctx)
	var profile models.Profile
	err := db.Where(fmt.Sprintf("%s = ?", column), value).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find profile by %s: %w", column, err)
	}
	return &profile, nil
}

// ByUUID retrieves a profile by its public UUID
func (r *ProfileRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Profile, error) {
	return r.byColumn(ctx, "uuid", uuid)
}

// ByUserID retrieves the profile owned by an external auth principal
func (r *ProfileRepositoryImpl) ByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return r.byColumn(ctx, "user_id", userID)
}

// ByUsername retrieves a profile by username. The match is case-sensitive:
// public page lookups resolve the exact username that was stored.
func (r *ProfileRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return r.byColumn(ctx, "username", username)
}

// UsernameTaken reports whether another profile already holds the username.
// This is an advisory pre-check; the unique index on username is what
// actually closes the check-then-act race between concurrent writers.
func (r *ProfileRepositoryImpl) UsernameTaken(ctx context.Context, username string, excludeProfileID uint) (bool, error) {
	db := r.getDB(ctx)
	var count int64
	err := db.Model(&models.Profile{}).
		Where("username = ? AND id <> ?", username, excludeProfileID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check username uniqueness: %w", err)
	}
	return count > 0, nil
}

// Update persists all fields of an existing profile row
func (r *ProfileRepositoryImpl) Update(ctx context.Context, profile *models.Profile) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Save(profile).Error
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

// List retrieves profiles ordered by creation time with pagination
func (r *ProfileRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*models.Profile, error) {
	db := r.getDB(ctx)

	var profiles []*models.Profile
	err := db.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return profiles, nil
}
