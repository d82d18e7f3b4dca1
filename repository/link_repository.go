package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bindlabs/bind/models"
	"gorm.io/gorm"
)

// LinkRepositoryImpl implements LinkRepository
type LinkRepositoryImpl struct {
	*BaseRepository[models.Link, models.LinkFilter]
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &LinkRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Link, models.LinkFilter](db),
	}
}

// ByUUID retrieves a link by its public UUID
func (r *LinkRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Link, error) {
	db := r.getDB(ctx)
	var link models.Link
	err := db.Where("uuid = ?", uuid).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find link by UUID: %w", err)
	}
	return &link, nil
}

// ByProfileID retrieves all links of a profile ordered by display order,
// ties broken by insertion order.
func (r *LinkRepositoryImpl) ByProfileID(ctx context.Context, profileID uint) ([]*models.Link, error) {
	db := r.getDB(ctx)

	var links []*models.Link
	err := db.Where("profile_id = ?", profileID).
		Order(`"order" ASC, id ASC`).
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list links for profile %d: %w", profileID, err)
	}

	return links, nil
}

// Update persists all fields of an existing link row
func (r *LinkRepositoryImpl) Update(ctx context.Context, link *models.Link) error {
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

	err = db.Save(link).Error
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	return nil
}

// DeleteByUUIDs removes the given links, scoped to the owning profile so a
// caller can never delete rows belonging to someone else.
func (r *LinkRepositoryImpl) DeleteByUUIDs(ctx context.Context, profileID uint, uuids []string) error {
	if len(uuids) == 0 {
		return nil
	}

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

	err = db.Where("profile_id = ? AND uuid IN ?", profileID, uuids).
		Delete(&models.Link{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete links: %w", err)
	}

	return nil
}
