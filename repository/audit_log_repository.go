package repository

import (
	"context"
	"fmt"

	"github.com/bindlabs/bind/models"
	"gorm.io/gorm"
)

// AuditLogRepositoryImpl implements AuditLogRepository
type AuditLogRepositoryImpl struct {
	*BaseRepository[models.AuditLog, any]
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &AuditLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AuditLog, any](db),
	}
}

// ByTargetProfileID retrieves the most recent audit entries for a profile
func (r *AuditLogRepositoryImpl) ByTargetProfileID(ctx context.Context, profileID uint, limit int) ([]*models.AuditLog, error) {
	db := r.getDB(ctx)

	var entries []*models.AuditLog
	err := db.Where("target_profile_id = ?", profileID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries for profile %d: %w", profileID, err)
	}

	return entries, nil
}
