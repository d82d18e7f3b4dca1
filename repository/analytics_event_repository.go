package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bindlabs/bind/models"
	"gorm.io/gorm"
)

// AnalyticsEventRepositoryImpl implements AnalyticsEventRepository
type AnalyticsEventRepositoryImpl struct {
	*BaseRepository[models.AnalyticsEvent, models.AnalyticsEventFilter]
}

// NewAnalyticsEventRepository creates a new analytics event repository
func NewAnalyticsEventRepository(db *gorm.DB) AnalyticsEventRepository {
	return &AnalyticsEventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AnalyticsEvent, models.AnalyticsEventFilter](db),
	}
}

// CountByType returns the number of events of one type since the given time
func (r *AnalyticsEventRepositoryImpl) CountByType(ctx context.Context, profileID uint, eventType string, since time.Time) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.AnalyticsEvent{}).
		Where("profile_id = ? AND event_type = ? AND created_at >= ?", profileID, eventType, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count %s events: %w", eventType, err)
	}

	return count, nil
}

// DailyCounts groups events per calendar day and type since the given time.
// DATE() is understood by both the Postgres production database and the
// sqlite test database. Days with no events produce no rows; zero-filling
// is done by the caller.
func (r *AnalyticsEventRepositoryImpl) DailyCounts(ctx context.Context, profileID uint, since time.Time) ([]DailyEventCount, error) {
	db := r.getDB(ctx)

	var rows []DailyEventCount
	err := db.Model(&models.AnalyticsEvent{}).
		Select("DATE(created_at) AS date, event_type, COUNT(*) AS count").
		Where("profile_id = ? AND created_at >= ?", profileID, since).
		Group("DATE(created_at), event_type").
		Order("date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily events: %w", err)
	}

	return rows, nil
}

// TopLinks returns the most clicked links since the given time, count
// descending. The internal-id order on ties only keeps the fetch
// deterministic; the caller re-orders ties by public link UUID.
func (r *AnalyticsEventRepositoryImpl) TopLinks(ctx context.Context, profileID uint, since time.Time, limit int) ([]LinkClickCount, error) {
	db := r.getDB(ctx)

	var rows []LinkClickCount
	err := db.Model(&models.AnalyticsEvent{}).
		Select("link_id AS link_id, COUNT(*) AS count").
		Where("profile_id = ? AND event_type = ? AND link_id IS NOT NULL AND created_at >= ?",
			profileID, models.EventTypeLinkClick, since).
		Group("link_id").
		Order("count DESC, link_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top links: %w", err)
	}

	return rows, nil
}
