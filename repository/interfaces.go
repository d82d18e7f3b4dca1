package repository

import (
	"context"
	"time"

	"github.com/bindlabs/bind/models"
)

// ProfileRepository handles profile entity database operations
type ProfileRepository interface {
	ByID(ctx context.Context, id uint) (*models.Profile, error)
	ByUUID(ctx context.Context, uuid string) (*models.Profile, error)
	ByUserID(ctx context.Context, userID string) (*models.Profile, error)
	ByUsername(ctx context.Context, username string) (*models.Profile, error)
	UsernameTaken(ctx context.Context, username string, excludeProfileID uint) (bool, error)
	Save(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	List(ctx context.Context, limit, offset int) ([]*models.Profile, error)
}

// LinkRepository handles link entity database operations
type LinkRepository interface {
	ByID(ctx context.Context, id uint) (*models.Link, error)
	ByUUID(ctx context.Context, uuid string) (*models.Link, error)
	ByProfileID(ctx context.Context, profileID uint) ([]*models.Link, error)
	Save(ctx context.Context, link *models.Link) error
	Update(ctx context.Context, link *models.Link) error
	DeleteByUUIDs(ctx context.Context, profileID uint, uuids []string) error
}

// DailyEventCount is one row of the per-day aggregation, one event type per row.
type DailyEventCount struct {
	Date      string
	EventType string
	Count     int64
}

// LinkClickCount is one row of the per-link click aggregation.
type LinkClickCount struct {
	LinkID uint
	Count  int64
}

// AnalyticsEventRepository handles the append-only traffic event log
type AnalyticsEventRepository interface {
	Save(ctx context.Context, event *models.AnalyticsEvent) error
	CountByType(ctx context.Context, profileID uint, eventType string, since time.Time) (int64, error)
	DailyCounts(ctx context.Context, profileID uint, since time.Time) ([]DailyEventCount, error)
	TopLinks(ctx context.Context, profileID uint, since time.Time, limit int) ([]LinkClickCount, error)
}

// AuditLogRepository handles audit log database operations
type AuditLogRepository interface {
	Save(ctx context.Context, entry *models.AuditLog) error
	ByTargetProfileID(ctx context.Context, profileID uint, limit int) ([]*models.AuditLog, error)
}
