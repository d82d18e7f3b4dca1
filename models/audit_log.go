package models

import "time"

// Audit actions
const (
	AuditActionSetRole = "set_role"
)

// AuditLog records administrative actions against profiles. Role changes
// are only performed through the admin flow, which writes one of these rows
// in the same transaction as the change itself.
type AuditLog struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	ActorProfileID  uint    `gorm:"not null;index:idx_audit_log_actor_profile_id" json:"actor_profile_id"`
	TargetProfileID uint    `gorm:"not null;index:idx_audit_log_target_profile_id" json:"target_profile_id"`
	Action          string  `gorm:"size:32;not null" json:"action"`
	OldValue        *string `gorm:"type:text" json:"old_value,omitempty"`
	NewValue        *string `gorm:"type:text" json:"new_value,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_audit_log_created_at" json:"created_at"`
}

// TableName returns the table name for AuditLog
func (AuditLog) TableName() string { return "audit_log" }
