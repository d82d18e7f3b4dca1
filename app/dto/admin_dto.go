package dto

import "time"

// SetRoleRequest grants or changes a profile's role
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

// ListProfilesResponse is a paginated profile listing for the admin dashboard
type ListProfilesResponse struct {
	Message  string       `json:"message"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Profiles []ProfileDTO `json:"profiles"`
}

// AuditEntryDTO is one recorded administrative action against a profile
type AuditEntryDTO struct {
	Action         string    `json:"action"`
	ActorProfileID uint      `json:"actor_profile_id"`
	OldValue       *string   `json:"old_value,omitempty"`
	NewValue       *string   `json:"new_value,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// AuditTrailResponse lists the recent administrative actions against one profile
type AuditTrailResponse struct {
	Message string          `json:"message"`
	Entries []AuditEntryDTO `json:"entries"`
}
