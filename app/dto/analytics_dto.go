package dto

// RecordEventRequest appends one traffic event. ProfileID is the public
// profile UUID; LinkID is required for link_click events only.
type RecordEventRequest struct {
	ProfileID string  `json:"profile_id" validate:"required,uuid4"`
	EventType string  `json:"event_type" validate:"required,oneof=profile_view link_click"`
	LinkID    *string `json:"link_id,omitempty" validate:"omitempty,uuid4"`
}

// DayStat is one zero-filled entry of the per-day series
type DayStat struct {
	Date   string `json:"date"`
	Views  int64  `json:"views"`
	Clicks int64  `json:"clicks"`
}

// TopLinkDTO is one entry of the top-links ranking
type TopLinkDTO struct {
	LinkID string `json:"link_id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Clicks int64  `json:"clicks"`
}

// AnalyticsResponse is the aggregate over a trailing window
type AnalyticsResponse struct {
	Message     string       `json:"message"`
	WindowDays  int          `json:"window_days"`
	TotalViews  int64        `json:"total_views"`
	TotalClicks int64        `json:"total_clicks"`
	Days        []DayStat    `json:"days"`
	TopLinks    []TopLinkDTO `json:"top_links"`
}
