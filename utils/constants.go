// Package utils provides utility functions for the application.
package utils

import "time"

// Analytics
const (
	DefaultAnalyticsWindowDays = 7
	MaxAnalyticsWindowDays     = 90
	TopLinksLimit              = 5
	ViewThrottleWindow         = 30 * time.Minute
)

// Admin
const (
	AuditTrailLimit = 50
)

// Customization
const (
	CoalescerQuietWindow = 1000 * time.Millisecond
)

// Assets
const (
	MaxAssetSize       = 10 << 20 // 10 MB
	AvatarMaxDimension = 512
)

// Links
const (
	NewLinkIDPrefix = "new-"
)

// HTTP
const (
	CORSMaxAge = 86400
)
