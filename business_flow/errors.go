// Package businessflow contains the core business logic for the Bind profile service
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Profile errors
	ErrProfileNotFound  = errors.New("profile not found")
	ErrUsernameTaken    = errors.New("username is already taken")
	ErrInvalidUsername  = errors.New("username must be at least 3 characters of letters, numbers, or underscores")
	ErrInvalidBio       = errors.New("bio must be 160 characters or less")
	ErrInvalidFullName  = errors.New("full name is too long")
	ErrInvalidLocation  = errors.New("location is too long")
	ErrUnknownField     = errors.New("unknown profile field")
	ErrNoFieldsToUpdate = errors.New("at least one field must be provided for update")

	// Customization errors
	ErrInvalidOpacity          = errors.New("profile opacity must be between 0 and 100")
	ErrInvalidBlur             = errors.New("profile blur must be between 0 and 80")
	ErrInvalidColor            = errors.New("color must be a hex color string")
	ErrInvalidPresenceMode     = errors.New("discord presence must be enabled or disabled")
	ErrInvalidBackgroundEffect = errors.New("background effect must be one of rain, snow, stars, none")

	// Badge errors
	ErrUnknownBadge     = errors.New("unknown badge identifier")
	ErrBadgeNotUnlocked = errors.New("badge has not been unlocked")

	// Link errors
	ErrLinkNotFound = errors.New("link not found")
	ErrInvalidLink  = errors.New("link has an empty title or an invalid URL")

	// Asset errors
	ErrInvalidAssetSlot = errors.New("asset slot must be avatar or background")
	ErrInvalidAssetType = errors.New("asset must be an image")
	ErrAssetTooLarge    = errors.New("asset exceeds the maximum allowed size")
	ErrNoAssetToClear   = errors.New("no asset is set for this slot")

	// Storage errors
	ErrStorageUnavailable = errors.New("object storage is unavailable")

	// Admin errors
	ErrAdminAccessRequired = errors.New("admin access required")
	ErrInvalidRole         = errors.New("role must be admin or user")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")

	// Analytics errors
	ErrInvalidWindow = errors.New("analytics window must be between 1 and 90 days")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsProfileNotFound(err error) bool {
	return errors.Is(err, ErrProfileNotFound)
}

func IsUsernameTaken(err error) bool {
	return errors.Is(err, ErrUsernameTaken)
}

func IsInvalidUsername(err error) bool {
	return errors.Is(err, ErrInvalidUsername)
}

func IsInvalidBio(err error) bool {
	return errors.Is(err, ErrInvalidBio)
}

func IsUnknownField(err error) bool {
	return errors.Is(err, ErrUnknownField)
}

func IsNoFieldsToUpdate(err error) bool {
	return errors.Is(err, ErrNoFieldsToUpdate)
}

func IsInvalidOpacity(err error) bool {
	return errors.Is(err, ErrInvalidOpacity)
}

func IsInvalidBlur(err error) bool {
	return errors.Is(err, ErrInvalidBlur)
}

func IsInvalidColor(err error) bool {
	return errors.Is(err, ErrInvalidColor)
}

func IsInvalidPresenceMode(err error) bool {
	return errors.Is(err, ErrInvalidPresenceMode)
}

func IsInvalidBackgroundEffect(err error) bool {
	return errors.Is(err, ErrInvalidBackgroundEffect)
}

func IsUnknownBadge(err error) bool {
	return errors.Is(err, ErrUnknownBadge)
}

func IsBadgeNotUnlocked(err error) bool {
	return errors.Is(err, ErrBadgeNotUnlocked)
}

func IsLinkNotFound(err error) bool {
	return errors.Is(err, ErrLinkNotFound)
}

func IsInvalidLink(err error) bool {
	return errors.Is(err, ErrInvalidLink)
}

func IsInvalidAssetSlot(err error) bool {
	return errors.Is(err, ErrInvalidAssetSlot)
}

func IsInvalidAssetType(err error) bool {
	return errors.Is(err, ErrInvalidAssetType)
}

func IsAssetTooLarge(err error) bool {
	return errors.Is(err, ErrAssetTooLarge)
}

func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

func IsAdminAccessRequired(err error) bool {
	return errors.Is(err, ErrAdminAccessRequired)
}

func IsInvalidRole(err error) bool {
	return errors.Is(err, ErrInvalidRole)
}

func IsInvalidWindow(err error) bool {
	return errors.Is(err, ErrInvalidWindow)
}

// LinkValidationError carries the indices of the submitted entries that
// failed validation so the form can mark the offending rows.
type LinkValidationError struct {
	Indices []int
}

func (e *LinkValidationError) Error() string {
	return fmt.Sprintf("invalid links at indices %v", e.Indices)
}

func (e *LinkValidationError) Unwrap() error {
	return ErrInvalidLink
}
