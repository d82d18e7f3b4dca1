package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/bindlabs/bind/app/dto"
	businessflow "github.com/bindlabs/bind/business_flow"
)

// ProfileHandlerInterface defines the contract for profile handlers
type ProfileHandlerInterface interface {
	GetProfile(c fiber.Ctx) error
	UpdateProfile(c fiber.Ctx) error
	UpdateCustomization(c fiber.Ctx) error
	UpdateCustomizationLive(c fiber.Ctx) error
	EquipBadges(c fiber.Ctx) error
}

// ProfileHandler handles profile-related HTTP requests
type ProfileHandler struct {
	profileFlow businessflow.ProfileFlow
	coalescer   *businessflow.CustomizationCoalescer
	validator   *validator.Validate
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileFlow businessflow.ProfileFlow, coalescer *businessflow.CustomizationCoalescer) *ProfileHandler {
	return &ProfileHandler{
		profileFlow: profileFlow,
		coalescer:   coalescer,
		validator:   validator.New(),
	}
}

func (h *ProfileHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ProfileHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Fields a profile update request may carry. Unknown keys are rejected so a
// typo in a client payload fails loudly instead of silently doing nothing.
var profileUpdateFields = map[string]bool{
	"username":  true,
	"full_name": true,
	"bio":       true,
	"location":  true,
}

var customizationFields = map[string]bool{
	"accent_color":              true,
	"text_color":                true,
	"background_color":          true,
	"icon_color":                true,
	"profile_opacity":           true,
	"profile_blur":              true,
	"enable_profile_gradient":   true,
	"monochrome_icons":          true,
	"animated_title":            true,
	"swap_box_colors":           true,
	"volume_control":            true,
	"use_discord_avatar":        true,
	"discord_avatar_decoration": true,
	"discord_presence":          true,
	"background_effect":         true,
	"background_image_url":      true,
}

var equipBadgesFields = map[string]bool{
	"badges": true,
}

func unknownJSONKeys(body []byte, allowed map[string]bool) []string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	var unknown []string
	for key := range raw {
		if !allowed[key] {
			unknown = append(unknown, key)
		}
	}
	return unknown
}

// GetProfile returns the caller's own profile
// @Summary Get own profile
// @Tags Profile
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GetProfileResponse} "Profile fetched"
// @Failure 404 {object} dto.APIResponse "Profile not found"
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(c fiber.Ctx) error {
	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.profileFlow.GetProfile(h.createRequestContext(c), userID)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch profile", "PROFILE_FETCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// UpdateProfile applies a partial update to identity-facing fields
// @Summary Update own profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body dto.UpdateProfileRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.GetProfileResponse} "Profile updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Username taken"
// @Router /api/v1/profile [patch]
func (h *ProfileHandler) UpdateProfile(c fiber.Ctx) error {
	if unknown := unknownJSONKeys(c.Body(), profileUpdateFields); len(unknown) > 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown fields in request", "UNKNOWN_FIELD", unknown)
	}

	var req dto.UpdateProfileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	result, err := h.profileFlow.UpdateProfile(h.createRequestContext(c), userID, &req, metadata)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		if businessflow.IsUsernameTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Username is already taken", "USERNAME_TAKEN", nil)
		}
		if businessflow.IsInvalidUsername(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid username", "INVALID_USERNAME", nil)
		}
		if businessflow.IsInvalidBio(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Bio is too long", "INVALID_BIO", nil)
		}
		if businessflow.IsNoFieldsToUpdate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "No fields to update", "NO_FIELDS", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update profile", "PROFILE_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *ProfileHandler) bindCustomization(c fiber.Ctx) (*dto.UpdateCustomizationRequest, error) {
	if unknown := unknownJSONKeys(c.Body(), customizationFields); len(unknown) > 0 {
		return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown fields in request", "UNKNOWN_FIELD", unknown)
	}

	var req dto.UpdateCustomizationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	return &req, nil
}

// UpdateCustomization applies a partial update to visual fields
// @Summary Update customization
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body dto.UpdateCustomizationRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.GetProfileResponse} "Customization updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/profile/customize [patch]
func (h *ProfileHandler) UpdateCustomization(c fiber.Ctx) error {
	req, err := h.bindCustomization(c)
	if req == nil {
		return err
	}

	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	result, err := h.profileFlow.ApplyCustomization(h.createRequestContext(c), userID, req, metadata)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidOpacity(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Opacity out of range", "INVALID_OPACITY", nil)
		}
		if businessflow.IsInvalidBlur(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Blur out of range", "INVALID_BLUR", nil)
		}
		if businessflow.IsInvalidColor(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid color", "INVALID_COLOR", nil)
		}
		if businessflow.IsInvalidPresenceMode(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid presence mode", "INVALID_PRESENCE", nil)
		}
		if businessflow.IsInvalidBackgroundEffect(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid background effect", "INVALID_EFFECT", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update customization", "CUSTOMIZATION_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// UpdateCustomizationLive queues a live-preview edit for coalesced persistence.
// Edits are merged per user and flushed after a quiet window, so the handler
// acknowledges without waiting for the write.
// @Summary Queue live customization edit
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body dto.UpdateCustomizationRequest true "Fields to update"
// @Success 202 {object} dto.APIResponse "Edit queued"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/profile/customize/live [patch]
func (h *ProfileHandler) UpdateCustomizationLive(c fiber.Ctx) error {
	req, err := h.bindCustomization(c)
	if req == nil {
		return err
	}

	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	h.coalescer.Submit(userID, req, metadata)

	return h.SuccessResponse(c, fiber.StatusAccepted, "Customization queued", nil)
}

// EquipBadges replaces the equipped badge set
// @Summary Equip badges
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body dto.EquipBadgesRequest true "Badges to equip"
// @Success 200 {object} dto.APIResponse{data=dto.GetProfileResponse} "Badges updated"
// @Failure 400 {object} dto.APIResponse "Unknown or locked badge"
// @Router /api/v1/profile/badges [put]
func (h *ProfileHandler) EquipBadges(c fiber.Ctx) error {
	if unknown := unknownJSONKeys(c.Body(), equipBadgesFields); len(unknown) > 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown fields in request", "UNKNOWN_FIELD", unknown)
	}

	var req dto.EquipBadgesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	result, err := h.profileFlow.EquipBadges(h.createRequestContext(c), userID, &req, metadata)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		if businessflow.IsUnknownBadge(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown badge", "UNKNOWN_BADGE", nil)
		}
		if businessflow.IsBadgeNotUnlocked(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Badge is not unlocked", "BADGE_NOT_UNLOCKED", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update badges", "BADGE_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *ProfileHandler) createRequestContext(c fiber.Ctx) context.Context {
	ctx, _ := contextWithRequestValues(c, 30*time.Second)
	return ctx
}
