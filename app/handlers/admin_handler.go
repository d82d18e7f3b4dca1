package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/bindlabs/bind/app/dto"
	businessflow "github.com/bindlabs/bind/business_flow"
)

// AdminHandlerInterface defines the contract for admin handlers
type AdminHandlerInterface interface {
	SetRole(c fiber.Ctx) error
	ListProfiles(c fiber.Ctx) error
	GetAuditTrail(c fiber.Ctx) error
}

// AdminHandler handles role administration HTTP requests
type AdminHandler struct {
	adminFlow businessflow.AdminFlow
	validator *validator.Validate
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminFlow businessflow.AdminFlow) *AdminHandler {
	return &AdminHandler{
		adminFlow: adminFlow,
		validator: validator.New(),
	}
}

func (h *AdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SetRole changes a profile's role
// @Summary Set profile role
// @Tags Admin
// @Accept json
// @Produce json
// @Param uuid path string true "Target profile UUID"
// @Param request body dto.SetRoleRequest true "Role to set"
// @Success 200 {object} dto.APIResponse{data=dto.GetProfileResponse} "Role updated"
// @Failure 403 {object} dto.APIResponse "Admin access required"
// @Router /api/v1/admin/profiles/{uuid}/role [post]
func (h *AdminHandler) SetRole(c fiber.Ctx) error {
	var req dto.SetRoleRequest
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

	result, err := h.adminFlow.SetRole(h.createRequestContext(c), userID, c.Params("uuid"), &req, metadata)
	if err != nil {
		if businessflow.IsAdminAccessRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Admin access required", "ADMIN_REQUIRED", nil)
		}
		if businessflow.IsInvalidRole(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid role", "INVALID_ROLE", nil)
		}
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to set role", "ROLE_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ListProfiles returns a page of profiles for the admin dashboard
// @Summary List profiles
// @Tags Admin
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListProfilesResponse} "Profiles listed"
// @Failure 403 {object} dto.APIResponse "Admin access required"
// @Router /api/v1/admin/profiles [get]
func (h *AdminHandler) ListProfiles(c fiber.Ctx) error {
	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page", "INVALID_PAGE", nil)
		}
		page = parsed
	}
	pageSize := 20
	if raw := c.Query("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page size", "INVALID_PAGE_SIZE", nil)
		}
		pageSize = parsed
	}

	result, err := h.adminFlow.ListProfiles(h.createRequestContext(c), userID, page, pageSize)
	if err != nil {
		if businessflow.IsAdminAccessRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Admin access required", "ADMIN_REQUIRED", nil)
		}
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		if errors.Is(err, businessflow.ErrInvalidPage) || errors.Is(err, businessflow.ErrInvalidPageSize) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination", "INVALID_PAGINATION", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list profiles", "PROFILE_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// GetAuditTrail returns the recent administrative actions against a profile
// @Summary Get profile audit trail
// @Tags Admin
// @Produce json
// @Param uuid path string true "Target profile UUID"
// @Success 200 {object} dto.APIResponse{data=dto.AuditTrailResponse} "Audit trail fetched"
// @Failure 403 {object} dto.APIResponse "Admin access required"
// @Failure 404 {object} dto.APIResponse "Profile not found"
// @Router /api/v1/admin/profiles/{uuid}/audit [get]
func (h *AdminHandler) GetAuditTrail(c fiber.Ctx) error {
	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.adminFlow.GetAuditTrail(h.createRequestContext(c), userID, c.Params("uuid"))
	if err != nil {
		if businessflow.IsAdminAccessRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Admin access required", "ADMIN_REQUIRED", nil)
		}
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch audit trail", "AUDIT_FETCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *AdminHandler) createRequestContext(c fiber.Ctx) context.Context {
	ctx, _ := contextWithRequestValues(c, 30*time.Second)
	return ctx
}
