package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/bindlabs/bind/app/dto"
	businessflow "github.com/bindlabs/bind/business_flow"
)

// LinkHandlerInterface defines the contract for link handlers
type LinkHandlerInterface interface {
	GetLinks(c fiber.Ctx) error
	SaveLinks(c fiber.Ctx) error
}

// LinkHandler handles link collection HTTP requests
type LinkHandler struct {
	linkFlow  businessflow.LinkFlow
	validator *validator.Validate
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(linkFlow businessflow.LinkFlow) *LinkHandler {
	return &LinkHandler{
		linkFlow:  linkFlow,
		validator: validator.New(),
	}
}

func (h *LinkHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *LinkHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetLinks returns the caller's links in display order
// @Summary Get own links
// @Tags Links
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GetLinksResponse} "Links fetched"
// @Router /api/v1/links [get]
func (h *LinkHandler) GetLinks(c fiber.Ctx) error {
	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.linkFlow.GetLinks(h.createRequestContext(c), userID)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch links", "LINK_FETCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// SaveLinks replaces the caller's entire link set
// @Summary Save link set
// @Description Reconciles the submitted set against storage: creates, updates, deletes, and reorders in one transaction
// @Tags Links
// @Accept json
// @Produce json
// @Param request body dto.SaveLinksRequest true "Full desired link set"
// @Success 200 {object} dto.APIResponse{data=dto.GetLinksResponse} "Links saved"
// @Failure 400 {object} dto.APIResponse "Invalid links"
// @Failure 404 {object} dto.APIResponse "Unknown link id"
// @Router /api/v1/links [put]
func (h *LinkHandler) SaveLinks(c fiber.Ctx) error {
	var req dto.SaveLinksRequest
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

	result, err := h.linkFlow.ReconcileLinks(h.createRequestContext(c), userID, &req, metadata)
	if err != nil {
		var linkErr *businessflow.LinkValidationError
		if errors.As(err, &linkErr) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Some links are invalid", "INVALID_LINKS", fiber.Map{
				"indices": linkErr.Indices,
			})
		}
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		if businessflow.IsLinkNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Link not found", "LINK_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save links", "LINK_SAVE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *LinkHandler) createRequestContext(c fiber.Ctx) context.Context {
	ctx, _ := contextWithRequestValues(c, 30*time.Second)
	return ctx
}
