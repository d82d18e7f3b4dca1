package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bindlabs/bind/app/dto"
	businessflow "github.com/bindlabs/bind/business_flow"
)

// PublicProfileHandlerInterface defines the contract for public page handlers
type PublicProfileHandlerInterface interface {
	GetPublicProfile(c fiber.Ctx) error
}

// PublicProfileHandler serves the unauthenticated public profile page
type PublicProfileHandler struct {
	publicFlow businessflow.PublicProfileFlow
}

// NewPublicProfileHandler creates a new public profile handler
func NewPublicProfileHandler(publicFlow businessflow.PublicProfileFlow) *PublicProfileHandler {
	return &PublicProfileHandler{
		publicFlow: publicFlow,
	}
}

func (h *PublicProfileHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PublicProfileHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetPublicProfile returns the rendered page model for a username
// @Summary Get public profile page
// @Tags Public
// @Produce json
// @Param username path string true "Profile username"
// @Success 200 {object} dto.APIResponse{data=dto.PublicProfilePage} "Page model"
// @Failure 404 {object} dto.APIResponse "Profile not found"
// @Router /u/{username} [get]
func (h *PublicProfileHandler) GetPublicProfile(c fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	page, err := h.publicFlow.GetPublicProfile(h.createRequestContext(c), username, metadata)
	if err != nil {
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load profile", "PROFILE_FETCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile page", page)
}

func (h *PublicProfileHandler) createRequestContext(c fiber.Ctx) context.Context {
	ctx, _ := contextWithRequestValues(c, 15*time.Second)
	return ctx
}
