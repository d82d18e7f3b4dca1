package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/bindlabs/bind/app/dto"
	businessflow "github.com/bindlabs/bind/business_flow"
)

// AuthHandlerInterface defines the contract for identity bootstrap handlers
type AuthHandlerInterface interface {
	Bootstrap(c fiber.Ctx) error
}

// AuthHandler resolves the authenticated principal into a profile
type AuthHandler struct {
	identityFlow businessflow.IdentityFlow
	validator    *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identityFlow businessflow.IdentityFlow) *AuthHandler {
	return &AuthHandler{
		identityFlow: identityFlow,
		validator:    validator.New(),
	}
}

func (h *AuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AuthHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Bootstrap resolves or creates the caller's profile
// @Summary Resolve or create profile
// @Description Returns the caller's profile, creating it with defaults on first login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.BootstrapProfileRequest true "Initial profile data"
// @Success 200 {object} dto.APIResponse{data=dto.GetProfileResponse} "Profile resolved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Username taken"
// @Router /api/v1/auth/bootstrap [post]
func (h *AuthHandler) Bootstrap(c fiber.Ctx) error {
	var req dto.BootstrapProfileRequest
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

	result, err := h.identityFlow.ResolveOrCreateProfile(h.createRequestContext(c), userID, &req, metadata)
	if err != nil {
		if businessflow.IsUsernameTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Username is already taken", "USERNAME_TAKEN", nil)
		}
		if businessflow.IsInvalidUsername(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid username", "INVALID_USERNAME", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Profile bootstrap failed", "BOOTSTRAP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *AuthHandler) createRequestContext(c fiber.Ctx) context.Context {
	ctx, _ := contextWithRequestValues(c, 30*time.Second)
	return ctx
}
