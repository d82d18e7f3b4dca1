package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/bindlabs/bind/app/dto"
	businessflow "github.com/bindlabs/bind/business_flow"
)

// AnalyticsHandlerInterface defines the contract for analytics handlers
type AnalyticsHandlerInterface interface {
	GetAnalytics(c fiber.Ctx) error
	ExportAnalytics(c fiber.Ctx) error
	RecordEvent(c fiber.Ctx) error
}

// AnalyticsHandler handles analytics HTTP requests
type AnalyticsHandler struct {
	analyticsFlow businessflow.AnalyticsFlow
	validator     *validator.Validate
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsFlow businessflow.AnalyticsFlow) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsFlow: analyticsFlow,
		validator:     validator.New(),
	}
}

func (h *AnalyticsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AnalyticsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func parseDays(c fiber.Ctx) (int, error) {
	raw := c.Query("days")
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// GetAnalytics returns the caller's traffic aggregate over a trailing window
// @Summary Get analytics
// @Tags Analytics
// @Produce json
// @Param days query int false "Trailing window in days (default 7, max 90)"
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsResponse} "Analytics aggregated"
// @Failure 400 {object} dto.APIResponse "Invalid window"
// @Router /api/v1/analytics [get]
func (h *AnalyticsHandler) GetAnalytics(c fiber.Ctx) error {
	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	days, err := parseDays(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid days parameter", "INVALID_WINDOW", nil)
	}

	result, err := h.analyticsFlow.Aggregate(h.createRequestContext(c), userID, days)
	if err != nil {
		if businessflow.IsInvalidWindow(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid analytics window", "INVALID_WINDOW", nil)
		}
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to aggregate analytics", "ANALYTICS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ExportAnalytics streams the aggregate as an XLSX workbook
// @Summary Export analytics
// @Tags Analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param days query int false "Trailing window in days (default 7, max 90)"
// @Success 200 {file} binary "Workbook"
// @Router /api/v1/analytics/export [get]
func (h *AnalyticsHandler) ExportAnalytics(c fiber.Ctx) error {
	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	days, err := parseDays(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid days parameter", "INVALID_WINDOW", nil)
	}

	buf, filename, err := h.analyticsFlow.ExportAggregate(h.createRequestContext(c), userID, days)
	if err != nil {
		if businessflow.IsInvalidWindow(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid analytics window", "INVALID_WINDOW", nil)
		}
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export analytics", "EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

// RecordEvent appends one traffic event from a public page. The endpoint
// always acknowledges: recording failures are logged server-side and never
// exposed to the visitor.
// @Summary Record traffic event
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body dto.RecordEventRequest true "Event to record"
// @Success 202 {object} dto.APIResponse "Event accepted"
// @Router /api/v1/events [post]
func (h *AnalyticsHandler) RecordEvent(c fiber.Ctx) error {
	var req dto.RecordEventRequest
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

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	if err := h.analyticsFlow.RecordEvent(h.createRequestContext(c), &req, metadata); err != nil {
		log.Printf("event recording failed: %v", err)
	}

	return h.SuccessResponse(c, fiber.StatusAccepted, "Event accepted", nil)
}

func (h *AnalyticsHandler) createRequestContext(c fiber.Ctx) context.Context {
	ctx, _ := contextWithRequestValues(c, 30*time.Second)
	return ctx
}
