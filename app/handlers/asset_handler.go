package handlers

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/bindlabs/bind/app/dto"
	businessflow "github.com/bindlabs/bind/business_flow"
	"github.com/bindlabs/bind/utils"
)

// AssetHandlerInterface defines the contract for asset handlers
type AssetHandlerInterface interface {
	ReplaceAsset(c fiber.Ctx) error
	ClearAsset(c fiber.Ctx) error
}

// AssetHandler handles profile asset uploads
type AssetHandler struct {
	assetFlow businessflow.AssetFlow
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(assetFlow businessflow.AssetFlow) *AssetHandler {
	return &AssetHandler{
		assetFlow: assetFlow,
	}
}

func (h *AssetHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AssetHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ReplaceAsset uploads an image into the avatar or background slot
// @Summary Replace profile asset
// @Tags Assets
// @Accept multipart/form-data
// @Produce json
// @Param slot path string true "Asset slot (avatar or background)"
// @Param file formData file true "Image file"
// @Success 200 {object} dto.APIResponse{data=dto.UploadAssetResponse} "Asset uploaded"
// @Failure 400 {object} dto.APIResponse "Invalid asset"
// @Failure 502 {object} dto.APIResponse "Storage unavailable"
// @Router /api/v1/profile/assets/{slot} [put]
func (h *AssetHandler) ReplaceAsset(c fiber.Ctx) error {
	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	slot := c.Params("slot")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Missing file", "MISSING_FILE", nil)
	}
	if fileHeader.Size > utils.MaxAssetSize {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "File is too large", "ASSET_TOO_LARGE", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unreadable file", "INVALID_FILE", nil)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, utils.MaxAssetSize+1))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unreadable file", "INVALID_FILE", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	result, err := h.assetFlow.ReplaceAsset(h.createRequestContext(c), userID, slot, data, metadata)
	if err != nil {
		if businessflow.IsInvalidAssetSlot(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid asset slot", "INVALID_SLOT", nil)
		}
		if businessflow.IsInvalidAssetType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "File must be an image", "INVALID_ASSET_TYPE", nil)
		}
		if businessflow.IsAssetTooLarge(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "File is too large", "ASSET_TOO_LARGE", nil)
		}
		if businessflow.IsStorageUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Storage unavailable", "STORAGE_UNAVAILABLE", nil)
		}
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to upload asset", "ASSET_UPLOAD_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ClearAsset removes the asset in the slot and nulls the profile reference
// @Summary Clear profile asset
// @Tags Assets
// @Produce json
// @Param slot path string true "Asset slot (avatar or background)"
// @Success 200 {object} dto.APIResponse "Asset cleared"
// @Failure 404 {object} dto.APIResponse "No asset set"
// @Router /api/v1/profile/assets/{slot} [delete]
func (h *AssetHandler) ClearAsset(c fiber.Ctx) error {
	userID := userIDFromLocals(c)
	if userID == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	slot := c.Params("slot")

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	if err := h.assetFlow.ClearAsset(h.createRequestContext(c), userID, slot, metadata); err != nil {
		if businessflow.IsInvalidAssetSlot(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid asset slot", "INVALID_SLOT", nil)
		}
		if businessflow.IsProfileNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Profile not found", "PROFILE_NOT_FOUND", nil)
		}
		if errors.Is(err, businessflow.ErrNoAssetToClear) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No asset set for this slot", "NO_ASSET", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to clear asset", "ASSET_CLEAR_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Asset cleared", nil)
}

func (h *AssetHandler) createRequestContext(c fiber.Ctx) context.Context {
	ctx, _ := contextWithRequestValues(c, 60*time.Second)
	return ctx
}
