package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/onsia-realty/onsia-crm/app/dto"
	businessflow "github.com/onsia-realty/onsia-crm/business_flow"
)

// BlacklistHandlerInterface defines the contract for blacklist handlers
type BlacklistHandlerInterface interface {
	Register(c fiber.Ctx) error
	Deactivate(c fiber.Ctx) error
	List(c fiber.Ctx) error
}

// BlacklistHandler handles do-not-contact registry HTTP requests
type BlacklistHandler struct {
	blacklistFlow businessflow.BlacklistFlow
	validator     *validator.Validate
}

// NewBlacklistHandler creates a new blacklist handler
func NewBlacklistHandler(blacklistFlow businessflow.BlacklistFlow) *BlacklistHandler {
	return &BlacklistHandler{
		blacklistFlow: blacklistFlow,
		validator:     validator.New(),
	}
}

func (h *BlacklistHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *BlacklistHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Register handles adding a phone to the do-not-contact registry
// @Summary Register Blacklist Entry
// @Description Mark a phone as do-not-contact (admin tier)
// @Tags Blacklist
// @Accept json
// @Produce json
// @Param request body dto.RegisterBlacklistRequest true "Entry data"
// @Success 201 {object} dto.APIResponse{data=dto.RegisterBlacklistResponse} "Entry created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/blacklist [post]
func (h *BlacklistHandler) Register(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.RegisterBlacklistRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.blacklistFlow.Register(requestContext(c, "/api/v1/blacklist"), &req, actorID)
	if err != nil {
		if businessflow.IsInvalidPhone(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
		}
		if businessflow.IsAdminTierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		log.Println("Register blacklist entry failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to register blacklist entry", "REGISTER_BLACKLIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// Deactivate handles retiring a blacklist entry
// @Summary Deactivate Blacklist Entry
// @Description Retire a do-not-contact entry; customer records are untouched (admin tier)
// @Tags Blacklist
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} dto.APIResponse "Entry deactivated"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 404 {object} dto.APIResponse "Entry not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/blacklist/{id} [delete]
func (h *BlacklistHandler) Deactivate(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}
	entryID, err := pathID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid entry id", "INVALID_REQUEST", nil)
	}

	if err := h.blacklistFlow.Deactivate(requestContext(c, "/api/v1/blacklist/:id"), entryID, actorID); err != nil {
		if businessflow.IsBlacklistEntryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Blacklist entry not found", "BLACKLIST_ENTRY_NOT_FOUND", nil)
		}
		if businessflow.IsAdminTierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		log.Println("Deactivate blacklist entry failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to deactivate blacklist entry", "DEACTIVATE_BLACKLIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Blacklist entry deactivated", nil)
}

// List handles blacklist listing
// @Summary List Blacklist Entries
// @Description List do-not-contact entries, newest first (admin tier)
// @Tags Blacklist
// @Produce json
// @Param active_only query bool false "Only active entries"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListBlacklistResponse} "Entries retrieved"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/blacklist [get]
func (h *BlacklistHandler) List(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	activeOnly := queryBool(c, "active_only")
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 0)

	result, err := h.blacklistFlow.List(requestContext(c, "/api/v1/blacklist"), activeOnly, page, limit, actorID)
	if err != nil {
		if businessflow.IsAdminTierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		log.Println("List blacklist entries failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list blacklist entries", "LIST_BLACKLIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Blacklist entries retrieved", result)
}
