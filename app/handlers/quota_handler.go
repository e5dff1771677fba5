package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/onsia-realty/onsia-crm/app/dto"
	businessflow "github.com/onsia-realty/onsia-crm/business_flow"
)

// QuotaHandlerInterface defines the contract for daily quota handlers
type QuotaHandlerInterface interface {
	Status(c fiber.Ctx) error
	ListExceeded(c fiber.Ctx) error
	GrantExtension(c fiber.Ctx) error
}

// QuotaHandler handles daily registration quota HTTP requests
type QuotaHandler struct {
	quotaFlow businessflow.QuotaFlow
	validator *validator.Validate
}

// NewQuotaHandler creates a new quota handler
func NewQuotaHandler(quotaFlow businessflow.QuotaFlow) *QuotaHandler {
	return &QuotaHandler{
		quotaFlow: quotaFlow,
		validator: validator.New(),
	}
}

func (h *QuotaHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *QuotaHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Status handles quota status lookup
// @Summary Quota Status
// @Description Return the user's registration quota for the current local day
// @Tags Quota
// @Produce json
// @Param user_id query int false "User to inspect (admin tier, defaults to self)"
// @Success 200 {object} dto.APIResponse{data=dto.QuotaStatusDTO} "Status retrieved"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/quotas/status [get]
func (h *QuotaHandler) Status(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	userID := actorID
	if q := queryUint(c, "user_id"); q != nil {
		userID = *q
	}

	result, err := h.quotaFlow.GetStatus(requestContext(c, "/api/v1/quotas/status"), userID, actorID)
	if err != nil {
		if businessflow.IsAdminTierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND", nil)
		}
		log.Println("Quota status failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get quota status", "QUOTA_STATUS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Quota status retrieved", result)
}

// ListExceeded handles the exceeded-agents overview
// @Summary List Exceeded Quotas
// @Description List agents who hit today's registration ceiling (admin tier)
// @Tags Quota
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListExceededQuotasResponse} "Overview retrieved"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/quotas/exceeded [get]
func (h *QuotaHandler) ListExceeded(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	result, err := h.quotaFlow.ListExceeded(requestContext(c, "/api/v1/quotas/exceeded"), actorID)
	if err != nil {
		if businessflow.IsAdminTierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		log.Println("List exceeded quotas failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list exceeded quotas", "LIST_EXCEEDED_QUOTAS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Exceeded quotas retrieved", result)
}

// GrantExtension handles raising an agent's daily ceiling
// @Summary Grant Quota Extension
// @Description Raise one agent's ceiling for today by one approval step (admin tier)
// @Tags Quota
// @Accept json
// @Produce json
// @Param request body dto.GrantQuotaExtensionRequest true "Grant data"
// @Success 200 {object} dto.APIResponse{data=dto.GrantQuotaExtensionResponse} "Extension granted"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/quotas/extend [post]
func (h *QuotaHandler) GrantExtension(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.GrantQuotaExtensionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.quotaFlow.GrantExtension(requestContext(c, "/api/v1/quotas/extend"), &req, actorID)
	if err != nil {
		if businessflow.IsAdminTierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		if businessflow.IsUserNotFound(err) || businessflow.IsTargetNotAssignable(err) || businessflow.IsAccountNotActive(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
		}
		log.Println("Grant quota extension failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to grant quota extension", "GRANT_QUOTA_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}
