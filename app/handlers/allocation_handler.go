package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/app/middleware"
	businessflow "github.com/onsia-realty/onsia-crm/business_flow"
)

// AllocationHandlerInterface defines the contract for distribution handlers
type AllocationHandlerInterface interface {
	Allocate(c fiber.Ctx) error
	SetPool(c fiber.Ctx) error
	Recall(c fiber.Ctx) error
	BulkDelete(c fiber.Ctx) error
	Claim(c fiber.Ctx) error
}

// AllocationHandler handles customer distribution HTTP requests
type AllocationHandler struct {
	allocationFlow businessflow.AllocationFlow
	validator      *validator.Validate
}

// NewAllocationHandler creates a new allocation handler
func NewAllocationHandler(allocationFlow businessflow.AllocationFlow) *AllocationHandler {
	return &AllocationHandler{
		allocationFlow: allocationFlow,
		validator:      validator.New(),
	}
}

func (h *AllocationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AllocationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Allocate handles batch assignment to an agent
// @Summary Allocate Customers
// @Description Assign a batch of customers to one agent with partial-success reporting (admin tier)
// @Tags Allocation
// @Accept json
// @Produce json
// @Param request body dto.AllocateRequest true "Allocation data"
// @Success 200 {object} dto.APIResponse{data=dto.AllocateResponse} "Allocation outcome"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/allocate [post]
func (h *AllocationHandler) Allocate(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.AllocateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.allocationFlow.Allocate(requestContext(c, "/api/v1/customers/allocate"), &req, actorID)
	if err != nil {
		return h.allocationError(c, err, "Failed to allocate customers", "ALLOCATION_FAILED")
	}

	middleware.OwnershipTransitions.WithLabelValues("allocate").Add(float64(result.Count))
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// SetPool handles publishing to and withdrawing from the public pool
// @Summary Set Pool
// @Description Publish customers to the public pool or withdraw them back to the admin pool
// @Tags Allocation
// @Accept json
// @Produce json
// @Param request body dto.SetPoolRequest true "Pool move data"
// @Success 200 {object} dto.APIResponse{data=dto.SetPoolResponse} "Pool move outcome"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/pool [patch]
func (h *AllocationHandler) SetPool(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.SetPoolRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.allocationFlow.SetPool(requestContext(c, "/api/v1/customers/pool"), &req, actorID)
	if err != nil {
		return h.allocationError(c, err, "Failed to move customers", "SET_POOL_FAILED")
	}

	kind := "withdraw"
	if req.IsPublic {
		kind = "publish"
	}
	middleware.OwnershipTransitions.WithLabelValues(kind).Add(float64(result.Count))
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Recall handles reclaiming absent records
// @Summary Recall Customers
// @Description Reclaim assigned records with no documented contact into the admin pool (admin tier)
// @Tags Allocation
// @Accept json
// @Produce json
// @Param request body dto.RecallRequest true "Recall data"
// @Success 200 {object} dto.APIResponse{data=dto.SetPoolResponse} "Recall outcome"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/recall [post]
func (h *AllocationHandler) Recall(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.RecallRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.allocationFlow.Recall(requestContext(c, "/api/v1/customers/recall"), &req, actorID)
	if err != nil {
		return h.allocationError(c, err, "Failed to recall customers", "RECALL_FAILED")
	}

	middleware.OwnershipTransitions.WithLabelValues("recall").Add(float64(result.Count))
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// BulkDelete handles soft deletion of admin-pool records
// @Summary Bulk Delete Customers
// @Description Soft-delete admin-pool records with partial-success reporting (admin tier)
// @Tags Allocation
// @Accept json
// @Produce json
// @Param request body dto.BulkDeleteRequest true "Deletion data"
// @Success 200 {object} dto.APIResponse{data=dto.BulkDeleteResponse} "Deletion outcome"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/bulk-delete [post]
func (h *AllocationHandler) BulkDelete(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.BulkDeleteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.allocationFlow.BulkDelete(requestContext(c, "/api/v1/customers/bulk-delete"), &req, actorID)
	if err != nil {
		return h.allocationError(c, err, "Failed to delete customers", "BULK_DELETE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Claim handles an agent picking up a public-pool record
// @Summary Claim Customer
// @Description Claim one record from the public pool; first claimer wins
// @Tags Allocation
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} dto.APIResponse{data=dto.ClaimResponse} "Customer claimed"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Failure 409 {object} dto.APIResponse "Customer not in the public pool"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/{id}/claim [post]
func (h *AllocationHandler) Claim(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid customer id", "INVALID_REQUEST", nil)
	}

	result, err := h.allocationFlow.Claim(requestContext(c, "/api/v1/customers/:id/claim"), customerID, actorID)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsNotInPublicPool(err) || businessflow.IsOwnershipConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Customer is not in the public pool", "NOT_IN_PUBLIC_POOL", nil)
		}
		return h.allocationError(c, err, "Failed to claim customer", "CLAIM_FAILED")
	}

	middleware.OwnershipTransitions.WithLabelValues("claim").Inc()
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// allocationError maps the shared distribution errors onto HTTP statuses
func (h *AllocationHandler) allocationError(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsAdminTierRequired(err) || businessflow.IsNotAuthorized(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
	}
	if businessflow.IsTargetNotAssignable(err) || businessflow.IsUserNotFound(err) || businessflow.IsAccountNotActive(err) || businessflow.IsUnknownSite(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}
	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}
