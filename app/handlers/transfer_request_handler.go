package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/onsia-realty/onsia-crm/app/dto"
	businessflow "github.com/onsia-realty/onsia-crm/business_flow"
)

// TransferRequestHandlerInterface defines the contract for transfer request handlers
type TransferRequestHandlerInterface interface {
	Create(c fiber.Ctx) error
	Resolve(c fiber.Ctx) error
	List(c fiber.Ctx) error
}

// TransferRequestHandler handles transfer request HTTP requests
type TransferRequestHandler struct {
	transferFlow businessflow.TransferRequestFlow
	validator    *validator.Validate
}

// NewTransferRequestHandler creates a new transfer request handler
func NewTransferRequestHandler(transferFlow businessflow.TransferRequestFlow) *TransferRequestHandler {
	return &TransferRequestHandler{
		transferFlow: transferFlow,
		validator:    validator.New(),
	}
}

func (h *TransferRequestHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TransferRequestHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create handles filing a new transfer request
// @Summary Create Transfer Request
// @Description Request reassignment of a customer; at most one pending request per customer
// @Tags Transfer Requests
// @Accept json
// @Produce json
// @Param request body dto.CreateTransferRequestRequest true "Request data"
// @Success 201 {object} dto.APIResponse{data=dto.TransferRequestDTO} "Request filed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Failure 409 {object} dto.APIResponse "Pending request already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/transfer-requests [post]
func (h *TransferRequestHandler) Create(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.CreateTransferRequestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.transferFlow.Create(requestContext(c, "/api/v1/transfer-requests"), &req, actorID)
	if err != nil {
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		if businessflow.IsPendingRequestExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A pending request already exists for this customer", "PENDING_REQUEST_EXISTS", nil)
		}
		if businessflow.IsTargetNotAssignable(err) || businessflow.IsUserNotFound(err) || businessflow.IsAccountNotActive(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
		}
		log.Println("Create transfer request failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create transfer request", "CREATE_TRANSFER_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Transfer request filed", result)
}

// Resolve handles approving or rejecting a pending request
// @Summary Resolve Transfer Request
// @Description Approve or reject a pending request; approval moves ownership, rejection needs a reason (admin tier)
// @Tags Transfer Requests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param request body dto.ResolveTransferRequestRequest true "Resolution data"
// @Success 200 {object} dto.APIResponse{data=dto.TransferRequestDTO} "Request resolved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 404 {object} dto.APIResponse "Request not found"
// @Failure 409 {object} dto.APIResponse "Request already resolved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/transfer-requests/{id} [patch]
func (h *TransferRequestHandler) Resolve(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request id", "INVALID_REQUEST", nil)
	}

	var req dto.ResolveTransferRequestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.transferFlow.Resolve(requestContext(c, "/api/v1/transfer-requests/:id"), requestID, &req, actorID)
	if err != nil {
		if businessflow.IsTransferRequestNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Transfer request not found", "TRANSFER_REQUEST_NOT_FOUND", nil)
		}
		if businessflow.IsTransferRequestResolved(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Transfer request already resolved", "ALREADY_RESOLVED", nil)
		}
		if businessflow.IsEmptyRejectionReason(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Rejection requires a reason", "VALIDATION_ERROR", nil)
		}
		if businessflow.IsAdminTierRequired(err) || businessflow.IsNotAuthorized(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		if businessflow.IsCustomerNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
		}
		log.Println("Resolve transfer request failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve transfer request", "RESOLVE_TRANSFER_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Transfer request resolved", result)
}

// List handles transfer request listing
// @Summary List Transfer Requests
// @Description List transfer requests; agents see requests targeting them, admin tier sees all
// @Tags Transfer Requests
// @Produce json
// @Param status query string false "Filter by status (PENDING, APPROVED, REJECTED)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListTransferRequestsResponse} "Requests retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/transfer-requests [get]
func (h *TransferRequestHandler) List(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 0)

	result, err := h.transferFlow.List(requestContext(c, "/api/v1/transfer-requests"), status, page, limit, actorID)
	if err != nil {
		log.Println("List transfer requests failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list transfer requests", "LIST_TRANSFER_REQUESTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Transfer requests retrieved", result)
}
