package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/app/middleware"
	businessflow "github.com/onsia-realty/onsia-crm/business_flow"
)

// CustomerHandlerInterface defines the contract for customer record handlers
type CustomerHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	ListIDs(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Duplicates(c fiber.Ctx) error
	LogCall(c fiber.Ctx) error
	ListCalls(c fiber.Ctx) error
	TransferHistory(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// CustomerHandler handles customer record HTTP requests
type CustomerHandler struct {
	customerFlow businessflow.CustomerFlow
	exportFlow   businessflow.ExportFlow
	validator    *validator.Validate
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerFlow businessflow.CustomerFlow, exportFlow businessflow.ExportFlow) *CustomerHandler {
	return &CustomerHandler{
		customerFlow: customerFlow,
		exportFlow:   exportFlow,
		validator:    validator.New(),
	}
}

func (h *CustomerHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CustomerHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create handles customer registration
// @Summary Register Customer
// @Description Register a new customer record with duplicate warning and daily quota enforcement
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CreateCustomerRequest true "Customer data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateCustomerResponse} "Customer created"
// @Success 200 {object} dto.APIResponse{data=dto.CreateCustomerResponse} "Duplicate warning"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 429 {object} dto.APIResponse "Daily quota exceeded"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers [post]
func (h *CustomerHandler) Create(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	var req dto.CreateCustomerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.customerFlow.CreateCustomer(requestContext(c, "/api/v1/customers"), &req, actorID)
	if err != nil {
		var quotaErr *businessflow.QuotaExceededError
		if errors.As(err, &quotaErr) {
			middleware.QuotaDenials.Inc()
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Daily registration quota exceeded",
				Data:    quotaErr.Status,
				Error: dto.ErrorDetail{
					Code: "QUOTA_EXCEEDED",
				},
			})
		}
		if businessflow.IsInvalidPhone(err) || businessflow.IsUnknownSite(err) || businessflow.IsTargetNotAssignable(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
		}
		if businessflow.IsNotAuthorized(err) || businessflow.IsAdminTierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		log.Println("Create customer failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create customer", "CREATE_CUSTOMER_FAILED", nil)
	}

	if result.Duplicate != nil {
		return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
	}

	middleware.CustomerRegistrations.Inc()
	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// List handles the customer list view
// @Summary List Customers
// @Description List customer records scoped by role, with duplicate, absence, and call filters
// @Tags Customers
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param user_id query int false "Filter by assigned agent (admin tier)"
// @Param view_all query bool false "View every record (admin tier)"
// @Param is_public query bool false "View the public pool"
// @Param site query string false "Filter by site tag"
// @Param exclude_duplicates query bool false "Hide records whose phone appears on other records"
// @Param show_absence_only query bool false "Only records with no documented contact (admin tier)"
// @Param call_filter query string false "called or not_called"
// @Param ids_only query bool false "Return the full matching id set instead of a page"
// @Success 200 {object} dto.APIResponse{data=dto.ListCustomersResponse} "Customers retrieved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers [get]
func (h *CustomerHandler) List(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	req := listRequestFromQuery(c)
	if req.IDsOnly {
		return h.ListIDs(c)
	}

	result, err := h.customerFlow.ListCustomers(requestContext(c, "/api/v1/customers"), req, actorID)
	if err != nil {
		if businessflow.IsUnknownSite(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
		}
		if businessflow.IsAdminTierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		log.Println("List customers failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list customers", "LIST_CUSTOMERS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customers retrieved", result)
}

// ListIDs handles full-set id retrieval for bulk selection
// @Summary List Customer IDs
// @Description Return every id matching the filter, unpaginated, for select-all operations
// @Tags Customers
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListCustomerIDsResponse} "IDs retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/ids [get]
func (h *CustomerHandler) ListIDs(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	req := listRequestFromQuery(c)
	result, err := h.customerFlow.ListCustomerIDs(requestContext(c, "/api/v1/customers/ids"), req, actorID)
	if err != nil {
		if businessflow.IsUnknownSite(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
		}
		if businessflow.IsAdminTierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		log.Println("List customer ids failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list customer ids", "LIST_CUSTOMER_IDS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customer ids retrieved", result)
}

// Get handles single record retrieval
// @Summary Get Customer
// @Description Retrieve one customer record with derived duplicate and blacklist flags
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} dto.APIResponse{data=dto.CustomerDTO} "Customer retrieved"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/{id} [get]
func (h *CustomerHandler) Get(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid customer id", "INVALID_REQUEST", nil)
	}

	result, err := h.customerFlow.GetCustomer(requestContext(c, "/api/v1/customers/:id"), customerID, actorID)
	if err != nil {
		return h.customerError(c, err, "Failed to get customer", "GET_CUSTOMER_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customer retrieved", result)
}

// Update handles profile edits
// @Summary Update Customer
// @Description Update the free-text profile fields of a customer record
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path int true "Customer ID"
// @Param request body dto.UpdateCustomerRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.CustomerDTO} "Customer updated"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/{id} [put]
func (h *CustomerHandler) Update(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid customer id", "INVALID_REQUEST", nil)
	}

	var req dto.UpdateCustomerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.customerFlow.UpdateCustomer(requestContext(c, "/api/v1/customers/:id"), customerID, &req, actorID)
	if err != nil {
		return h.customerError(c, err, "Failed to update customer", "UPDATE_CUSTOMER_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customer updated", result)
}

// Duplicates handles the per-record duplicate lookup
// @Summary Find Duplicates
// @Description List other records sharing this customer's phone; peer details are admin tier only
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} dto.APIResponse{data=dto.DuplicateInfoResponse} "Duplicates retrieved"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/{id}/duplicates [get]
func (h *CustomerHandler) Duplicates(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid customer id", "INVALID_REQUEST", nil)
	}

	result, err := h.customerFlow.FindDuplicates(requestContext(c, "/api/v1/customers/:id/duplicates"), customerID, actorID)
	if err != nil {
		return h.customerError(c, err, "Failed to find duplicates", "FIND_DUPLICATES_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Duplicates retrieved", result)
}

// LogCall handles contact attempt recording
// @Summary Log Call
// @Description Record a documented contact attempt against a customer record
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path int true "Customer ID"
// @Param request body dto.LogCallRequest true "Call data"
// @Success 201 {object} dto.APIResponse{data=dto.CallLogDTO} "Call logged"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/{id}/calls [post]
func (h *CustomerHandler) LogCall(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid customer id", "INVALID_REQUEST", nil)
	}

	var req dto.LogCallRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.customerFlow.LogCall(requestContext(c, "/api/v1/customers/:id/calls"), customerID, &req, actorID)
	if err != nil {
		return h.customerError(c, err, "Failed to log call", "LOG_CALL_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Call logged", result)
}

// ListCalls handles call history retrieval
// @Summary List Calls
// @Description Retrieve the call history of a customer record
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CallLogDTO} "Calls retrieved"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/{id}/calls [get]
func (h *CustomerHandler) ListCalls(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid customer id", "INVALID_REQUEST", nil)
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 0)
	result, err := h.customerFlow.ListCalls(requestContext(c, "/api/v1/customers/:id/calls"), customerID, actorID, page, limit)
	if err != nil {
		return h.customerError(c, err, "Failed to list calls", "LIST_CALLS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Calls retrieved", result)
}

// TransferHistory handles ownership ledger retrieval
// @Summary Transfer History
// @Description Retrieve the ownership transfer history of a customer record (admin tier)
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.OwnershipTransferDTO} "History retrieved"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 404 {object} dto.APIResponse "Customer not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/{id}/transfers [get]
func (h *CustomerHandler) TransferHistory(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid customer id", "INVALID_REQUEST", nil)
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 0)
	result, err := h.customerFlow.ListTransferHistory(requestContext(c, "/api/v1/customers/:id/transfers"), customerID, actorID, page, limit)
	if err != nil {
		return h.customerError(c, err, "Failed to list transfer history", "LIST_TRANSFER_HISTORY_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Transfer history retrieved", result)
}

// Export handles the spreadsheet download
// @Summary Export Customers
// @Description Download the filtered customer set as an XLSX file (admin tier)
// @Tags Customers
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "Spreadsheet"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/customers/export [get]
func (h *CustomerHandler) Export(c fiber.Ctx) error {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "UNAUTHORIZED", nil)
	}

	req := listRequestFromQuery(c)
	filename, data, err := h.exportFlow.DownloadCustomersExcel(requestContextWithTimeout(c, "/api/v1/customers/export", 2*time.Minute), req, actorID)
	if err != nil {
		if businessflow.IsAdminTierRequired(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
		}
		log.Println("Export customers failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export customers", "EXPORT_FAILED", nil)
	}

	c.Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(data)
}

// customerError maps the common per-record flow errors onto HTTP statuses
func (h *CustomerHandler) customerError(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsCustomerNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
	}
	if businessflow.IsNotAuthorized(err) || businessflow.IsAdminTierRequired(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions", "FORBIDDEN", nil)
	}
	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}

// listRequestFromQuery maps the list view query parameters onto the DTO
func listRequestFromQuery(c fiber.Ctx) *dto.ListCustomersRequest {
	req := &dto.ListCustomersRequest{
		UserID:            queryUint(c, "user_id"),
		ViewAll:           queryBool(c, "view_all"),
		IsPublic:          queryBool(c, "is_public"),
		ExcludeDuplicates: queryBool(c, "exclude_duplicates"),
		ShowAbsenceOnly:   queryBool(c, "show_absence_only"),
		CallFilter:        c.Query("call_filter"),
		Page:              queryInt(c, "page", 1),
		Limit:             queryInt(c, "limit", 0),
		IDsOnly:           queryBool(c, "ids_only"),
	}
	if site := c.Query("site"); site != "" {
		req.Site = &site
	}
	return req
}
