package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/application/service"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/sangkips/billing-api/internal/domain/repository"
	"github.com/sangkips/billing-api/internal/presentation/http/dto/request"
	"github.com/sangkips/billing-api/internal/presentation/http/dto/response"
	"github.com/sangkips/billing-api/pkg/apperror"
	"github.com/sangkips/billing-api/pkg/pagination"
	"github.com/sangkips/billing-api/pkg/utils"
)

// BillHandler handles bill-related HTTP requests
type BillHandler struct {
	billService *service.BillService
}

// NewBillHandler creates a new bill handler
func NewBillHandler(billService *service.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

// List handles listing bills newest first
func (h *BillHandler) List(c *gin.Context) {
	var filter request.BillFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params, ok := billFilter(c, &filter)
	if !ok {
		return
	}

	bills, total, err := h.billService.ListBills(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, "Bills retrieved successfully", bills, params.Pagination, total)
}

func billFilter(c *gin.Context, filter *request.BillFilterRequest) (*repository.BillFilterParams, bool) {
	params := &repository.BillFilterParams{
		Pagination: pagination.FromQuery(filter.Page, filter.PerPage),
		WithItems:  filter.Items,
	}

	var ok bool
	if params.PaymentStatus, ok = enumParam[enum.PaymentStatus](c, "status", filter.Status); !ok {
		return nil, false
	}
	if params.BillType, ok = enumParam[enum.BillType](c, "type", filter.Type); !ok {
		return nil, false
	}
	if params.BillCategory, ok = enumParam[enum.BillCategory](c, "category", filter.Category); !ok {
		return nil, false
	}

	if filter.CustomerID != "" {
		id, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			response.BadRequest(c, "Invalid customer ID")
			return nil, false
		}
		params.CustomerID = &id
	}

	var fieldErrs []apperror.FieldError
	bound := func(field, raw string, endOfDay bool) *time.Time {
		if raw == "" {
			return nil
		}
		t, err := utils.ParseDateBound(raw, endOfDay, time.Local)
		if err != nil {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: field, Message: err.Error()})
			return nil
		}
		return &t
	}
	params.StartDate = bound("start_date", filter.StartDate, false)
	params.EndDate = bound("end_date", filter.EndDate, true)
	if len(fieldErrs) > 0 {
		response.Error(c, apperror.NewValidationError(fieldErrs))
		return nil, false
	}

	return params, true
}

// Create handles creating a bill
func (h *BillHandler) Create(c *gin.Context) {
	var input service.BillInput
	if !bindJSON(c, &input) {
		return
	}

	bill, err := h.billService.CreateBill(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bill created successfully", bill)
}

// Get handles getting a bill with its items and customer
func (h *BillHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "bill")
	if !ok {
		return
	}

	bill, err := h.billService.GetBill(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill retrieved successfully", bill)
}

// Update replaces a bill's lines and details
func (h *BillHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "bill")
	if !ok {
		return
	}

	var input service.BillInput
	if !bindJSON(c, &input) {
		return
	}

	bill, err := h.billService.UpdateBill(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill updated successfully", bill)
}

// Delete removes a bill and returns its stock
func (h *BillHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "bill")
	if !ok {
		return
	}

	if err := h.billService.DeleteBill(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
