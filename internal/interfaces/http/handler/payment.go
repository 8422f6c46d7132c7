package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	paymentapp "github.com/schoolmgmt/backend/internal/application/payment"
	"github.com/schoolmgmt/backend/internal/domain/shared"
)

// PaymentHandler handles payment intake and lookup API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// PaySeries accepts a payment toward a session series and allocates it
// chronologically across the sessions the student attended.
func (h *PaymentHandler) PaySeries(c *gin.Context) {
	var req SeriesPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}
	groupID, err := uuid.Parse(req.GroupID)
	if err != nil {
		h.BadRequest(c, "Invalid group ID")
		return
	}
	seriesID, err := uuid.Parse(req.SeriesID)
	if err != nil {
		h.BadRequest(c, "Invalid series ID")
		return
	}

	appReq := paymentapp.SeriesPaymentRequest{
		StudentID:   studentID,
		GroupID:     groupID,
		SeriesID:    seriesID,
		Amount:      toDecimal(req.Amount),
		Method:      req.Method,
		Description: req.Description,
	}

	result, err := h.paymentService.ProcessSeriesPayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ToPaymentResultResponse(result))
}

// PayCatchUp accepts a payment for a single session attended as a catch-up
func (h *PaymentHandler) PayCatchUp(c *gin.Context) {
	var req CatchUpPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	appReq := paymentapp.CatchUpPaymentRequest{
		StudentID:   studentID,
		SessionID:   sessionID,
		Amount:      toDecimal(req.Amount),
		Method:      req.Method,
		Description: req.Description,
	}

	result, err := h.paymentService.ProcessCatchUpPayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ToPaymentResultResponse(result))
}

// Cancel voids a payment, excluding it from aggregates and overdue
// computations. The payment row is kept for the audit trail.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	var req CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cancelled, err := h.paymentService.CancelPayment(c.Request.Context(), paymentID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToPaymentResponse(cancelled))
}

// GetByID returns a payment with its allocation lines
func (h *PaymentHandler) GetByID(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	pay, details, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, PaymentWithDetailsResponse{
		Payment: ToPaymentResponse(pay),
		Details: ToPaymentDetailResponses(details),
	})
}

// ListByStudent returns a student's payments, newest first by default
func (h *PaymentHandler) ListByStudent(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	filter := bindListFilter(c)

	payments, err := h.paymentService.ListStudentPayments(c.Request.Context(), studentID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}

	h.SuccessWithMeta(c, responses, int64(len(responses)), filter.Page, filter.PageSize)
}

// bindListFilter reads pagination and ordering query params with defaults
func bindListFilter(c *gin.Context) shared.Filter {
	filter := shared.DefaultFilter()
	var query struct {
		Page     int    `form:"page"`
		PageSize int    `form:"page_size"`
		OrderBy  string `form:"order_by"`
		OrderDir string `form:"order_dir"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		return filter
	}
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}
	if query.OrderBy != "" {
		filter.OrderBy = query.OrderBy
	}
	if query.OrderDir != "" {
		filter.OrderDir = query.OrderDir
	}
	return filter
}
