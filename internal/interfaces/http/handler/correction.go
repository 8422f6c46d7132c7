package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	paymentapp "github.com/schoolmgmt/backend/internal/application/payment"
	domainpayment "github.com/schoolmgmt/backend/internal/domain/payment"
)

// CorrectionHandler handles admin corrections to payment allocations.
// Every mutation requires an authenticated staff member and a reason,
// and lands in the audit trail.
type CorrectionHandler struct {
	BaseHandler
	correctionService *paymentapp.CorrectionService
}

// NewCorrectionHandler creates a new CorrectionHandler
func NewCorrectionHandler(correctionService *paymentapp.CorrectionService) *CorrectionHandler {
	return &CorrectionHandler{
		correctionService: correctionService,
	}
}

// UpdateDetailRequest patches a single allocation. Omitted fields are
// left untouched.
type UpdateDetailRequest struct {
	Amount *float64 `json:"amount" binding:"omitempty,gt=0"`
	Active *bool    `json:"active"`
	Reason string   `json:"reason" binding:"required,max=500"`
}

// DeleteDetailRequest carries the mandatory deletion reason
type DeleteDetailRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SetSessionValidityRequest toggles whether a session counts toward
// liabilities
type SetSessionValidityRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// AuditResponse represents one audit trail entry in API responses
type AuditResponse struct {
	ID          string    `json:"id"`
	DetailID    string    `json:"detail_id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAuditResponse(a *domainpayment.PaymentDetailAudit) AuditResponse {
	return AuditResponse{
		ID:          a.ID.String(),
		DetailID:    a.DetailID.String(),
		Action:      string(a.Action),
		PerformedBy: a.PerformedBy.String(),
		OldValue:    a.OldValue,
		NewValue:    a.NewValue,
		Reason:      a.Reason,
		CreatedAt:   a.CreatedAt,
	}
}

// UpdateDetail applies an amount or active-state correction to one
// allocation and recalculates the owning payment
func (h *CorrectionHandler) UpdateDetail(c *gin.Context) {
	detailID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid detail ID")
		return
	}

	var req UpdateDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	staffID, err := getStaffID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	patch := paymentapp.DetailPatch{Active: req.Active}
	if req.Amount != nil {
		patch.Amount = toDecimalPtr(*req.Amount)
	}

	detail, err := h.correctionService.UpdateDetail(c.Request.Context(), detailID, patch, staffID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToPaymentDetailResponse(detail))
}

// DeleteDetail soft deletes an allocation and recalculates the owning
// payment
func (h *CorrectionHandler) DeleteDetail(c *gin.Context) {
	detailID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid detail ID")
		return
	}

	var req DeleteDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	staffID, err := getStaffID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.correctionService.DeleteDetail(c.Request.Context(), detailID, staffID, req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Recalculate rebuilds a payment's total and status from its active
// allocations
func (h *CorrectionHandler) Recalculate(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	pay, err := h.correctionService.RecalculatePayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ToPaymentResponse(pay))
}

// SetSessionValidity toggles a session's validity and deactivates or
// restores the allocations attached to it
func (h *CorrectionHandler) SetSessionValidity(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	var req SetSessionValidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	staffID, err := getStaffID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.correctionService.SetSessionValidity(c.Request.Context(), sessionID, *req.Active, staffID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetAuditHistory returns the paginated audit trail of one allocation
func (h *CorrectionHandler) GetAuditHistory(c *gin.Context) {
	detailID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid detail ID")
		return
	}

	filter := bindListFilter(c)

	page, err := h.correctionService.GetAuditHistory(c.Request.Context(), detailID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]AuditResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = toAuditResponse(&page.Items[i])
	}

	h.SuccessWithMeta(c, responses, page.Total, page.Page, page.PageSize)
}
