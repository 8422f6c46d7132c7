package handler

import (
	"time"

	"github.com/schoolmgmt/backend/internal/application/payment"
	domainpayment "github.com/schoolmgmt/backend/internal/domain/payment"
)

// SeriesPaymentRequest is the request body for paying toward a series
type SeriesPaymentRequest struct {
	StudentID   string  `json:"student_id" binding:"required,uuid"`
	GroupID     string  `json:"group_id" binding:"required,uuid"`
	SeriesID    string  `json:"series_id" binding:"required,uuid"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Method      string  `json:"method" binding:"omitempty,max=50"`
	Description string  `json:"description" binding:"omitempty,max=500"`
}

// CatchUpPaymentRequest is the request body for paying a single session
// attended outside the student's fixed enrollment
type CatchUpPaymentRequest struct {
	StudentID   string  `json:"student_id" binding:"required,uuid"`
	SessionID   string  `json:"session_id" binding:"required,uuid"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Method      string  `json:"method" binding:"omitempty,max=50"`
	Description string  `json:"description" binding:"omitempty,max=500"`
}

// CancelPaymentRequest carries the mandatory cancellation reason
type CancelPaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID           string     `json:"id"`
	StudentID    string     `json:"student_id"`
	GroupID      string     `json:"group_id"`
	SeriesID     *string    `json:"series_id,omitempty"`
	AmountPaid   float64    `json:"amount_paid"`
	Status       string     `json:"status"`
	Method       string     `json:"method,omitempty"`
	Description  string     `json:"description,omitempty"`
	PaymentDate  *time.Time `json:"payment_date,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PaymentDetailResponse represents a per-session allocation in API responses
type PaymentDetailResponse struct {
	ID          string    `json:"id"`
	PaymentID   string    `json:"payment_id"`
	SessionID   string    `json:"session_id"`
	AmountPaid  float64   `json:"amount_paid"`
	PaymentDate time.Time `json:"payment_date"`
	State       string    `json:"state"`
	CatchUp     bool      `json:"catch_up"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentResultResponse is the outcome of a payment call. Surplus is the
// part of the submitted amount that exceeded the liability.
type PaymentResultResponse struct {
	Payment PaymentResponse `json:"payment"`
	Surplus float64         `json:"surplus"`
}

// PaymentWithDetailsResponse bundles a payment with its allocation lines
type PaymentWithDetailsResponse struct {
	Payment PaymentResponse         `json:"payment"`
	Details []PaymentDetailResponse `json:"details"`
}

// ToPaymentResponse converts a domain payment to a response DTO
func ToPaymentResponse(p *domainpayment.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:           p.ID.String(),
		StudentID:    p.StudentID.String(),
		GroupID:      p.GroupID.String(),
		AmountPaid:   p.AmountPaid.InexactFloat64(),
		Status:       string(p.Status),
		Method:       p.Method,
		Description:  p.Description,
		PaymentDate:  p.PaymentDate,
		CancelledAt:  p.CancelledAt,
		CancelReason: p.CancelReason,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.SeriesID != nil {
		s := p.SeriesID.String()
		resp.SeriesID = &s
	}
	return resp
}

// ToPaymentDetailResponse converts a domain allocation to a response DTO
func ToPaymentDetailResponse(d *domainpayment.PaymentDetail) PaymentDetailResponse {
	return PaymentDetailResponse{
		ID:          d.ID.String(),
		PaymentID:   d.PaymentID.String(),
		SessionID:   d.SessionID.String(),
		AmountPaid:  d.AmountPaid.InexactFloat64(),
		PaymentDate: d.PaymentDate,
		State:       string(d.State),
		CatchUp:     d.CatchUp,
		CreatedAt:   d.CreatedAt,
	}
}

// ToPaymentDetailResponses converts a slice of allocations
func ToPaymentDetailResponses(details []domainpayment.PaymentDetail) []PaymentDetailResponse {
	responses := make([]PaymentDetailResponse, len(details))
	for i := range details {
		responses[i] = ToPaymentDetailResponse(&details[i])
	}
	return responses
}

// ToPaymentResultResponse converts an application payment result
func ToPaymentResultResponse(result *payment.PaymentResult) PaymentResultResponse {
	return PaymentResultResponse{
		Payment: ToPaymentResponse(result.Payment),
		Surplus: result.Surplus.InexactFloat64(),
	}
}
