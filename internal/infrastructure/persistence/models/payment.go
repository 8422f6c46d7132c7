package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
// The partial unique index enforces at most one non-cancelled payment
// per (student, group, series) tuple; it lives in the migrations.
type PaymentModel struct {
	AggregateModel
	StudentID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	GroupID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SeriesID     *uuid.UUID      `gorm:"type:uuid;index"`
	AmountPaid   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status       payment.Status  `gorm:"type:varchar(20);not null;default:'IN_PROGRESS';index"`
	Method       string          `gorm:"type:varchar(50)"`
	Description  string          `gorm:"type:text"`
	PaymentDate  *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *payment.Payment {
	return &payment.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		StudentID:         m.StudentID,
		GroupID:           m.GroupID,
		SeriesID:          m.SeriesID,
		AmountPaid:        m.AmountPaid,
		Status:            m.Status,
		Method:            m.Method,
		Description:       m.Description,
		PaymentDate:       m.PaymentDate,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *payment.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.StudentID = p.StudentID
	m.GroupID = p.GroupID
	m.SeriesID = p.SeriesID
	m.AmountPaid = p.AmountPaid
	m.Status = p.Status
	m.Method = p.Method
	m.Description = p.Description
	m.PaymentDate = p.PaymentDate
	m.CancelledAt = p.CancelledAt
	m.CancelReason = p.CancelReason
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentDetailModel is the persistence model for allocation lines.
// (payment_id, session_id) carries a unique index: one line per session
// per payment, topped up in place rather than duplicated.
type PaymentDetailModel struct {
	BaseModel
	PaymentID   uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_detail_payment_session,priority:1"`
	SessionID   uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_detail_payment_session,priority:2;index"`
	AmountPaid  decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaymentDate time.Time             `gorm:"not null"`
	State       shared.LifecycleState `gorm:"type:varchar(10);not null;default:'ACTIVE';index"`
	CatchUp     bool                  `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (PaymentDetailModel) TableName() string {
	return "payment_details"
}

// ToDomain converts the persistence model to a domain PaymentDetail.
func (m *PaymentDetailModel) ToDomain() *payment.PaymentDetail {
	return &payment.PaymentDetail{
		BaseEntity:  m.BaseModel.ToDomain(),
		PaymentID:   m.PaymentID,
		SessionID:   m.SessionID,
		AmountPaid:  m.AmountPaid,
		PaymentDate: m.PaymentDate,
		State:       m.State,
		CatchUp:     m.CatchUp,
	}
}

// FromDomain populates the persistence model from a domain PaymentDetail.
func (m *PaymentDetailModel) FromDomain(d *payment.PaymentDetail) {
	m.FromDomainBaseEntity(d.BaseEntity)
	m.PaymentID = d.PaymentID
	m.SessionID = d.SessionID
	m.AmountPaid = d.AmountPaid
	m.PaymentDate = d.PaymentDate
	m.State = d.State
	m.CatchUp = d.CatchUp
}

// PaymentDetailModelFromDomain creates a new persistence model from a domain PaymentDetail.
func PaymentDetailModelFromDomain(d *payment.PaymentDetail) *PaymentDetailModel {
	m := &PaymentDetailModel{}
	m.FromDomain(d)
	return m
}

// PaymentDetailAuditModel is the persistence model for the append-only
// correction log. Rows are inserted and read, never updated or deleted.
type PaymentDetailAuditModel struct {
	ID          uuid.UUID           `gorm:"type:uuid;primary_key"`
	DetailID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Action      payment.AuditAction `gorm:"type:varchar(10);not null"`
	PerformedBy uuid.UUID           `gorm:"type:uuid;not null;index"`
	OldValue    string              `gorm:"type:text"`
	NewValue    string              `gorm:"type:text"`
	Reason      string              `gorm:"type:varchar(500);not null"`
	CreatedAt   time.Time           `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentDetailAuditModel) TableName() string {
	return "payment_detail_audits"
}

// ToDomain converts the persistence model to a domain PaymentDetailAudit.
func (m *PaymentDetailAuditModel) ToDomain() *payment.PaymentDetailAudit {
	return &payment.PaymentDetailAudit{
		ID:          m.ID,
		DetailID:    m.DetailID,
		Action:      m.Action,
		PerformedBy: m.PerformedBy,
		OldValue:    m.OldValue,
		NewValue:    m.NewValue,
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt,
	}
}

// PaymentDetailAuditModelFromDomain creates a new persistence model from a domain audit entry.
func PaymentDetailAuditModelFromDomain(a *payment.PaymentDetailAudit) *PaymentDetailAuditModel {
	return &PaymentDetailAuditModel{
		ID:          a.ID,
		DetailID:    a.DetailID,
		Action:      a.Action,
		PerformedBy: a.PerformedBy,
		OldValue:    a.OldValue,
		NewValue:    a.NewValue,
		Reason:      a.Reason,
		CreatedAt:   a.CreatedAt,
	}
}
