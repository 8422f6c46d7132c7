package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/schoolmgmt/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentDetailRepository implements PaymentDetailRepository using GORM
type GormPaymentDetailRepository struct {
	db *gorm.DB
}

// NewGormPaymentDetailRepository creates a new GormPaymentDetailRepository
func NewGormPaymentDetailRepository(db *gorm.DB) *GormPaymentDetailRepository {
	return &GormPaymentDetailRepository{db: db}
}

// FindByID finds an allocation line by its ID
func (r *GormPaymentDetailRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.PaymentDetail, error) {
	var model models.PaymentDetailModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPayment finds all allocation lines of a payment, deleted included
func (r *GormPaymentDetailRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]payment.PaymentDetail, error) {
	var detailModels []models.PaymentDetailModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("payment_date ASC").
		Find(&detailModels).Error; err != nil {
		return nil, err
	}
	return toDomainDetails(detailModels), nil
}

// FindBySession finds all allocation lines touching a session
func (r *GormPaymentDetailRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]payment.PaymentDetail, error) {
	var detailModels []models.PaymentDetailModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Find(&detailModels).Error; err != nil {
		return nil, err
	}
	return toDomainDetails(detailModels), nil
}

// FindActiveForStudent finds the student's active allocation lines over the
// given sessions, excluding lines whose owning payment is cancelled
func (r *GormPaymentDetailRepository) FindActiveForStudent(ctx context.Context, studentID uuid.UUID, sessionIDs []uuid.UUID) ([]payment.PaymentDetail, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	var detailModels []models.PaymentDetailModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN payments ON payments.id = payment_details.payment_id").
		Where("payments.student_id = ? AND payments.status <> ?", studentID, payment.StatusCancelled).
		Where("payment_details.session_id IN ? AND payment_details.state = ?", sessionIDs, shared.LifecycleActive).
		Find(&detailModels).Error; err != nil {
		return nil, err
	}
	return toDomainDetails(detailModels), nil
}

// SumActiveByPayment sums the amounts of a payment's active lines
func (r *GormPaymentDetailRepository) SumActiveByPayment(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentDetailModel{}).
		Select("COALESCE(SUM(amount_paid), 0)").
		Where("payment_id = ? AND state = ?", paymentID, shared.LifecycleActive).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Save creates or updates an allocation line
func (r *GormPaymentDetailRepository) Save(ctx context.Context, d *payment.PaymentDetail) error {
	model := models.PaymentDetailModelFromDomain(d)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAll persists a batch of allocation lines
func (r *GormPaymentDetailRepository) SaveAll(ctx context.Context, details []*payment.PaymentDetail) error {
	if len(details) == 0 {
		return nil
	}
	detailModels := make([]*models.PaymentDetailModel, len(details))
	for i, d := range details {
		detailModels[i] = models.PaymentDetailModelFromDomain(d)
	}
	return r.db.WithContext(ctx).Save(detailModels).Error
}

func toDomainDetails(detailModels []models.PaymentDetailModel) []payment.PaymentDetail {
	details := make([]payment.PaymentDetail, len(detailModels))
	for i, model := range detailModels {
		details[i] = *model.ToDomain()
	}
	return details
}

var _ payment.PaymentDetailRepository = (*GormPaymentDetailRepository)(nil)
