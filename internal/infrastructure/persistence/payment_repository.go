package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/schoolmgmt/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByTuple finds the single non-cancelled payment for a tuple
func (r *GormPaymentRepository) FindActiveByTuple(ctx context.Context, studentID, groupID uuid.UUID, seriesID *uuid.UUID) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.tupleQuery(ctx, studentID, groupID, seriesID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByTupleForUpdate finds the active payment for a tuple under a
// row lock. Must run inside a transaction; the lock serializes concurrent
// allocations against the same payment.
func (r *GormPaymentRepository) FindActiveByTupleForUpdate(ctx context.Context, studentID, groupID uuid.UUID, seriesID *uuid.UUID) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.tupleQuery(ctx, studentID, groupID, seriesID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormPaymentRepository) tupleQuery(ctx context.Context, studentID, groupID uuid.UUID, seriesID *uuid.UUID) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("student_id = ? AND group_id = ? AND status <> ?", studentID, groupID, payment.StatusCancelled)
	if seriesID == nil {
		return query.Where("series_id IS NULL")
	}
	return query.Where("series_id = ?", *seriesID)
}

// FindByStudent finds all payments of a student, newest first
func (r *GormPaymentRepository) FindByStudent(ctx context.Context, studentID uuid.UUID, filter shared.Filter) ([]payment.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("student_id = ?", studentID)
	query = applyFilter(query, filter, PaymentSortFields, "created_at")

	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]payment.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", p.ID, p.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

var _ payment.PaymentRepository = (*GormPaymentRepository)(nil)
