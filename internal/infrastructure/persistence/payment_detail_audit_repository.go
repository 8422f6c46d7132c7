package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/schoolmgmt/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentDetailAuditRepository implements PaymentDetailAuditRepository
// using GORM. The log is append-only; the repository exposes no update or
// delete path.
type GormPaymentDetailAuditRepository struct {
	db *gorm.DB
}

// NewGormPaymentDetailAuditRepository creates a new GormPaymentDetailAuditRepository
func NewGormPaymentDetailAuditRepository(db *gorm.DB) *GormPaymentDetailAuditRepository {
	return &GormPaymentDetailAuditRepository{db: db}
}

// Append inserts a new audit entry
func (r *GormPaymentDetailAuditRepository) Append(ctx context.Context, entry *payment.PaymentDetailAudit) error {
	model := models.PaymentDetailAuditModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByDetail returns the audit entries of an allocation line
func (r *GormPaymentDetailAuditRepository) FindByDetail(ctx context.Context, detailID uuid.UUID, filter shared.Filter) ([]payment.PaymentDetailAudit, error) {
	var auditModels []models.PaymentDetailAuditModel
	query := r.db.WithContext(ctx).Where("detail_id = ?", detailID)
	query = applyFilter(query, filter, AuditSortFields, "created_at")
	if err := query.Find(&auditModels).Error; err != nil {
		return nil, err
	}
	entries := make([]payment.PaymentDetailAudit, len(auditModels))
	for i, model := range auditModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// CountByDetail counts the audit entries of an allocation line
func (r *GormPaymentDetailAuditRepository) CountByDetail(ctx context.Context, detailID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentDetailAuditModel{}).
		Where("detail_id = ?", detailID).
		Count(&count).Error
	return count, err
}

var _ payment.PaymentDetailAuditRepository = (*GormPaymentDetailAuditRepository)(nil)
