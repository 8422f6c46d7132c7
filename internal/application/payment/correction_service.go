package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/schoolmgmt/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CorrectionService applies admin corrections to allocation lines.
// Every mutation demands a reason, writes an immutable audit row and
// recalculates the owning payment in the same transaction, so totals
// can never drift from the lines that back them.
type CorrectionService struct {
	txScope  TransactionScope
	groups   schooling.GroupRepository
	sessions schooling.SessionRepository
	cache    RosterStatusCache
	logger   *zap.Logger
}

// NewCorrectionService creates a new CorrectionService
func NewCorrectionService(
	txScope TransactionScope,
	groups schooling.GroupRepository,
	sessions schooling.SessionRepository,
	cache RosterStatusCache,
	logger *zap.Logger,
) *CorrectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CorrectionService{
		txScope:  txScope,
		groups:   groups,
		sessions: sessions,
		cache:    cache,
		logger:   logger,
	}
}

// UpdateDetail patches an allocation's amount or active flag. The
// audit row is appended before the mutation is persisted; a failure
// anywhere rolls back both.
func (s *CorrectionService) UpdateDetail(ctx context.Context, detailID uuid.UUID, patch DetailPatch, performedBy uuid.UUID, reason string) (*payment.PaymentDetail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "update_detail")
	defer span.End()
	telemetry.SetAttribute(span, "detail_id", detailID)

	if strings.TrimSpace(reason) == "" {
		telemetry.RecordError(span, shared.ErrMissingReason)
		return nil, shared.ErrMissingReason
	}
	if patch.IsEmpty() {
		err := shared.NewDomainError("INVALID_PATCH", "Correction changes nothing")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var updated *payment.PaymentDetail
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		detail, err := repos.Details().FindByID(ctx, detailID)
		if err != nil {
			return err
		}
		price, err := s.sessionPrice(ctx, detail.SessionID)
		if err != nil {
			return err
		}

		oldValue := detail.Snapshot()
		if patch.Amount != nil {
			if err := detail.SetAmount(*patch.Amount, price); err != nil {
				return err
			}
		}
		if patch.Active != nil {
			if *patch.Active {
				err = detail.Reactivate()
			} else {
				err = detail.Deactivate()
			}
			if err != nil {
				return err
			}
		}

		audit, err := payment.NewPaymentDetailAudit(detailID, payment.AuditActionModified, performedBy, oldValue, detail.Snapshot(), reason)
		if err != nil {
			return err
		}
		if err := repos.Audits().Append(ctx, audit); err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}
		if err := repos.Details().Save(ctx, detail); err != nil {
			return fmt.Errorf("failed to save allocation: %w", err)
		}
		if err := s.recalculate(ctx, repos, detail.PaymentID); err != nil {
			return err
		}
		updated = detail
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.invalidateForDetail(ctx, updated)
	s.logger.Info("allocation corrected",
		zap.String("detail_id", detailID.String()),
		zap.String("performed_by", performedBy.String()),
	)
	return updated, nil
}

// DeleteDetail soft-deletes an allocation. The row survives so its
// audit trail stays resolvable, but it vanishes from every total.
func (s *CorrectionService) DeleteDetail(ctx context.Context, detailID uuid.UUID, performedBy uuid.UUID, reason string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "delete_detail")
	defer span.End()
	telemetry.SetAttribute(span, "detail_id", detailID)

	if strings.TrimSpace(reason) == "" {
		telemetry.RecordError(span, shared.ErrMissingReason)
		return shared.ErrMissingReason
	}

	var deleted *payment.PaymentDetail
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		detail, err := repos.Details().FindByID(ctx, detailID)
		if err != nil {
			return err
		}

		oldValue := detail.Snapshot()
		detail.MarkDeleted()

		audit, err := payment.NewPaymentDetailAudit(detailID, payment.AuditActionDeleted, performedBy, oldValue, detail.Snapshot(), reason)
		if err != nil {
			return err
		}
		if err := repos.Audits().Append(ctx, audit); err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}
		if err := repos.Details().Save(ctx, detail); err != nil {
			return fmt.Errorf("failed to save allocation: %w", err)
		}
		if err := s.recalculate(ctx, repos, detail.PaymentID); err != nil {
			return err
		}
		deleted = detail
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.invalidateForDetail(ctx, deleted)
	s.logger.Info("allocation deleted",
		zap.String("detail_id", detailID.String()),
		zap.String("performed_by", performedBy.String()),
	)
	return nil
}

// RecalculatePayment rebuilds a payment's total and status from its
// active allocation lines. Safe to call any number of times.
func (s *CorrectionService) RecalculatePayment(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "recalculate_payment")
	defer span.End()
	telemetry.SetAttribute(span, "payment_id", paymentID)

	var recalculated *payment.Payment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.recalculate(ctx, repos, paymentID); err != nil {
			return err
		}
		var err error
		recalculated, err = repos.Payments().FindByID(ctx, paymentID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, recalculated.GroupID)
	}
	return recalculated, nil
}

// SetSessionValidity flips a session's validity and cascades to its
// allocations: devalidation deactivates them, revalidation brings them
// back. Lines are never deleted by the cascade.
func (s *CorrectionService) SetSessionValidity(ctx context.Context, sessionID uuid.UUID, active bool, performedBy uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "set_session_validity")
	defer span.End()
	telemetry.SetAttribute(span, "session_id", sessionID)
	telemetry.SetAttribute(span, "active", active)

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to load session: %w", err)
	}

	reason := "Session devalidated"
	if active {
		reason = "Session revalidated"
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Sessions().SetValidity(ctx, sessionID, active); err != nil {
			return fmt.Errorf("failed to update session validity: %w", err)
		}

		details, err := repos.Details().FindBySession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load allocations: %w", err)
		}

		owners := make(map[uuid.UUID]struct{})
		for i := range details {
			detail := &details[i]
			if detail.State.IsDeleted() {
				continue
			}
			oldValue := detail.Snapshot()
			if active {
				err = detail.Reactivate()
			} else {
				err = detail.Deactivate()
			}
			if err != nil {
				return err
			}
			if detail.Snapshot() == oldValue {
				continue
			}

			audit, err := payment.NewPaymentDetailAudit(detail.ID, payment.AuditActionModified, performedBy, oldValue, detail.Snapshot(), reason)
			if err != nil {
				return err
			}
			if err := repos.Audits().Append(ctx, audit); err != nil {
				return fmt.Errorf("failed to append audit entry: %w", err)
			}
			if err := repos.Details().Save(ctx, detail); err != nil {
				return fmt.Errorf("failed to save allocation: %w", err)
			}
			owners[detail.PaymentID] = struct{}{}
		}

		for paymentID := range owners {
			if err := s.recalculate(ctx, repos, paymentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, session.GroupID)
	}
	s.logger.Info("session validity changed",
		zap.String("session_id", sessionID.String()),
		zap.Bool("active", active),
	)
	return nil
}

// GetAuditHistory returns the audit trail of one allocation, newest first
func (s *CorrectionService) GetAuditHistory(ctx context.Context, detailID uuid.UUID, filter shared.Filter) (shared.Paginated[payment.PaymentDetailAudit], error) {
	var entries []payment.PaymentDetailAudit
	var total int64
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		entries, err = repos.Audits().FindByDetail(ctx, detailID, filter)
		if err != nil {
			return err
		}
		total, err = repos.Audits().CountByDetail(ctx, detailID)
		return err
	})
	if err != nil {
		return shared.Paginated[payment.PaymentDetailAudit]{}, err
	}
	return shared.NewPaginated(entries, total, filter.Page, filter.PageSize), nil
}

// recalculate re-derives amountPaid and status from the active lines.
// Expected amount uses the full series length, not attendance, so a
// payment completed in advance stays completed.
func (s *CorrectionService) recalculate(ctx context.Context, repos TransactionalRepositories, paymentID uuid.UUID) error {
	p, err := repos.Payments().FindByID(ctx, paymentID)
	if err != nil {
		return err
	}
	// A cancelled payment keeps its frozen totals; saving it under the
	// lock would fail since nothing bumps the version.
	if p.Status == payment.StatusCancelled {
		return nil
	}
	total, err := repos.Details().SumActiveByPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to sum allocations: %w", err)
	}

	price, err := s.groupPrice(ctx, p.GroupID)
	if err != nil {
		return err
	}
	var sessionCount int64
	if p.SeriesID != nil {
		series, err := repos.Sessions().FindSeriesByID(ctx, *p.SeriesID)
		if err != nil {
			return fmt.Errorf("failed to load series: %w", err)
		}
		sessionCount = int64(series.SessionCount)
	}
	expected := payment.RecalculationExpectedAmount(price, sessionCount)

	p.ApplyRecalculation(total, expected)
	if err := repos.Payments().SaveWithLock(ctx, p); err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (s *CorrectionService) sessionPrice(ctx context.Context, sessionID uuid.UUID) (decimal.Decimal, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load session: %w", err)
	}
	return s.groupPrice(ctx, session.GroupID)
}

func (s *CorrectionService) groupPrice(ctx context.Context, groupID uuid.UUID) (decimal.Decimal, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load group: %w", err)
	}
	return schooling.PriceOf(group)
}

func (s *CorrectionService) invalidateForDetail(ctx context.Context, detail *payment.PaymentDetail) {
	if s.cache == nil || detail == nil {
		return
	}
	session, err := s.sessions.FindByID(ctx, detail.SessionID)
	if err != nil {
		return
	}
	s.cache.Invalidate(ctx, session.GroupID)
}
