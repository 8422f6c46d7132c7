package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/domain/schooling"
	"github.com/schoolmgmt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type correctionServiceFixture struct {
	payments *MockPaymentRepository
	details  *MockPaymentDetailRepository
	audits   *MockAuditRepository
	groups   *MockGroupRepository
	sessions *MockSessionRepository
	cache    *fakeRosterCache
	service  *CorrectionService
}

func newCorrectionServiceFixture() *correctionServiceFixture {
	f := &correctionServiceFixture{
		payments: new(MockPaymentRepository),
		details:  new(MockPaymentDetailRepository),
		audits:   new(MockAuditRepository),
		groups:   new(MockGroupRepository),
		sessions: new(MockSessionRepository),
		cache:    newFakeRosterCache(),
	}
	txScope := NewNoOpTransactionScope(f.payments, f.details, f.audits, f.sessions)
	f.service = NewCorrectionService(txScope, f.groups, f.sessions, f.cache, nil)
	return f
}

// correctionWorld wires a consistent group, series, session, payment and
// detail graph into the fixture's read-side mocks.
type correctionWorld struct {
	group   *schooling.Group
	series  schooling.SessionSeries
	session schooling.Session
	payment *payment.Payment
	detail  *payment.PaymentDetail
}

func newCorrectionWorld(t *testing.T, f *correctionServiceFixture) *correctionWorld {
	t.Helper()

	group := testGroup(100)
	series := schooling.SessionSeries{GroupID: group.ID, Name: "April", SessionCount: 4}
	series.ID = uuid.New()
	session := testSessions(group.ID, series.ID, 1)[0]

	seriesID := series.ID
	p, err := payment.NewPayment(uuid.New(), group.ID, &seriesID)
	require.NoError(t, err)
	require.NoError(t, p.RecordPayment(decimal.NewFromInt(100), decimal.NewFromInt(400)))

	detail, err := payment.NewPaymentDetail(p.ID, session.ID, decimal.NewFromInt(100), decimal.NewFromInt(100), false)
	require.NoError(t, err)

	f.groups.On("FindByID", mock.Anything, group.ID).Return(group, nil)
	f.sessions.On("FindByID", mock.Anything, session.ID).Return(&session, nil)
	f.sessions.On("FindSeriesByID", mock.Anything, series.ID).Return(&series, nil)

	return &correctionWorld{group: group, series: series, session: session, payment: p, detail: detail}
}

func TestCorrectionService_UpdateDetail_RequiresReason(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()
	amount := decimal.NewFromInt(80)

	_, err := f.service.UpdateDetail(ctx, uuid.New(), DetailPatch{Amount: &amount}, uuid.New(), "  ")

	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrMissingReason))
	f.details.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	f.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCorrectionService_UpdateDetail_RejectsEmptyPatch(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()

	_, err := f.service.UpdateDetail(ctx, uuid.New(), DetailPatch{}, uuid.New(), "typo fix")

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_PATCH", domainErr.Code)
}

func TestCorrectionService_UpdateDetail_AppliesAmountAndAudits(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()
	w := newCorrectionWorld(t, f)
	performedBy := uuid.New()

	f.details.On("FindByID", mock.Anything, w.detail.ID).Return(w.detail, nil)
	f.details.On("Save", mock.Anything, w.detail).Return(nil)
	f.audits.On("Append", mock.Anything, mock.MatchedBy(func(a *payment.PaymentDetailAudit) bool {
		return a.Action == payment.AuditActionModified &&
			a.PerformedBy == performedBy &&
			a.Reason == "cashier typo" &&
			a.OldValue != a.NewValue
	})).Return(nil)
	f.payments.On("FindByID", mock.Anything, w.payment.ID).Return(w.payment, nil)
	f.details.On("SumActiveByPayment", mock.Anything, w.payment.ID).Return(decimal.NewFromInt(80), nil)
	f.payments.On("SaveWithLock", mock.Anything, w.payment).Return(nil)

	amount := decimal.NewFromInt(80)
	updated, err := f.service.UpdateDetail(ctx, w.detail.ID, DetailPatch{Amount: &amount}, performedBy, "cashier typo")

	require.NoError(t, err)
	assert.Equal(t, "80", updated.AmountPaid.String())
	// recalculation pulled the owner total down to the corrected sum
	assert.Equal(t, "80", w.payment.AmountPaid.String())
	assert.Equal(t, payment.StatusInProgress, w.payment.Status)
	f.audits.AssertExpectations(t)
}

func TestCorrectionService_UpdateDetail_RejectsAmountAbovePrice(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()
	w := newCorrectionWorld(t, f)

	f.details.On("FindByID", mock.Anything, w.detail.ID).Return(w.detail, nil)

	amount := decimal.NewFromInt(150)
	_, err := f.service.UpdateDetail(ctx, w.detail.ID, DetailPatch{Amount: &amount}, uuid.New(), "bump")

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "AMOUNT_EXCEEDS_PRICE", domainErr.Code)
	f.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCorrectionService_DeleteDetail_SoftDeletesAndRecalculates(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()
	w := newCorrectionWorld(t, f)
	performedBy := uuid.New()

	f.details.On("FindByID", mock.Anything, w.detail.ID).Return(w.detail, nil)
	f.details.On("Save", mock.Anything, w.detail).Return(nil)
	f.audits.On("Append", mock.Anything, mock.MatchedBy(func(a *payment.PaymentDetailAudit) bool {
		return a.Action == payment.AuditActionDeleted && a.Reason == "entered twice"
	})).Return(nil)
	f.payments.On("FindByID", mock.Anything, w.payment.ID).Return(w.payment, nil)
	f.details.On("SumActiveByPayment", mock.Anything, w.payment.ID).Return(decimal.Zero, nil)
	f.payments.On("SaveWithLock", mock.Anything, w.payment).Return(nil)

	err := f.service.DeleteDetail(ctx, w.detail.ID, performedBy, "entered twice")

	require.NoError(t, err)
	assert.True(t, w.detail.State.IsDeleted())
	// with no active lines left the payment falls back to pending
	assert.True(t, w.payment.AmountPaid.IsZero())
	assert.Equal(t, payment.StatusPending, w.payment.Status)
}

func TestCorrectionService_DeleteDetail_RequiresReason(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()

	err := f.service.DeleteDetail(ctx, uuid.New(), uuid.New(), "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrMissingReason))
	f.details.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestCorrectionService_RecalculatePayment_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()
	w := newCorrectionWorld(t, f)

	f.payments.On("FindByID", mock.Anything, w.payment.ID).Return(w.payment, nil)
	f.details.On("SumActiveByPayment", mock.Anything, w.payment.ID).Return(decimal.NewFromInt(100), nil)
	f.payments.On("SaveWithLock", mock.Anything, w.payment).Return(nil)

	first, err := f.service.RecalculatePayment(ctx, w.payment.ID)
	require.NoError(t, err)
	second, err := f.service.RecalculatePayment(ctx, w.payment.ID)
	require.NoError(t, err)

	assert.Equal(t, first.AmountPaid.String(), second.AmountPaid.String())
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, payment.StatusInProgress, second.Status)
}

func TestCorrectionService_RecalculatePayment_LeavesCancelledUntouched(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()
	w := newCorrectionWorld(t, f)
	require.NoError(t, w.payment.Cancel("entered for the wrong student"))
	frozen := w.payment.AmountPaid

	f.payments.On("FindByID", mock.Anything, w.payment.ID).Return(w.payment, nil)

	recalculated, err := f.service.RecalculatePayment(ctx, w.payment.ID)

	require.NoError(t, err)
	assert.Equal(t, payment.StatusCancelled, recalculated.Status)
	assert.Equal(t, frozen.String(), recalculated.AmountPaid.String())
	f.details.AssertNotCalled(t, "SumActiveByPayment", mock.Anything, mock.Anything)
	f.payments.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestCorrectionService_SetSessionValidity_DevalidationCascade(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()
	w := newCorrectionWorld(t, f)
	performedBy := uuid.New()

	f.sessions.On("SetValidity", mock.Anything, w.session.ID, false).Return(nil)
	f.details.On("FindBySession", mock.Anything, w.session.ID).Return([]payment.PaymentDetail{*w.detail}, nil)
	f.details.On("Save", mock.Anything, mock.MatchedBy(func(d *payment.PaymentDetail) bool {
		return d.ID == w.detail.ID && !d.State.IsActive() && !d.State.IsDeleted()
	})).Return(nil)
	f.audits.On("Append", mock.Anything, mock.MatchedBy(func(a *payment.PaymentDetailAudit) bool {
		return a.Action == payment.AuditActionModified && a.Reason == "Session devalidated"
	})).Return(nil)
	f.payments.On("FindByID", mock.Anything, w.payment.ID).Return(w.payment, nil)
	f.details.On("SumActiveByPayment", mock.Anything, w.payment.ID).Return(decimal.Zero, nil)
	f.payments.On("SaveWithLock", mock.Anything, w.payment).Return(nil)

	err := f.service.SetSessionValidity(ctx, w.session.ID, false, performedBy)

	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, w.payment.Status)
	f.details.AssertExpectations(t)
	f.audits.AssertExpectations(t)
}

func TestCorrectionService_SetSessionValidity_FlipsSessionThroughTransactionalRepos(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()
	w := newCorrectionWorld(t, f)

	// separate transactional session repo, so a flip through the outer
	// read-side repo would stand out
	txSessions := new(MockSessionRepository)
	txScope := NewNoOpTransactionScope(f.payments, f.details, f.audits, txSessions)
	svc := NewCorrectionService(txScope, f.groups, f.sessions, f.cache, nil)

	txSessions.On("SetValidity", mock.Anything, w.session.ID, false).Return(nil)
	f.details.On("FindBySession", mock.Anything, w.session.ID).Return([]payment.PaymentDetail{}, nil)

	err := svc.SetSessionValidity(ctx, w.session.ID, false, uuid.New())

	require.NoError(t, err)
	txSessions.AssertCalled(t, "SetValidity", mock.Anything, w.session.ID, false)
	f.sessions.AssertNotCalled(t, "SetValidity", mock.Anything, mock.Anything, mock.Anything)
}

func TestCorrectionService_SetSessionValidity_SkipsDeletedDetails(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()
	w := newCorrectionWorld(t, f)
	w.detail.MarkDeleted()

	f.sessions.On("SetValidity", mock.Anything, w.session.ID, false).Return(nil)
	f.details.On("FindBySession", mock.Anything, w.session.ID).Return([]payment.PaymentDetail{*w.detail}, nil)

	err := f.service.SetSessionValidity(ctx, w.session.ID, false, uuid.New())

	require.NoError(t, err)
	f.details.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCorrectionService_GetAuditHistory_Paginates(t *testing.T) {
	ctx := context.Background()
	f := newCorrectionServiceFixture()

	detailID := uuid.New()
	entry, err := payment.NewPaymentDetailAudit(detailID, payment.AuditActionModified, uuid.New(), "a", "b", "why not")
	require.NoError(t, err)

	filter := shared.DefaultFilter()
	f.audits.On("FindByDetail", mock.Anything, detailID, filter).Return([]payment.PaymentDetailAudit{*entry}, nil)
	f.audits.On("CountByDetail", mock.Anything, detailID).Return(int64(1), nil)

	page, err := f.service.GetAuditHistory(ctx, detailID, filter)

	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "why not", page.Items[0].Reason)
}
