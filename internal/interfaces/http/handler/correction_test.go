package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	paymentapp "github.com/schoolmgmt/backend/internal/application/payment"
	"github.com/schoolmgmt/backend/internal/domain/payment"
	"github.com/schoolmgmt/backend/internal/interfaces/http/dto"
	"github.com/schoolmgmt/backend/internal/interfaces/http/middleware"
)

func newTestCorrectionHandler(audits *MockAuditRepository) *CorrectionHandler {
	scope := paymentapp.NewNoOpTransactionScope(&MockPaymentRepository{}, &MockPaymentDetailRepository{}, audits, nil)
	svc := paymentapp.NewCorrectionService(scope, nil, nil, nil, nil)
	return NewCorrectionHandler(svc)
}

// withStaff wraps a handler so the request carries an authenticated staff ID
func withStaff(staffID uuid.UUID, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTStaffIDKey, staffID.String())
		next(c)
	}
}

func TestCorrectionHandler_UpdateDetail_RequiresReason(t *testing.T) {
	h := newTestCorrectionHandler(&MockAuditRepository{})

	detailID := uuid.New()
	w := performJSON(t, withStaff(uuid.New(), h.UpdateDetail), http.MethodPatch,
		"/details/"+detailID.String(), gin.H{"amount": 10.0},
		gin.Params{{Key: "id", Value: detailID.String()}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorrectionHandler_UpdateDetail_RequiresStaff(t *testing.T) {
	h := newTestCorrectionHandler(&MockAuditRepository{})

	detailID := uuid.New()
	w := performJSON(t, h.UpdateDetail, http.MethodPatch,
		"/details/"+detailID.String(), gin.H{"amount": 10.0, "reason": "typo in amount"},
		gin.Params{{Key: "id", Value: detailID.String()}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCorrectionHandler_UpdateDetail_InvalidID(t *testing.T) {
	h := newTestCorrectionHandler(&MockAuditRepository{})

	w := performJSON(t, withStaff(uuid.New(), h.UpdateDetail), http.MethodPatch,
		"/details/xyz", gin.H{"amount": 10.0, "reason": "typo"},
		gin.Params{{Key: "id", Value: "xyz"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorrectionHandler_DeleteDetail_RequiresReason(t *testing.T) {
	h := newTestCorrectionHandler(&MockAuditRepository{})

	detailID := uuid.New()
	w := performJSON(t, withStaff(uuid.New(), h.DeleteDetail), http.MethodDelete,
		"/details/"+detailID.String(), gin.H{}, gin.Params{{Key: "id", Value: detailID.String()}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorrectionHandler_SetSessionValidity_RequiresActive(t *testing.T) {
	h := newTestCorrectionHandler(&MockAuditRepository{})

	sessionID := uuid.New()
	w := performJSON(t, withStaff(uuid.New(), h.SetSessionValidity), http.MethodPut,
		"/sessions/"+sessionID.String()+"/validity", gin.H{},
		gin.Params{{Key: "id", Value: sessionID.String()}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorrectionHandler_GetAuditHistory(t *testing.T) {
	audits := &MockAuditRepository{}
	h := newTestCorrectionHandler(audits)

	detailID := uuid.New()
	staffID := uuid.New()
	entry, err := payment.NewPaymentDetailAudit(detailID, payment.AuditActionModified, staffID, "10", "15", "typo in amount")
	require.NoError(t, err)

	audits.On("FindByDetail", mock.Anything, detailID, mock.Anything).
		Return([]payment.PaymentDetailAudit{*entry}, nil)
	audits.On("CountByDetail", mock.Anything, detailID).Return(int64(1), nil)

	w := performJSON(t, h.GetAuditHistory, http.MethodGet,
		"/details/"+detailID.String()+"/audits", nil,
		gin.Params{{Key: "id", Value: detailID.String()}})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)

	items := resp.Data.([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, staffID.String(), first["performed_by"])
	assert.Equal(t, "typo in amount", first["reason"])

	audits.AssertExpectations(t)
}
