package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	paymentapp "github.com/schoolmgmt/backend/internal/application/payment"
)

// StatusHandler serves the payment status read models: the precise
// per-student nested view and the fast per-group roster view.
type StatusHandler struct {
	BaseHandler
	statusService *paymentapp.StatusService
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(statusService *paymentapp.StatusService) *StatusHandler {
	return &StatusHandler{
		statusService: statusService,
	}
}

// GetStudentStatus returns the group > series > session breakdown of what
// one student owes and has paid
func (h *StatusHandler) GetStudentStatus(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	groups, err := h.statusService.GetStudentStatus(c.Request.Context(), studentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, groups)
}

// GetGroupStatus returns the roster-screen paid/underpaid approximation
// for every student enrolled in a group
func (h *StatusHandler) GetGroupStatus(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid group ID")
		return
	}

	roster, err := h.statusService.GetGroupStatus(c.Request.Context(), groupID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, roster)
}
