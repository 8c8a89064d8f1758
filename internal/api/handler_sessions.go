package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-booking-backend/internal/booking"
	"equipment-booking-backend/internal/session"
)

// anonymousStudentID is used when the caller does not identify a student.
const anonymousStudentID = 1

type createSessionRequest struct {
	MachineID int64 `json:"machine_id" binding:"required,gt=0"`
}

type navigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=prev next"`
}

type toggleRequest struct {
	Date        string `json:"date" binding:"required"`
	OpeningTime string `json:"opening_time" binding:"required"`
}

type submitRequest struct {
	StudentID int64 `json:"student_id"`
	booking.ContactForm
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctrl, err := h.sessions.Create(c.Request.Context(), req.MachineID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ctrl.View())
}

func (h *Handler) session(c *gin.Context) (*session.Controller, bool) {
	ctrl, err := h.sessions.Get(c.Param("session_id"))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return ctrl, true
}

// GetSession handles GET /api/sessions/{session_id}.
func (h *Handler) GetSession(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.View())
}

// NavigateWeek handles POST /api/sessions/{session_id}/week.
func (h *Handler) NavigateWeek(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := ctrl.Navigate(c.Request.Context(), session.Direction(req.Direction))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// ReloadWeek handles POST /api/sessions/{session_id}/reload.
func (h *Handler) ReloadWeek(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Reload(c.Request.Context()))
}

// ToggleSlot handles POST /api/sessions/{session_id}/toggle.
func (h *Handler) ToggleSlot(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := ctrl.Toggle(req.Date, req.OpeningTime)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// ClearSelection handles DELETE /api/sessions/{session_id}/selection.
func (h *Handler) ClearSelection(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Reset())
}

// SubmitBooking handles POST /api/sessions/{session_id}/submit.
func (h *Handler) SubmitBooking(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.StudentID <= 0 {
		req.StudentID = anonymousStudentID
	}

	sub, err := ctrl.Submit(c.Request.Context(), req.StudentID, req.ContactForm)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// CloseSession handles DELETE /api/sessions/{session_id}.
func (h *Handler) CloseSession(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	h.sessions.Delete(c.Param("session_id"))
	c.Status(http.StatusNoContent)
}
