package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipment-booking-backend/internal/parse"
	"equipment-booking-backend/internal/rules"
	"equipment-booking-backend/internal/selection"
)

type rulesResponse struct {
	MachineStartTime string `json:"machineStartTime"`
	MachineEndTime   string `json:"machineEndTime"`
	LunchStartTime   string `json:"lunchStartTime"`
	LunchEndTime     string `json:"lunchEndTime"`
	SlotDuration     int    `json:"slot_duration"`
	PerSlotCost      string `json:"machinePerSlotCost"`
	BookingBeforeHr  int    `json:"bookingBeforeHr"`
	CancelBeforeHr   int    `json:"cancelBeforeHr"`
}

// MachineResponse is a machine with its rules as the booking page consumes them.
type MachineResponse struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	LabID       int64         `json:"lab_id"`
	Rules       rulesResponse `json:"rules"`
}

type slotResponse struct {
	OpeningTime string `json:"openingTime"`
	ClosingTime string `json:"closingTime"`
	Label       string `json:"label"`
}

func machineIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("machine_id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid machine ID"})
		return 0, false
	}
	return id, true
}

// GetMachine handles GET /api/machines/{machine_id}.
func (h *Handler) GetMachine(c *gin.Context) {
	id, ok := machineIDParam(c)
	if !ok {
		return
	}
	m, err := h.provider.Machine(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMachineResponse(m))
}

// GetMachineSlots handles GET /api/machines/{machine_id}/slots.
func (h *Handler) GetMachineSlots(c *gin.Context) {
	id, ok := machineIDParam(c)
	if !ok {
		return
	}
	m, err := h.provider.Machine(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	slots, err := rules.GenerateDaySlots(m.Rules)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResponse{
			OpeningTime: s.OpeningTime,
			ClosingTime: s.ClosingTime,
			Label:       parse.FormatClock(s.OpeningTime) + " - " + parse.FormatClock(s.ClosingTime),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"machine_id":    m.ID,
		"slot_duration": m.Rules.SlotDurationHours,
		"slots":         out,
	})
}

func toMachineResponse(m rules.Machine) MachineResponse {
	return MachineResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Image:       m.Image,
		LabID:       m.LabID,
		Rules: rulesResponse{
			MachineStartTime: m.Rules.MachineStartTime,
			MachineEndTime:   m.Rules.MachineEndTime,
			LunchStartTime:   m.Rules.LunchStartTime,
			LunchEndTime:     m.Rules.LunchEndTime,
			SlotDuration:     m.Rules.SlotDurationHours,
			PerSlotCost:      selection.FormatAmount(m.Rules.PerSlotCost),
			BookingBeforeHr:  m.Rules.BookingBeforeHr,
			CancelBeforeHr:   m.Rules.CancelBeforeHr,
		},
	}
}
