package session

import (
	"time"

	"equipment-booking-backend/internal/availability"
	"equipment-booking-backend/internal/parse"
	"equipment-booking-backend/internal/rules"
	"equipment-booking-backend/internal/selection"
)

// View is a read-only projection of a session for the client to render.
type View struct {
	SessionID    string       `json:"session_id"`
	Machine      MachineView  `json:"machine"`
	Week         WeekView     `json:"week"`
	Availability string       `json:"availability"` // loaded or unknown
	LoadError    string       `json:"load_error,omitempty"`
	Rows         []Row        `json:"rows"`
	Selection    SelectionSum `json:"selection"`
}

type MachineView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	PerSlotCost string `json:"per_slot_cost"`
}

type WeekView struct {
	Start string    `json:"start"`
	End   string    `json:"end"`
	Label string    `json:"label"`
	Days  []DayView `json:"days"`
}

type DayView struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Label   string `json:"label"`
}

// Row is one time slot across the seven visible days.
type Row struct {
	Slot  rules.TimeSlot `json:"slot"`
	Label string         `json:"label"`
	Cells []Cell         `json:"cells"`
}

type Cell struct {
	Date     string              `json:"date"`
	Status   availability.Status `json:"status"`
	Reason   string              `json:"reason,omitempty"`
	Selected bool                `json:"selected,omitempty"`
}

// SelectionSum summarizes the selection across all weeks.
type SelectionSum struct {
	Count     int                `json:"count"`
	TotalCost string             `json:"total_cost"`
	StartAt   string             `json:"start_at,omitempty"`
	EndAt     string             `json:"end_at,omitempty"`
	Slots     []selection.Slot   `json:"slots"`
	Runs      [][]selection.Slot `json:"runs"`
}

// view must be called with c.mu held.
func (c *Controller) view() View {
	v := View{
		SessionID: c.id,
		Machine: MachineView{
			ID:          c.machine.ID,
			Name:        c.machine.Name,
			Description: c.machine.Description,
			Image:       c.machine.Image,
			PerSlotCost: selection.FormatAmount(c.machine.Rules.PerSlotCost),
		},
		Availability: "loaded",
	}
	if c.loadErr != nil {
		v.Availability = "unknown"
		v.LoadError = "availability could not be loaded"
	}

	dates := c.week.Dates()
	v.Week = WeekView{
		Start: parse.FormatDate(c.week.Start),
		End:   parse.FormatDate(c.week.End()),
		Label: c.week.Label(),
		Days:  make([]DayView, 0, len(dates)),
	}
	for _, d := range dates {
		v.Week.Days = append(v.Week.Days, DayView{
			Date:    parse.FormatDate(d),
			Weekday: d.Format("Mon"),
			Label:   d.Format("Jan 2"),
		})
	}

	v.Rows = make([]Row, 0, len(c.daySlots))
	for _, slot := range c.daySlots {
		row := Row{
			Slot:  slot,
			Label: parse.FormatClock(slot.OpeningTime) + " - " + parse.FormatClock(slot.ClosingTime),
			Cells: make([]Cell, 0, len(dates)),
		}
		for _, d := range dates {
			row.Cells = append(row.Cells, c.cell(d, slot))
		}
		v.Rows = append(v.Rows, row)
	}

	sorted := c.sel.Sorted()
	v.Selection = SelectionSum{
		Count:     c.sel.Len(),
		TotalCost: selection.FormatAmount(selection.TotalCost(c.sel, c.machine.Rules.PerSlotCost)),
		Slots:     sorted,
		Runs:      selection.Runs(sorted),
	}
	v.Selection.StartAt, v.Selection.EndAt, _ = selection.Span(sorted)
	return v
}

// cell ranks unavailable above selected; a selected cell that a newer
// snapshot blocks is still flagged Selected so the client can offer deselect.
func (c *Controller) cell(d time.Time, slot rules.TimeSlot) Cell {
	key := parse.FormatDate(d)
	selected := c.sel.IsSelected(key, slot.OpeningTime)
	cell := Cell{Date: key, Selected: selected}

	if c.loadErr != nil {
		cell.Status = availability.StatusUnknown
		if selected {
			cell.Status = availability.StatusSelected
		}
		return cell
	}
	if reason, blocked := c.snapshot.Lookup(d, slot, c.machine.ID); blocked {
		cell.Status = availability.StatusUnavailable
		cell.Reason = reason
		return cell
	}
	cell.Status = availability.StatusAvailable
	if selected {
		cell.Status = availability.StatusSelected
	}
	return cell
}
