// Package session owns one user's booking calendar: the visible week, the
// unavailability snapshot for it, and the selection that survives navigation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"equipment-booking-backend/internal/availability"
	"equipment-booking-backend/internal/backend"
	"equipment-booking-backend/internal/booking"
	"equipment-booking-backend/internal/metrics"
	"equipment-booking-backend/internal/notification"
	"equipment-booking-backend/internal/parse"
	"equipment-booking-backend/internal/provider"
	"equipment-booking-backend/internal/rules"
	"equipment-booking-backend/internal/selection"
)

var (
	ErrInvalidDate         = errors.New("invalid slot date")
	ErrUnknownSlot         = errors.New("slot is not part of the machine's schedule")
	ErrNotVisible          = errors.New("slot is not in the visible week")
	ErrAvailabilityUnknown = errors.New("availability is unknown for the visible week")
	ErrSlotUnavailable     = errors.New("slot is unavailable")
	ErrInvalidDirection    = errors.New("direction must be prev or next")
	ErrBackend             = errors.New("booking backend failed")
)

// Direction moves the visible week.
type Direction string

const (
	Prev Direction = "prev"
	Next Direction = "next"
)

// Notifier announces accepted bookings. notification.WorkerPool satisfies it.
type Notifier interface {
	Dispatch(n notification.Notice) bool
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Provider            provider.Provider
	Submitter           backend.Submitter
	Notifier            Notifier
	Metrics             *metrics.Metrics
	Logger              *zerolog.Logger
	Location            *time.Location
	ExtraTimeQuestionID int
	Now                 func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}
	if d.Logger == nil {
		nop := zerolog.Nop()
		d.Logger = &nop
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Controller serializes all input events of one booking session.
type Controller struct {
	mu   sync.Mutex
	id   string
	deps Deps

	machine  rules.Machine
	daySlots []rules.TimeSlot
	week     selection.Week
	sel      selection.Set
	snapshot availability.Snapshot
	loadErr  error
	ids      selection.IDSource
}

// Submission is the outcome of an accepted submit.
type Submission struct {
	Draft   booking.Draft   `json:"draft"`
	Receipt backend.Receipt `json:"receipt"`
}

// Open loads the machine, generates its day slots and loads the current week.
// A failed snapshot load does not fail Open; the week renders as unknown.
func Open(ctx context.Context, id string, machineID int64, deps Deps) (*Controller, error) {
	deps = deps.withDefaults()

	machine, err := deps.Provider.Machine(ctx, machineID)
	if err != nil {
		return nil, err
	}
	slots, err := rules.GenerateDaySlots(machine.Rules)
	if err != nil {
		return nil, fmt.Errorf("machine %d: %w", machineID, err)
	}

	c := &Controller{
		id:       id,
		deps:     deps,
		machine:  machine,
		daySlots: slots,
		week:     selection.WeekOf(deps.Now().In(deps.Location)),
	}
	c.load(ctx)
	return c, nil
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// load replaces the snapshot with the result of the newest fetch.
func (c *Controller) load(ctx context.Context) {
	start := time.Now()
	snap, err := c.deps.Provider.Unavailability(ctx, c.machine.ID, c.week.Start, c.week.End())
	c.deps.Metrics.ObserveSnapshotLoad(start, err)

	if err != nil {
		c.deps.Logger.Warn().Err(err).
			Str("session_id", c.id).
			Str("week", parse.FormatDate(c.week.Start)).
			Msg("unavailability load failed, week marked unknown")
		c.snapshot, c.loadErr = nil, err
		return
	}
	c.snapshot, c.loadErr = snap, nil
}

// Navigate moves the visible week and reloads its snapshot. The selection is untouched.
func (c *Controller) Navigate(ctx context.Context, dir Direction) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch dir {
	case Prev:
		c.week = c.week.Prev()
	case Next:
		c.week = c.week.Next()
	default:
		return View{}, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	c.load(ctx)
	return c.view(), nil
}

// Reload refetches the snapshot of the visible week, bypassing any cache.
func (c *Controller) Reload(ctx context.Context) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(provider.WithFreshRead(ctx))
	return c.view()
}

// Toggle selects or deselects the cell (date, opening). Deselecting is always
// allowed; selecting requires a visible, loaded and available cell.
func (c *Controller) Toggle(date, opening string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	day, err := parse.ParseDate(date, c.deps.Location)
	if err != nil {
		return View{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	slot, ok := rules.Find(c.daySlots, opening)
	if !ok {
		return View{}, fmt.Errorf("%w: %s", ErrUnknownSlot, opening)
	}

	if c.sel.IsSelected(date, opening) {
		c.sel = c.sel.Toggle(selection.Slot{SlotDate: date, OpeningTime: opening})
		c.deps.Metrics.Toggles.WithLabelValues("deselected").Inc()
		return c.view(), nil
	}

	if err := c.checkSelectable(day, slot); err != nil {
		c.deps.Metrics.Toggles.WithLabelValues("rejected").Inc()
		return View{}, err
	}

	c.sel = c.sel.Toggle(selection.Slot{
		ID:          c.ids.Next(),
		SlotDate:    date,
		MachineID:   c.machine.ID,
		OpeningTime: slot.OpeningTime,
		ClosingTime: slot.ClosingTime,
	})
	c.deps.Metrics.Toggles.WithLabelValues("selected").Inc()
	return c.view(), nil
}

func (c *Controller) checkSelectable(day time.Time, slot rules.TimeSlot) error {
	key := parse.FormatDate(day)
	if key < parse.FormatDate(c.week.Start) || key > parse.FormatDate(c.week.End()) {
		return fmt.Errorf("%w: %s", ErrNotVisible, key)
	}
	if c.loadErr != nil {
		return ErrAvailabilityUnknown
	}
	if reason, blocked := c.snapshot.Lookup(day, slot, c.machine.ID); blocked {
		if reason != "" {
			return fmt.Errorf("%w: %s", ErrSlotUnavailable, reason)
		}
		return ErrSlotUnavailable
	}
	return nil
}

// Reset clears the selection.
func (c *Controller) Reset() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = nil
	return c.view()
}

// View renders the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

// Submit validates the contact form, builds the draft and hands it to the
// backend. The selection is cleared only when the backend accepts it.
func (c *Controller) Submit(ctx context.Context, studentID int64, form booking.ContactForm) (Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	draft, err := booking.BuildDraft(booking.DraftInput{
		StudentID:           studentID,
		MachineID:           c.machine.ID,
		PerSlotCost:         c.machine.Rules.PerSlotCost,
		Selection:           c.sel,
		Form:                form,
		ExtraTimeQuestionID: c.deps.ExtraTimeQuestionID,
		Now:                 c.deps.Now(),
	})
	if err != nil {
		c.deps.Metrics.Submissions.WithLabelValues("invalid").Inc()
		return Submission{}, err
	}

	receipt, err := c.deps.Submitter.Submit(ctx, draft)
	if err != nil {
		c.deps.Metrics.Submissions.WithLabelValues("backend_error").Inc()
		c.deps.Logger.Error().Err(err).
			Str("session_id", c.id).
			Str("backend", c.deps.Submitter.Name()).
			Msg("booking submission failed, selection kept")
		return Submission{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	c.sel = nil
	c.deps.Metrics.Submissions.WithLabelValues("accepted").Inc()
	c.deps.Logger.Info().
		Str("session_id", c.id).
		Str("receipt_id", receipt.ID).
		Int("slots", len(draft.Slots)).
		Str("amount", draft.AmountToBePaid).
		Msg("booking accepted")

	if c.deps.Notifier != nil {
		c.deps.Notifier.Dispatch(notification.Notice{MachineName: c.machine.Name, Draft: draft})
	}
	return Submission{Draft: draft, Receipt: receipt}, nil
}
