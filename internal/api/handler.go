package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"equipment-booking-backend/internal/booking"
	"equipment-booking-backend/internal/provider"
	"equipment-booking-backend/internal/rules"
	"equipment-booking-backend/internal/session"
)

// StaffPush manages the browsers notified of new bookings.
type StaffPush interface {
	Subscribe(sub webpush.Subscription)
	Unsubscribe(endpoint string) bool
	HasSubscriber(endpoint string) bool
	VAPIDPublicKey() string
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	provider provider.Provider
	sessions *session.Registry
	push     StaffPush
	health   func(ctx context.Context) error
	logger   *zerolog.Logger
}

// NewHandler creates a new API handler. push and health may be nil.
func NewHandler(p provider.Provider, sessions *session.Registry, push StaffPush, health func(ctx context.Context) error, logger *zerolog.Logger) *Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Handler{
		provider: p,
		sessions: sessions,
		push:     push,
		health:   health,
		logger:   logger,
	}
}

// Healthz reports whether the service and its database are reachable.
func (h *Handler) Healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps domain errors onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid contact details", "fields": verr.Fields})
	case errors.Is(err, booking.ErrEmptySelection),
		errors.Is(err, session.ErrInvalidDate),
		errors.Is(err, session.ErrUnknownSlot),
		errors.Is(err, session.ErrInvalidDirection):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrSlotUnavailable),
		errors.Is(err, session.ErrAvailabilityUnknown),
		errors.Is(err, session.ErrNotVisible):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, provider.ErrMachineNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Machine not found"})
	case errors.Is(err, session.ErrSessionNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, session.ErrBackend):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Booking could not be submitted, please retry"})
	case errors.Is(err, rules.ErrInvalidRules):
		h.logger.Error().Err(err).Msg("machine is misconfigured")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Machine is misconfigured"})
	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
