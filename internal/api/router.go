package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"equipment-booking-backend/config"
	"equipment-booking-backend/internal/metrics"
	"equipment-booking-backend/internal/mw"
)

// RouterOptions carries the cross-cutting pieces of the router.
type RouterOptions struct {
	Server   config.ServerConfig
	Logger   *zerolog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	// Forwarding headers are honoured only from configured proxies; with none
	// configured ClientIP is the peer address. Parse has validated the list.
	_ = r.SetTrustedProxies(opts.Server.TrustedProxies)
	if opts.Server.RequestIPHeader != "" {
		r.RemoteIPHeaders = []string{opts.Server.RequestIPHeader}
	}
	r.Use(gin.Recovery())
	if opts.Logger != nil {
		r.Use(mw.RequestLogger(opts.Logger, opts.Metrics))
	}

	r.GET("/healthz", h.Healthz)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	rateLimiter := mw.RateLimiter(rate.Limit(opts.Server.RateLimitPerSec), opts.Server.RateLimitBurst)

	// Machine rules change rarely.
	caching := mw.NewResponseCache(opts.Server.CacheTTL).Handler()

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/machines/:machine_id", caching, h.GetMachine)
		api.GET("/machines/:machine_id/slots", caching, h.GetMachineSlots)

		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:session_id", h.GetSession)
		api.DELETE("/sessions/:session_id", h.CloseSession)
		api.POST("/sessions/:session_id/week", h.NavigateWeek)
		api.POST("/sessions/:session_id/reload", h.ReloadWeek)
		api.POST("/sessions/:session_id/toggle", h.ToggleSlot)
		api.DELETE("/sessions/:session_id/selection", h.ClearSelection)
		api.POST("/sessions/:session_id/submit", h.SubmitBooking)

		api.GET("/push/vapid_public_key", h.GetVAPIDPublicKey)
		api.GET("/push/subscriptions", h.GetSubscription)
		api.PUT("/push/subscriptions", h.PutSubscription)
		api.DELETE("/push/subscriptions", h.DeleteSubscription)
	}

	return r
}
