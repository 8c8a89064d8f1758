package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"equipment-booking-backend/config"
	"equipment-booking-backend/internal/booking"
	"equipment-booking-backend/internal/parse"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Notice announces a submitted booking to lab staff.
type Notice struct {
	MachineName string
	Draft       booking.Draft
}

// Message is the JSON payload delivered to the browser service worker.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Notice
	webpush *webpush.Options
	sender  NotificationSender
	logger  *zerolog.Logger

	mu   sync.Mutex
	subs []webpush.Subscription
}

// NewWorkerPool creates a new worker pool delivering to the configured subscribers.
func NewWorkerPool(cfg config.WorkerPoolConfig, push config.PushConfig, logger *zerolog.Logger) *WorkerPool {
	subs := make([]webpush.Subscription, 0, len(push.Subscribers))
	for _, s := range push.Subscribers {
		subs = append(subs, webpush.Subscription{
			Endpoint: s.Endpoint,
			Keys:     webpush.Keys{P256dh: s.P256dh, Auth: s.Auth},
		})
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = cfg.Size
	}
	return &WorkerPool{
		size: cfg.Size,
		jobs: make(chan Notice, queue),
		webpush: &webpush.Options{
			VAPIDPublicKey:  push.PublicKey,
			VAPIDPrivateKey: push.PrivateKey,
			Subscriber:      push.Subject,
			TTL:             push.TTL,
		},
		sender: &WebPushSender{},
		logger: logger,
		subs:   subs,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Debug().Int("worker", id).Msg("notification worker started")
	for {
		select {
		case n := <-wp.jobs:
			wp.notifyAll(n)
		case <-ctx.Done():
			wp.logger.Debug().Int("worker", id).Msg("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a notice without blocking. It reports false when the queue is full.
func (wp *WorkerPool) Dispatch(n Notice) bool {
	select {
	case wp.jobs <- n:
		return true
	default:
		wp.logger.Warn().Int64("machine_id", n.Draft.MachineID).Msg("notification queue full, dropping notice")
		return false
	}
}

// Subscribers returns the number of live subscriptions.
func (wp *WorkerPool) Subscribers() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return len(wp.subs)
}

// Subscribe adds a staff subscription or replaces the keys of an existing endpoint.
func (wp *WorkerPool) Subscribe(sub webpush.Subscription) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	for i := range wp.subs {
		if wp.subs[i].Endpoint == sub.Endpoint {
			wp.subs[i] = sub
			return
		}
	}
	wp.subs = append(wp.subs, sub)
}

// Unsubscribe removes an endpoint and reports whether it was present.
func (wp *WorkerPool) Unsubscribe(endpoint string) bool {
	if !wp.HasSubscriber(endpoint) {
		return false
	}
	wp.remove(endpoint)
	return true
}

// HasSubscriber reports whether endpoint receives notifications.
func (wp *WorkerPool) HasSubscriber(endpoint string) bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	for _, s := range wp.subs {
		if s.Endpoint == endpoint {
			return true
		}
	}
	return false
}

// VAPIDPublicKey returns the key browsers need to subscribe.
func (wp *WorkerPool) VAPIDPublicKey() string {
	return wp.webpush.VAPIDPublicKey
}

// Render builds the push message for a notice.
func Render(n Notice) Message {
	label := n.MachineName
	if label == "" {
		label = fmt.Sprintf("Machine %d", n.Draft.MachineID)
	}
	body := fmt.Sprintf("%d slot(s), %s", len(n.Draft.Slots), n.Draft.AmountToBePaid)
	if len(n.Draft.Slots) > 0 {
		first, last := n.Draft.Slots[0], n.Draft.Slots[len(n.Draft.Slots)-1]
		body = fmt.Sprintf("%d slot(s) from %s %s to %s %s, %s",
			len(n.Draft.Slots),
			first.SlotDate, parse.FormatClock(first.OpeningTime),
			last.SlotDate, parse.FormatClock(last.ClosingTime),
			n.Draft.AmountToBePaid)
	}
	return Message{Title: "New booking request: " + label, Body: body}
}

func (wp *WorkerPool) notifyAll(n Notice) {
	wp.mu.Lock()
	subs := make([]webpush.Subscription, len(wp.subs))
	copy(subs, wp.subs)
	wp.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(Render(n))
	if err != nil {
		wp.logger.Error().Err(err).Msg("failed to encode notification")
		return
	}

	wp.logger.Info().Int("subscribers", len(subs)).Int64("machine_id", n.Draft.MachineID).Msg("sending booking notifications")
	for i := range subs {
		wp.sendNotification(&subs[i], payload)
	}
}

func (wp *WorkerPool) sendNotification(sub *webpush.Subscription, payload []byte) {
	resp, err := wp.sender.Send(payload, sub, wp.webpush)
	if err != nil {
		wp.logger.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("error sending notification")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.logger.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired, removing")
		wp.remove(sub.Endpoint)
	}
}

func (wp *WorkerPool) remove(endpoint string) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	kept := wp.subs[:0]
	for _, s := range wp.subs {
		if s.Endpoint != endpoint {
			kept = append(kept, s)
		}
	}
	wp.subs = kept
}
