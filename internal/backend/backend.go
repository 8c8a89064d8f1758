// Package backend hands booking drafts to the system that stores them.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"equipment-booking-backend/config"
	"equipment-booking-backend/internal/booking"
)

// Receipt is the backend's acknowledgement of a submitted draft.
type Receipt struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// UnmarshalJSON accepts the booking id as a JSON string or number.
func (r *Receipt) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     json.RawMessage `json:"id"`
		Status string          `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Status = raw.Status

	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0 || string(id) == "null":
		r.ID = ""
	case id[0] == '"':
		return json.Unmarshal(id, &r.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("receipt id: %w", err)
		}
		r.ID = n.String()
	}
	return nil
}

// Submitter delivers a draft to the booking backend.
type Submitter interface {
	Submit(ctx context.Context, d booking.Draft) (Receipt, error)
	Name() string
}

// New returns the submitter selected by cfg.Kind.
func New(cfg config.BackendConfig, logger *zerolog.Logger) (Submitter, error) {
	switch cfg.Kind {
	case "http":
		return NewHTTPSubmitter(cfg, logger), nil
	case "log", "":
		return NewLogSubmitter(logger), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Kind)
	}
}

// HTTPSubmitter POSTs the draft as JSON.
type HTTPSubmitter struct {
	url     string
	headers map[string]string
	http    *http.Client
	logger  *zerolog.Logger
}

func NewHTTPSubmitter(cfg config.BackendConfig, logger *zerolog.Logger) *HTTPSubmitter {
	return &HTTPSubmitter{
		url:     strings.TrimSpace(cfg.URL),
		headers: cfg.Headers,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (s *HTTPSubmitter) Name() string {
	return "booking-http"
}

func (s *HTTPSubmitter) Submit(ctx context.Context, d booking.Draft) (Receipt, error) {
	if s.url == "" {
		return Receipt{}, errors.New("booking backend url not configured")
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return Receipt{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range s.headers {
		if strings.TrimSpace(value) != "" {
			req.Header.Set(key, value)
		}
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return Receipt{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Receipt{}, fmt.Errorf("booking backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// A 2xx means the booking is stored; an unreadable body must not turn
	// into a rejection or a retry would book twice.
	var rc Receipt
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &rc); err != nil {
			s.logger.Warn().Err(err).
				Int("status", resp.StatusCode).
				Int64("machine_id", d.MachineID).
				Msg("booking accepted but response could not be decoded")
			rc = Receipt{}
		}
	}
	if rc.Status == "" {
		rc.Status = string(d.Status)
	}
	return rc, nil
}

// LogSubmitter only logs drafts. It accepts every submission.
type LogSubmitter struct {
	logger *zerolog.Logger
}

func NewLogSubmitter(logger *zerolog.Logger) *LogSubmitter {
	return &LogSubmitter{logger: logger}
}

func (s *LogSubmitter) Name() string {
	return "booking-log"
}

func (s *LogSubmitter) Submit(_ context.Context, d booking.Draft) (Receipt, error) {
	s.logger.Info().
		Int64("student_id", d.StudentID).
		Int64("machine_id", d.MachineID).
		Str("amount", d.AmountToBePaid).
		Str("start_at", d.StartAt).
		Str("end_at", d.EndAt).
		Int("slots", len(d.Slots)).
		Msg("booking submitted")
	return Receipt{Status: string(d.Status)}, nil
}
