package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"equipment-booking-backend/config"
	"equipment-booking-backend/internal/availability"
	"equipment-booking-backend/internal/parse"
	"equipment-booking-backend/internal/rules"
)

// HTTPProvider reads machines and unavailability from an upstream booking API.
type HTTPProvider struct {
	baseURL string
	headers map[string]string
	client  *http.Client
	logger  *zerolog.Logger
}

// NewHTTPProvider creates a provider for cfg.BaseURL, honouring an optional proxy.
func NewHTTPProvider(cfg config.ProviderConfig, logger *zerolog.Logger) *HTTPProvider {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			logger.Warn().Err(err).Str("proxy", cfg.HTTPProxy).Msg("invalid proxy URL, provider will not use a proxy")
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: cfg.Headers,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}
}

// Machine fetches GET {base}/machines/{id}.
func (p *HTTPProvider) Machine(ctx context.Context, machineID int64) (rules.Machine, error) {
	endpoint := fmt.Sprintf("%s/machines/%d", p.baseURL, machineID)

	var m rules.Machine
	if err := p.getJSON(ctx, endpoint, &m); err != nil {
		return rules.Machine{}, err
	}
	if err := ValidateMachine(m); err != nil {
		return rules.Machine{}, err
	}
	return m, nil
}

// Unavailability fetches GET {base}/machines/{id}/unavailability?from=&to=.
// The upstream may answer with a single date-scoped record or a list of them.
func (p *HTTPProvider) Unavailability(ctx context.Context, machineID int64, from, to time.Time) (availability.Snapshot, error) {
	q := url.Values{}
	q.Set("from", parse.FormatDate(from))
	q.Set("to", parse.FormatDate(to))
	endpoint := fmt.Sprintf("%s/machines/%d/unavailability?%s", p.baseURL, machineID, q.Encode())

	var raw json.RawMessage
	if err := p.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	snap, err := decodeSnapshot(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateSnapshot(snap); err != nil {
		return nil, fmt.Errorf("invalid unavailability payload: %w", err)
	}
	p.logger.Debug().Int64("machine_id", machineID).Int("records", len(snap)).Msg("unavailability fetched")
	return snap, nil
}

func decodeSnapshot(raw json.RawMessage) (availability.Snapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var snap availability.Snapshot
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal unavailability list: %w", err)
		}
		return snap, nil
	}

	var rec availability.Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal unavailability record: %w", err)
	}
	return availability.Snapshot{rec}, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range p.headers {
		req.Header.Set(key, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrMachineNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
