package simplemail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shineum/simplemail-relay/internal/email"
)

// DefaultEndpoint is the SimpleMail send endpoint.
const DefaultEndpoint = "https://api.simplemailservice.eu/v1/email/send"

// apiKeyHeader carries the account API key on every request.
const apiKeyHeader = "X-Api-Key"

// maxErrorBody bounds how much of an error response is kept for StatusError.
const maxErrorBody = 4096

// ErrNotConfigured is returned when no API key is set. No request is made;
// callers are expected to fall back to their default transport.
var ErrNotConfigured = errors.New("simplemail: api key not configured")

// Config holds the configuration for creating a Provider.
type Config struct {
	// APIKey authenticates against the SimpleMail API. Empty disables the provider.
	APIKey string

	// Defaults is the sender identity used unless a From header overrides it.
	Defaults email.Sender

	// Endpoint overrides DefaultEndpoint.
	Endpoint string

	// Timeout bounds a single API call. Zero means no client-side timeout.
	Timeout time.Duration

	// CheckStatus makes non-2xx responses fail. When false any response
	// that reaches the client counts as delivered.
	CheckStatus bool
}

// Provider sends mail through the SimpleMail API. It holds no mutable state
// and is safe for concurrent use.
type Provider struct {
	apiKey      string
	defaults    email.Sender
	endpoint    string
	checkStatus bool
	httpClient  *http.Client
}

// New creates a Provider with the given configuration.
func New(cfg Config) *Provider {
	return newWithClient(cfg, &http.Client{Timeout: cfg.Timeout})
}

// newWithClient creates a Provider with a custom HTTP client, used for testing.
func newWithClient(cfg Config, client *http.Client) *Provider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Provider{
		apiKey:      cfg.APIKey,
		defaults:    cfg.Defaults,
		endpoint:    endpoint,
		checkStatus: cfg.CheckStatus,
		httpClient:  client,
	}
}

// Configured reports whether an API key is set.
func (p *Provider) Configured() bool {
	return p.apiKey != ""
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "simplemail"
}

// Send builds the envelope for req and posts it to the API in a single
// synchronous call. There is no retry.
func (p *Provider) Send(ctx context.Context, req *email.SendRequest) error {
	if !p.Configured() {
		return ErrNotConfigured
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("simplemail: %w", err)
	}

	body, err := buildEnvelope(req, p.defaults).encode()
	if err != nil {
		return fmt.Errorf("simplemail: failed to marshal envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("simplemail: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("simplemail API responded",
		"status", resp.StatusCode,
		"recipients", len(req.Addresses()),
	)

	if p.checkStatus && resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// TransportError reports that the API call failed before any response was
// received (DNS, connect, TLS, timeout, cancelled context).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("simplemail: API request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports a 4xx/5xx API response. It is only produced when
// status checking is enabled.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("simplemail: API error (HTTP %d): %s", e.StatusCode, e.Body)
}
