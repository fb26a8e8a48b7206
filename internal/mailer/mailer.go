// Package mailer is the relay's single "send mail" entry point. It routes
// every request to the SimpleMail API, falls back to the default transport
// when the API is not configured, and raises a failure event on errors.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shineum/simplemail-relay/internal/email"
	"github.com/shineum/simplemail-relay/internal/provider"
	"github.com/shineum/simplemail-relay/internal/provider/simplemail"
)

// ErrNoTransport is returned when the API is not configured and no default
// transport is available.
var ErrNoTransport = errors.New("mailer: no mail transport configured")

// Result describes a delivered request.
type Result struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// Failure is the "mail failed" event raised for every unsuccessful send.
type Failure struct {
	ID       string
	To       []string
	Subject  string
	Provider string
	Message  string
	Err      error
}

// FailureHandler receives failure events. Handlers run synchronously in
// registration order.
type FailureHandler func(ctx context.Context, f Failure)

// Mailer dispatches mail-send requests. It is safe for concurrent use once
// constructed.
type Mailer struct {
	primary   provider.Provider
	fallback  provider.Provider
	onFailure []FailureHandler
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithFallback sets the default transport used when the primary provider
// reports simplemail.ErrNotConfigured.
func WithFallback(p provider.Provider) Option {
	return func(m *Mailer) {
		m.fallback = p
	}
}

// OnFailure registers a handler for failure events.
func OnFailure(h FailureHandler) Option {
	return func(m *Mailer) {
		m.onFailure = append(m.onFailure, h)
	}
}

// New creates a Mailer around the primary provider.
func New(primary provider.Provider, opts ...Option) *Mailer {
	m := &Mailer{primary: primary}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send delivers req through the primary provider, or through the fallback
// when the primary is not configured. Failures are reported to every
// registered FailureHandler before being returned.
func (m *Mailer) Send(ctx context.Context, req *email.SendRequest) (Result, error) {
	res := Result{ID: uuid.NewString(), Provider: m.primary.Name()}

	err := m.primary.Send(ctx, req)
	if errors.Is(err, simplemail.ErrNotConfigured) {
		if m.fallback == nil {
			err = ErrNoTransport
		} else {
			slog.Debug("simplemail not configured, using default transport",
				"id", res.ID,
				"provider", m.fallback.Name(),
			)
			res.Provider = m.fallback.Name()
			err = m.fallback.Send(ctx, req)
		}
	}

	if err != nil {
		m.fail(ctx, res, req, err)
		return res, err
	}

	slog.Info("mail sent",
		"id", res.ID,
		"provider", res.Provider,
		"recipients", len(req.To),
	)
	return res, nil
}

func (m *Mailer) fail(ctx context.Context, res Result, req *email.SendRequest, err error) {
	f := Failure{
		ID:       res.ID,
		To:       req.To,
		Subject:  req.Subject,
		Provider: res.Provider,
		Message:  fmt.Sprintf("failed to send mail via %s: %v", res.Provider, err),
		Err:      err,
	}
	for _, h := range m.onFailure {
		h(ctx, f)
	}
}

// DebugLogHandler returns a FailureHandler that logs failures, but only when
// both debug mode and debug logging are enabled.
func DebugLogHandler(logger *slog.Logger, debug, debugLog bool) FailureHandler {
	return func(ctx context.Context, f Failure) {
		if !debug || !debugLog {
			return
		}
		logger.ErrorContext(ctx, f.Message,
			"id", f.ID,
			"provider", f.Provider,
			"to", f.To,
			"subject", f.Subject,
		)
	}
}
