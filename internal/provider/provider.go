// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/shineum/simplemail-relay/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// The SimpleMail API adapter is the primary provider; stdout, SES and Graph
// act as default transports when the API is not configured.
type Provider interface {
	// Send delivers a mail-send request through this provider.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, req *email.SendRequest) error

	// Name returns the human-readable name of this provider.
	Name() string
}
