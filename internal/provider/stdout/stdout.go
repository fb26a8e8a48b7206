// Package stdout implements a Provider that prints mail to standard output.
// It is the default transport when no delivery API is configured.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/simplemail-relay/internal/email"
	"github.com/shineum/simplemail-relay/internal/parser"
)

const separator = "========================================\n"

// Provider prints mail-send requests in a human-readable format.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer   io.Writer
	defaults email.Sender
}

// New creates a new stdout Provider that writes to os.Stdout.
func New(defaults email.Sender) *Provider {
	return &Provider{writer: os.Stdout, defaults: defaults}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer, defaults email.Sender) *Provider {
	return &Provider{writer: w, defaults: defaults}
}

// Send prints the request with its resolved sender and plain-text body.
// It always returns nil.
func (p *Provider) Send(_ context.Context, req *email.SendRequest) error {
	from := parser.ResolveSender(req.Headers, p.defaults)

	var b strings.Builder
	b.WriteString(separator)
	fmt.Fprintf(&b, "From: %s\n", from)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(req.Addresses(), ", "))
	fmt.Fprintf(&b, "Subject: %s\n", req.Subject)
	b.WriteString("Body:\n")
	b.WriteString(parser.StripMarkup(req.HTMLBody) + "\n")
	b.WriteString(separator)

	// Output failures are not delivery failures for this provider.
	_, _ = io.WriteString(p.writer, b.String())
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}
