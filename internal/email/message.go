// Package email defines the mail-send request model shared by the relay's
// inbound surfaces and delivery providers.
package email

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// ErrNoRecipients is returned when a request has no usable recipient address.
var ErrNoRecipients = errors.New("email: at least one recipient is required")

// SendRequest is a single generic mail-send request as handed over by the host.
type SendRequest struct {
	To       Recipients  `json:"to"`
	Subject  string      `json:"subject"`
	HTMLBody string      `json:"message"`
	Headers  HeaderLines `json:"headers,omitempty"`
}

// Validate checks the request preconditions.
func (r *SendRequest) Validate() error {
	if len(r.Addresses()) == 0 {
		return ErrNoRecipients
	}
	return nil
}

// Addresses returns the recipient addresses trimmed, with blank entries
// dropped. Every provider delivers to this list rather than To.
func (r *SendRequest) Addresses() []string {
	var out []string
	for _, addr := range r.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Recipients is an ordered list of recipient addresses. In JSON it may be
// given either as a single string or as an array of strings.
type Recipients []string

// UnmarshalJSON accepts "a@x.com" as well as ["a@x.com", "b@x.com"].
// A single string is never split on commas.
func (r *Recipients) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = Recipients{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("recipients must be a string or an array of strings: %w", err)
	}
	*r = list
	return nil
}

// HeaderLines is an ordered list of raw header lines such as "From: a@x.com".
// In JSON it may be a single newline-separated string or an array of lines.
type HeaderLines []string

var lineBreak = regexp.MustCompile(`\r?\n`)

// SplitHeaders normalizes a block of header text into individual lines.
// Both "\n" and "\r\n" separators are recognised.
func SplitHeaders(raw string) HeaderLines {
	if raw == "" {
		return nil
	}
	return lineBreak.Split(raw, -1)
}

// UnmarshalJSON accepts a header block string or an array of header lines.
func (h *HeaderLines) UnmarshalJSON(data []byte) error {
	var block string
	if err := json.Unmarshal(data, &block); err == nil {
		*h = SplitHeaders(block)
		return nil
	}

	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("headers must be a string or an array of strings: %w", err)
	}
	*h = lines
	return nil
}

// Sender is the resolved identity a message is sent from.
type Sender struct {
	Name  string
	Email string
}

// String renders the sender as an RFC 5322 address, e.g. `"Jane Doe" <jane@example.com>`.
func (s Sender) String() string {
	if s.Name == "" {
		return s.Email
	}
	addr := mail.Address{Name: s.Name, Address: s.Email}
	return addr.String()
}
