// Package parser derives sender identity and plain-text content from the
// raw pieces of a mail-send request.
package parser

import (
	"regexp"
	"strings"

	"github.com/shineum/simplemail-relay/internal/email"
)

// fromPrefix is matched case-sensitively at the start of a header line.
const fromPrefix = "From:"

// namedAddress matches `Display Name <user@example.com>`.
var namedAddress = regexp.MustCompile(`^(.*)<(.+)>$`)

// ResolveSender returns the sender identity for a request. The first header
// line starting with "From:" overrides defaults; later lines are ignored.
// A `name <email>` value replaces both fields, anything else replaces only the
// email. `From: <jane@example.com>` has no display name, so it sets only the
// email and the default name is kept.
func ResolveSender(headers []string, defaults email.Sender) email.Sender {
	for _, line := range headers {
		if !strings.HasPrefix(line, fromPrefix) {
			continue
		}

		value := strings.TrimSpace(line[len(fromPrefix):])
		sender := defaults

		if m := namedAddress.FindStringSubmatch(value); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				sender.Name = name
			}
			sender.Email = strings.TrimSpace(m[2])
			return sender
		}

		sender.Email = value
		return sender
	}

	return defaults
}
