package mailer

import (
	"github.com/shineum/simplemail-relay/internal/email"
)

const (
	testSubject = "SimpleMail test email"
	testBody    = "<p>This is a test email sent through the SimpleMail relay.</p>" +
		"<p>If you received it, delivery is working.</p>"
)

// NewTestRequest builds the fixed test message. It goes to the given address
// or, when empty, to the site admin address.
func NewTestRequest(to, adminEmail string) *email.SendRequest {
	if to == "" {
		to = adminEmail
	}
	return &email.SendRequest{
		To:       email.Recipients{to},
		Subject:  testSubject,
		HTMLBody: testBody,
	}
}
