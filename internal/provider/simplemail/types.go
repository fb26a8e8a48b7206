// Package simplemail implements a Provider that relays mail through the
// SimpleMail transactional-email REST API.
package simplemail

import (
	"bytes"
	"encoding/json"

	"github.com/shineum/simplemail-relay/internal/email"
	"github.com/shineum/simplemail-relay/internal/parser"
)

// envelope is the request body for the SimpleMail send endpoint.
type envelope struct {
	From       address     `json:"from"`
	Recipients []recipient `json:"recipients"`
	Content    content     `json:"content"`
}

// address is the sender identity of an envelope.
type address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type recipient struct {
	Email string `json:"email"`
}

// content carries the subject and both renderings of the body.
type content struct {
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body"`
}

// buildEnvelope converts a send request into a SimpleMail envelope.
// The text body is always derived from the HTML body.
func buildEnvelope(req *email.SendRequest, defaults email.Sender) *envelope {
	sender := parser.ResolveSender(req.Headers, defaults)

	addrs := req.Addresses()
	recipients := make([]recipient, 0, len(addrs))
	for _, addr := range addrs {
		recipients = append(recipients, recipient{Email: addr})
	}

	return &envelope{
		From: address{
			Name:  sender.Name,
			Email: sender.Email,
		},
		Recipients: recipients,
		Content: content{
			Subject:  req.Subject,
			TextBody: parser.StripMarkup(req.HTMLBody),
			HTMLBody: req.HTMLBody,
		},
	}
}

// encode serializes the envelope without escaping markup in the HTML body.
func (e *envelope) encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
