// Package graph implements a Provider that sends mail via the Microsoft Graph API.
package graph

import (
	"github.com/shineum/simplemail-relay/internal/email"
	"github.com/shineum/simplemail-relay/internal/parser"
)

// sendMailRequest is the top-level request body for the Graph API sendMail endpoint.
type sendMailRequest struct {
	Message sendMailMessage `json:"message"`
}

// sendMailMessage represents the message portion of a sendMail request.
type sendMailMessage struct {
	Subject      string      `json:"subject"`
	Body         messageBody `json:"body"`
	ToRecipients []recipient `json:"toRecipients"`
	ReplyTo      []recipient `json:"replyTo,omitempty"`
}

type messageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type emailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// graphErrorResponse represents an error response from the Graph API.
type graphErrorResponse struct {
	Error graphError `json:"error"`
}

type graphError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// buildSendMailRequest converts a send request into a Graph sendMail body.
// Graph always sends from the configured mailbox, so a From header that
// names a different address is carried as the reply-to address.
func buildSendMailRequest(mailbox string, req *email.SendRequest) *sendMailRequest {
	body := messageBody{
		ContentType: "text",
		Content:     parser.StripMarkup(req.HTMLBody),
	}
	if req.HTMLBody != "" {
		body.ContentType = "html"
		body.Content = req.HTMLBody
	}

	addrs := req.Addresses()
	toRecipients := make([]recipient, 0, len(addrs))
	for _, addr := range addrs {
		toRecipients = append(toRecipients, recipient{
			EmailAddress: emailAddress{Address: addr},
		})
	}

	msg := sendMailMessage{
		Subject:      req.Subject,
		Body:         body,
		ToRecipients: toRecipients,
	}

	from := parser.ResolveSender(req.Headers, email.Sender{Email: mailbox})
	if from.Email != "" && from.Email != mailbox {
		msg.ReplyTo = []recipient{{
			EmailAddress: emailAddress{Address: from.Email, Name: from.Name},
		}}
	}

	return &sendMailRequest{Message: msg}
}
