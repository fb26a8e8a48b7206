package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/simplemail-relay/internal/email"
	"github.com/shineum/simplemail-relay/internal/mailer"
)

type testRequest struct {
	To string `json:"to"`
}

// handleSend relays a mail-send request. 202 on success, 502 when delivery
// fails; the failure itself has already been reported by the mailer.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req email.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.deliver(w, r, &req)
}

// handleTest sends the fixed test message to the given or admin address.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	var body testRequest
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req := mailer.NewTestRequest(body.To, s.config.AdminEmail)
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "no test recipient given and no admin email configured")
		return
	}

	s.deliver(w, r, req)
}

func (s *Server) deliver(w http.ResponseWriter, r *http.Request, req *email.SendRequest) {
	res, err := s.config.Sender.Send(r.Context(), req)
	if err != nil {
		slog.Warn("mail delivery failed",
			"request_id", middleware.GetReqID(r.Context()),
			"id", res.ID,
			"error", err,
		)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, res)
}
