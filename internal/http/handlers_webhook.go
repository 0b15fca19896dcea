package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"financas/internal/service"
)

// tictoPayload mirrors the delivery shapes the payment platform has been
// observed sending; the buyer email moves between fields across event kinds.
type tictoPayload struct {
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
	Buyer struct {
		Email string `json:"email"`
	} `json:"buyer"`
	Data struct {
		Customer struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

func (p tictoPayload) email() string {
	if p.Customer.Email != "" {
		return p.Customer.Email
	}
	if p.Buyer.Email != "" {
		return p.Buyer.Email
	}
	return p.Data.Customer.Email
}

type webhookResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// handleTictoWebhook provisions an account for a completed purchase. The
// endpoint is unauthenticated; replayed deliveries for a known email are
// acknowledged as success so the platform stops retrying.
func (s *Server) handleTictoWebhook(w http.ResponseWriter, r *http.Request) {
	var payload tictoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid payload")
		return
	}

	email := payload.email()
	if email == "" {
		writeError(w, r, http.StatusBadRequest, "missing customer email")
		return
	}

	created, err := s.accounts.Provision(r.Context(), email)
	if errors.Is(err, service.ErrInvalidEmail) {
		writeError(w, r, http.StatusBadRequest, "invalid customer email")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Webhook provisioning failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "provisioning failed")
		return
	}

	status := "exists"
	if created {
		status = "created"
	}
	writeJSON(w, http.StatusOK, webhookResponse{Success: true, Status: status})
}
