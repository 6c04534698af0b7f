package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fitrelay/strava-discord/internal/models"
)

// Receiver is the producer half of the relay.
type Receiver interface {
	Receive(ctx context.Context, event *models.WebhookEvent) error
}

// WebhookHandler serves the Strava subscription handshake and the inbound
// event feed. Strava retries aggressively on anything but a fast 200, so
// downstream failures after the dedup write are never surfaced here.
type WebhookHandler struct {
	relay       Receiver
	verifyToken string
	logger      *zap.Logger
}

func NewWebhookHandler(relay Receiver, verifyToken string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		relay:       relay,
		verifyToken: verifyToken,
		logger:      logger,
	}
}

// Verify answers the subscription validation request by echoing
// hub.challenge, but only when hub.verify_token matches our secret.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	challenge := query.Get("hub.challenge")
	verifyToken := query.Get("hub.verify_token")

	if challenge == "" || verifyToken != h.verifyToken {
		h.logger.Warn("webhook verification rejected",
			zap.Bool("challenge_present", challenge != ""))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	h.logger.Info("webhook verification challenge answered")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"hub.challenge": challenge})
}

// Receive accepts one webhook event. Malformed bodies are the only 4xx;
// a dedup-store failure is a 500 so Strava's retry redelivers the event.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var event models.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.Warn("rejecting malformed webhook body", zap.Error(err))
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.relay.Receive(r.Context(), &event); err != nil {
		h.logger.Error("failed to process webhook event", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Success"))
}
