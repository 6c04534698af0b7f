package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fitrelay/strava-discord/internal/models"
	"github.com/fitrelay/strava-discord/internal/services"
)

// Authorizer runs the OAuth flow against the upstream provider.
type Authorizer interface {
	BeginAuthorization() (string, error)
	CompleteAuthorization(ctx context.Context, code, state string) (*models.UserToken, error)
}

type AuthHandler struct {
	auth   Authorizer
	logger *zap.Logger
}

func NewAuthHandler(auth Authorizer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Start sends the browser to the upstream consent page with a signed
// state parameter.
func (h *AuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	consentURL, err := h.auth.BeginAuthorization()
	if err != nil {
		h.logger.Error("failed to begin authorization", zap.Error(err))
		http.Error(w, "authorization unavailable", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, consentURL, http.StatusFound)
}

// Callback is the OAuth redirect target: it exchanges the code and stores
// the athlete's tokens.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := h.auth.CompleteAuthorization(r.Context(), code, state)
	if errors.Is(err, services.ErrBadState) {
		h.logger.Warn("rejected authorization callback with bad state")
		http.Error(w, "invalid state", http.StatusForbidden)
		return
	}
	if err != nil {
		h.logger.Error("authorization failed", zap.Error(err))
		http.Error(w, "authorization failed", http.StatusBadGateway)
		return
	}

	h.logger.Info("authorization completed", zap.Int64("athlete_id", token.AthleteID))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<html><body><h1>Connected!</h1><p>Your activities will now be announced.</p></body></html>"))
}
