package api

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fridge/internal/db"
	"fridge/internal/models"
	"fridge/internal/provider"
	"fridge/internal/session"
)

const webhookSecretHeader = "X-Webhook-Secret"

// WebhookHandler receives the auth events the identity provider pushes and
// injects them into the local event stream.
type WebhookHandler struct {
	secret   string
	client   *provider.Client
	profiles *db.ProfileRepository
}

func NewWebhookHandler(secret string, client *provider.Client, profiles *db.ProfileRepository) *WebhookHandler {
	return &WebhookHandler{secret: secret, client: client, profiles: profiles}
}

type webhookPayload struct {
	Event string `json:"event"`
	User  *struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at"`
		Metadata  struct {
			FullName string `json:"full_name"`
		} `json:"user_metadata"`
	} `json:"user"`
}

var webhookEventKinds = map[string]session.EventKind{
	"SIGNED_IN":         session.EventSignedIn,
	"SIGNED_OUT":        session.EventSignedOut,
	"PASSWORD_RECOVERY": session.EventPasswordRecovery,
	"TOKEN_REFRESHED":   session.EventTokenRefreshed,
	"USER_UPDATED":      session.EventUserUpdated,
}

func (h *WebhookHandler) HandleAuthEvent(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get(webhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		unauthorized(w, "Invalid webhook secret")
		return
	}

	var payload webhookPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		badRequest(w, err.Error())
		return
	}

	kind, ok := webhookEventKinds[payload.Event]
	if !ok {
		badRequest(w, "Unknown event kind")
		return
	}

	var identity *models.Identity
	if payload.User != nil && payload.User.ID != "" {
		identity = &models.Identity{
			ID:        payload.User.ID,
			Email:     payload.User.Email,
			CreatedAt: payload.User.CreatedAt,
		}
	}

	// First sign-in for a new account also materializes its profile row.
	if kind == session.EventSignedIn && identity != nil {
		fullName := payload.User.Metadata.FullName
		if _, err := h.profiles.Create(r.Context(), identity.ID, fullName, identity.Email); err != nil && !errors.Is(err, db.ErrDuplicate) {
			slog.Error("creating profile for signed-in user", "user_id", identity.ID, "error", err)
			internalError(w)
			return
		}
	}

	h.client.Deliver(session.Event{Kind: kind, Identity: identity})
	w.WriteHeader(http.StatusAccepted)
}
