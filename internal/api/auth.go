package api

import (
	"errors"
	"net/http"

	"fridge/internal/provider"
	"fridge/internal/session"
)

type AuthHandler struct {
	sessions *session.Manager
}

func NewAuthHandler(sessions *session.Manager) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := h.sessions.SignUp(r.Context(), req.Email, req.Password, req.FullName); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Check your email to confirm your account!",
	})
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := h.sessions.SignIn(r.Context(), req.Email, req.Password); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_in"})
}

type oauthRequest struct {
	Provider string `json:"provider" validate:"required"`
}

func (h *AuthHandler) SignInWithOAuth(w http.ResponseWriter, r *http.Request) {
	var req oauthRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	redirectURL, err := h.sessions.SignInWithOAuth(r.Context(), req.Provider)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": redirectURL})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// writeAuthError passes the provider's own message through so the user sees
// the real reason ("Invalid login credentials", "User already registered").
func writeAuthError(w http.ResponseWriter, err error) {
	var authErr *provider.AuthError
	if errors.As(err, &authErr) {
		status := authErr.Status
		if status < 400 || status >= 600 {
			status = http.StatusBadGateway
		}
		code := ErrCodeInvalidCredentials
		if status >= 500 {
			code = ErrCodeInternal
		}
		writeError(w, status, code, authErr.Message)
		return
	}
	internalError(w)
}
