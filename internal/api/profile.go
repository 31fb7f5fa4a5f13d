package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fridge/internal/blob"
	"fridge/internal/db"
	"fridge/internal/intake"
	"fridge/internal/models"
	"fridge/internal/session"
)

type ProfileHandler struct {
	profiles   *db.ProfileRepository
	donations  *db.DonationRepository
	volunteers *db.VolunteerRepository
	avatars    *intake.AvatarWorkflow
	assets     *blob.Service
	sessions   *session.Manager
}

func NewProfileHandler(
	profiles *db.ProfileRepository,
	donations *db.DonationRepository,
	volunteers *db.VolunteerRepository,
	avatars *intake.AvatarWorkflow,
	assets *blob.Service,
	sessions *session.Manager,
) *ProfileHandler {
	return &ProfileHandler{
		profiles:   profiles,
		donations:  donations,
		volunteers: volunteers,
		avatars:    avatars,
		assets:     assets,
		sessions:   sessions,
	}
}

type profileResponse struct {
	Profile        *models.Profile          `json:"profile"`
	VolunteerSince *time.Time               `json:"volunteerSince,omitempty"`
	Donations      []*models.DonationRequest `json:"donations"`
}

func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r)

	profile, err := h.profiles.FindByUserID(r.Context(), userID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Profile not found")
		return
	}
	if err != nil {
		internalError(w)
		return
	}

	resp := profileResponse{Profile: profile, Donations: []*models.DonationRequest{}}

	application, err := h.volunteers.FindByUserID(r.Context(), userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		internalError(w)
		return
	}
	if application != nil {
		resp.VolunteerSince = &application.CreatedAt
	}

	donations, err := h.donations.FindByUserID(r.Context(), userID)
	if err != nil {
		internalError(w)
		return
	}
	resp.Donations = donations

	writeJSON(w, http.StatusOK, resp)
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequest(w, "avatar file is required")
		return
	}
	defer file.Close()

	url, err := h.avatars.Replace(r.Context(), identityFromRequest(r), header.Filename, header.Size, file)
	if err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			writeFieldErrors(w, verr.Fields)
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatarUrl": url})
}

func (h *ProfileHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	if err := h.avatars.Remove(r.Context(), identityFromRequest(r)); err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			writeFieldErrors(w, verr.Fields)
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// DeleteAccount removes everything the user owns: volunteer applications,
// donation requests, avatar assets, the profile row, then the session.
func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r)

	if err := h.volunteers.DeleteByUserID(r.Context(), userID); err != nil {
		internalError(w)
		return
	}
	if err := h.donations.DeleteByUserID(r.Context(), userID); err != nil {
		internalError(w)
		return
	}
	if err := h.assets.DeleteAll(userID); err != nil {
		slog.Warn("deleting avatar assets during account deletion", "user_id", userID, "error", err)
	}
	if err := h.profiles.Delete(r.Context(), userID); err != nil && !errors.Is(err, db.ErrNotFound) {
		internalError(w)
		return
	}

	if err := h.sessions.SignOut(r.Context()); err != nil {
		slog.Warn("signing out during account deletion", "user_id", userID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Account deleted successfully",
	})
}
