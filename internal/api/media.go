package api

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fridge/internal/blob"
)

type MediaHandler struct {
	assets *blob.Service
}

func NewMediaHandler(assets *blob.Service) *MediaHandler {
	return &MediaHandler{assets: assets}
}

// GetAvatar serves a stored avatar. Asset filenames are random, so content
// is immutable and cached hard.
func (h *MediaHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	filename := strings.TrimSpace(chi.URLParam(r, "filename"))
	if userID == "" || filename == "" {
		notFound(w, "Media not found")
		return
	}

	file, err := h.assets.Open(userID + "/" + filename)
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, blob.ErrInvalidPath) {
		notFound(w, "Media not found")
		return
	}
	if err != nil {
		internalError(w)
		return
	}
	defer file.Close()

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

	modTime := time.Time{}
	if info, err := file.Stat(); err == nil {
		modTime = info.ModTime()
	}
	http.ServeContent(w, r, filename, modTime, file)
}
