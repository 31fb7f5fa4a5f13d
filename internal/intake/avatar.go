package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"fridge/internal/blob"
	"fridge/internal/feedback"
	"fridge/internal/forms"
	"fridge/internal/mediaurl"
	"fridge/internal/models"
)

type ProfileStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	UpdateAvatarURL(ctx context.Context, userID string, url *string) error
}

type AssetStore interface {
	Save(ctx context.Context, userID, filename string, src io.Reader) (*blob.StoredAsset, error)
	Delete(assetPath string) error
}

// AvatarWorkflow replaces or removes a profile photo: delete the old asset
// best-effort, store the new one, update the profile reference last.
type AvatarWorkflow struct {
	profiles ProfileStore
	assets   AssetStore
	sink     feedback.Sink
	baseURL  string
	maxBytes int64
	logger   *slog.Logger
}

func NewAvatarWorkflow(profiles ProfileStore, assets AssetStore, sink feedback.Sink, baseURL string, maxBytes int64) *AvatarWorkflow {
	return &AvatarWorkflow{
		profiles: profiles,
		assets:   assets,
		sink:     sink,
		baseURL:  baseURL,
		maxBytes: maxBytes,
		logger:   slog.Default().With("component", "intake"),
	}
}

// Replace validates the upload, swaps the stored asset, and points the
// profile at the new URL. The file-shape checks (size, content type) run
// before any store access; a rejected upload leaves the current avatar
// untouched.
func (w *AvatarWorkflow) Replace(ctx context.Context, identity *models.Identity, filename string, size int64, src io.Reader) (string, error) {
	if size > w.maxBytes {
		w.sink.Publish(feedback.Error("File size must be less than 5MB"))
		return "", &ValidationError{Fields: forms.Errors{"avatar": "File size must be less than 5MB"}}
	}

	_, content, err := blob.SniffImage(src)
	if err != nil {
		if errors.Is(err, blob.ErrNotImage) {
			w.sink.Publish(feedback.Error("Please upload an image file"))
			return "", &ValidationError{Fields: forms.Errors{"avatar": "Please upload an image file"}}
		}
		w.sink.Publish(feedback.Error("Failed to upload photo. Please try again."))
		return "", &PersistenceError{Op: "reading avatar upload", Err: err}
	}

	profile, err := w.profiles.FindByUserID(ctx, identity.ID)
	if err != nil {
		w.sink.Publish(feedback.Error("Failed to upload photo. Please try again."))
		return "", &PersistenceError{Op: "loading profile", Err: err}
	}

	// The old asset is deleted up front; if anything later fails, the user
	// is left without a photo rather than with a stale one.
	w.deleteCurrentAsset(profile)

	storedName := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	stored, err := w.assets.Save(ctx, identity.ID, storedName, io.LimitReader(content, w.maxBytes+1))
	if err != nil {
		if errors.Is(err, blob.ErrFileTooLarge) {
			w.sink.Publish(feedback.Error("File size must be less than 5MB"))
			return "", &ValidationError{Fields: forms.Errors{"avatar": "File size must be less than 5MB"}}
		}
		w.sink.Publish(feedback.Error("Failed to upload photo. Please try again."))
		return "", &PersistenceError{Op: "storing avatar", Err: err}
	}

	url := mediaurl.Avatar(w.baseURL, stored.Path)
	if err := w.profiles.UpdateAvatarURL(ctx, identity.ID, &url); err != nil {
		// The uploaded asset is now orphaned; log it rather than attempt a
		// compensating delete that could also fail.
		w.logger.Error("avatar uploaded but profile update failed, asset orphaned",
			"user_id", identity.ID, "asset_path", stored.Path, "error", err)
		w.sink.Publish(feedback.Error("Failed to upload photo. Please try again."))
		return "", &PersistenceError{Op: "updating profile avatar", Err: err}
	}

	w.sink.Publish(feedback.Success("Profile photo updated successfully!"))
	return url, nil
}

// Remove deletes the current photo and clears the profile reference. Removing
// when no photo is set is a no-op.
func (w *AvatarWorkflow) Remove(ctx context.Context, identity *models.Identity) error {
	profile, err := w.profiles.FindByUserID(ctx, identity.ID)
	if err != nil {
		w.sink.Publish(feedback.Error("Failed to remove photo. Please try again."))
		return &PersistenceError{Op: "loading profile", Err: err}
	}
	if profile.AvatarURL == nil {
		return nil
	}

	w.deleteCurrentAsset(profile)

	if err := w.profiles.UpdateAvatarURL(ctx, identity.ID, nil); err != nil {
		w.sink.Publish(feedback.Error("Failed to remove photo. Please try again."))
		return &PersistenceError{Op: "clearing profile avatar", Err: err}
	}

	w.sink.Publish(feedback.Success("Profile photo removed successfully!"))
	return nil
}

func (w *AvatarWorkflow) deleteCurrentAsset(profile *models.Profile) {
	if profile.AvatarURL == nil {
		return
	}
	assetPath, ok := mediaurl.ParseAssetPath(*profile.AvatarURL)
	if !ok {
		w.logger.Warn("stored avatar url is not a managed asset, skipping delete",
			"user_id", profile.UserID, "avatar_url", *profile.AvatarURL)
		return
	}
	if err := w.assets.Delete(assetPath); err != nil {
		w.logger.Warn("deleting previous avatar failed",
			"user_id", profile.UserID, "asset_path", assetPath, "error", err)
	}
}
