package intake

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"fridge/internal/blob"
	"fridge/internal/models"
)

type fakeProfileStore struct {
	profile   *models.Profile
	findErr   error
	updateErr error
	updates   []*string
}

func (s *fakeProfileStore) FindByUserID(context.Context, string) (*models.Profile, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.profile, nil
}

func (s *fakeProfileStore) UpdateAvatarURL(_ context.Context, _ string, url *string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, url)
	s.profile.AvatarURL = url
	return nil
}

type fakeAssetStore struct {
	saveErr   error
	deleteErr error
	saved     []string
	deleted   []string
}

func (s *fakeAssetStore) Save(_ context.Context, userID, filename string, src io.Reader) (*blob.StoredAsset, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	io.Copy(io.Discard, src)
	path := userID + "/" + filename
	s.saved = append(s.saved, path)
	return &blob.StoredAsset{Path: path, MimeType: "image/png", SizeBytes: 42}, nil
}

func (s *fakeAssetStore) Delete(assetPath string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, assetPath)
	return nil
}

func testProfile(avatarURL *string) *models.Profile {
	return &models.Profile{
		UserID:    "usr_1",
		FullName:  "Priya Sharma",
		Email:     "priya@example.com",
		AvatarURL: avatarURL,
		CreatedAt: time.Now().Add(-24 * time.Hour),
	}
}

const testMaxAvatarBytes = 5 << 20

func pngReader(t *testing.T) io.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})

	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func newTestAvatarWorkflow(profiles *fakeProfileStore, assets *fakeAssetStore) (*AvatarWorkflow, *recordSink) {
	sink := &recordSink{}
	w := NewAvatarWorkflow(profiles, assets, sink, "http://localhost:8080", testMaxAvatarBytes)
	return w, sink
}

func TestAvatarReplaceSuccess(t *testing.T) {
	profiles := &fakeProfileStore{profile: testProfile(nil)}
	assets := &fakeAssetStore{}
	w, sink := newTestAvatarWorkflow(profiles, assets)

	url, err := w.Replace(context.Background(), testIdentity(), "photo.PNG", 1024, pngReader(t))
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/media/avatars/usr_1/") {
		t.Errorf("url = %q", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q, want lowercased extension", url)
	}

	if len(profiles.updates) != 1 || profiles.updates[0] == nil || *profiles.updates[0] != url {
		t.Errorf("updates = %+v, want [%q]", profiles.updates, url)
	}
	msgs := sink.all()
	if len(msgs) != 1 || msgs[0].Text != "Profile photo updated successfully!" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestAvatarReplaceDeletesPreviousAsset(t *testing.T) {
	old := "http://localhost:8080/media/avatars/usr_1/old.png"
	profiles := &fakeProfileStore{profile: testProfile(&old)}
	assets := &fakeAssetStore{}
	w, _ := newTestAvatarWorkflow(profiles, assets)

	if _, err := w.Replace(context.Background(), testIdentity(), "new.png", 1024, pngReader(t)); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if len(assets.deleted) != 1 || assets.deleted[0] != "usr_1/old.png" {
		t.Errorf("deleted = %v, want [usr_1/old.png]", assets.deleted)
	}
}

func TestAvatarReplaceOldDeleteFailureIsBestEffort(t *testing.T) {
	old := "http://localhost:8080/media/avatars/usr_1/old.png"
	profiles := &fakeProfileStore{profile: testProfile(&old)}
	assets := &fakeAssetStore{deleteErr: errors.New("backing store offline")}
	w, sink := newTestAvatarWorkflow(profiles, assets)

	if _, err := w.Replace(context.Background(), testIdentity(), "new.png", 1024, pngReader(t)); err != nil {
		t.Fatalf("Replace() error = %v, want success despite old-asset delete failure", err)
	}
	msgs := sink.all()
	if len(msgs) != 1 || msgs[0].Text != "Profile photo updated successfully!" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestAvatarReplaceOversizeRejectedBeforeStoreAccess(t *testing.T) {
	profiles := &fakeProfileStore{findErr: errors.New("must not be called")}
	assets := &fakeAssetStore{saveErr: errors.New("must not be called")}
	w, sink := newTestAvatarWorkflow(profiles, assets)

	_, err := w.Replace(context.Background(), testIdentity(), "big.png", 6<<20, bytes.NewReader(nil))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	msgs := sink.all()
	if len(msgs) != 1 || msgs[0].Text != "File size must be less than 5MB" {
		t.Errorf("messages = %+v", msgs)
	}
	if len(assets.saved) != 0 {
		t.Errorf("saved = %v, want none", assets.saved)
	}
}

func TestAvatarReplaceNonImageRejected(t *testing.T) {
	old := "http://localhost:8080/media/avatars/usr_1/old.png"
	profiles := &fakeProfileStore{profile: testProfile(&old)}
	assets := &fakeAssetStore{}
	w, sink := newTestAvatarWorkflow(profiles, assets)

	_, err := w.Replace(context.Background(), testIdentity(), "fake.png", 1024, bytes.NewReader([]byte("just some text")))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}

	// The rejected upload must leave the current avatar fully intact.
	if len(assets.deleted) != 0 {
		t.Errorf("deleted = %v, want none for rejected upload", assets.deleted)
	}
	if len(assets.saved) != 0 {
		t.Errorf("saved = %v, want none", assets.saved)
	}
	if len(profiles.updates) != 0 {
		t.Errorf("updates = %+v, want none", profiles.updates)
	}
	if profiles.profile.AvatarURL == nil || *profiles.profile.AvatarURL != old {
		t.Errorf("AvatarURL = %v, want unchanged %q", profiles.profile.AvatarURL, old)
	}
	msgs := sink.all()
	if len(msgs) != 1 || msgs[0].Text != "Please upload an image file" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestAvatarReplaceProfileUpdateFailureLeavesOrphan(t *testing.T) {
	profiles := &fakeProfileStore{profile: testProfile(nil), updateErr: errors.New("database locked")}
	assets := &fakeAssetStore{}
	w, sink := newTestAvatarWorkflow(profiles, assets)

	_, err := w.Replace(context.Background(), testIdentity(), "photo.png", 1024, pngReader(t))
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PersistenceError", err)
	}

	// The asset was stored and stays stored; no compensating delete runs.
	if len(assets.saved) != 1 {
		t.Errorf("saved = %v, want one orphaned asset", assets.saved)
	}
	if len(assets.deleted) != 0 {
		t.Errorf("deleted = %v, want none", assets.deleted)
	}
	msgs := sink.all()
	if len(msgs) != 1 || msgs[0].Text != "Failed to upload photo. Please try again." {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestAvatarRemoveSuccess(t *testing.T) {
	old := "http://localhost:8080/media/avatars/usr_1/old.png"
	profiles := &fakeProfileStore{profile: testProfile(&old)}
	assets := &fakeAssetStore{}
	w, sink := newTestAvatarWorkflow(profiles, assets)

	if err := w.Remove(context.Background(), testIdentity()); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(assets.deleted) != 1 || assets.deleted[0] != "usr_1/old.png" {
		t.Errorf("deleted = %v", assets.deleted)
	}
	if len(profiles.updates) != 1 || profiles.updates[0] != nil {
		t.Errorf("updates = %+v, want [nil]", profiles.updates)
	}
	msgs := sink.all()
	if len(msgs) != 1 || msgs[0].Text != "Profile photo removed successfully!" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestAvatarRemoveWithoutPhotoIsNoop(t *testing.T) {
	profiles := &fakeProfileStore{profile: testProfile(nil)}
	assets := &fakeAssetStore{}
	w, sink := newTestAvatarWorkflow(profiles, assets)

	if err := w.Remove(context.Background(), testIdentity()); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(profiles.updates) != 0 || len(assets.deleted) != 0 {
		t.Errorf("updates = %+v, deleted = %v, want no activity", profiles.updates, assets.deleted)
	}
	if len(sink.all()) != 0 {
		t.Errorf("messages = %+v, want none", sink.all())
	}
}
