package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestProfileCreateAndFind(t *testing.T) {
	database := openTestDB(t)
	repo := NewProfileRepository(database)

	created, err := repo.Create(context.Background(), "usr_1", "Priya Sharma", "priya@example.com")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Error("Create() did not assign a creation timestamp")
	}

	found, err := repo.FindByUserID(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("FindByUserID() error = %v", err)
	}
	if found.FullName != "Priya Sharma" || found.Email != "priya@example.com" {
		t.Errorf("profile = %+v", found)
	}
	if found.AvatarURL != nil {
		t.Errorf("AvatarURL = %v, want nil", *found.AvatarURL)
	}
}

func TestProfileCreateDuplicateReturnsErrDuplicate(t *testing.T) {
	database := openTestDB(t)
	repo := NewProfileRepository(database)

	if _, err := repo.Create(context.Background(), "usr_1", "Priya", "priya@example.com"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.Create(context.Background(), "usr_1", "Priya", "priya@example.com"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create() error = %v, want ErrDuplicate", err)
	}
}

func TestProfileUpdateAvatarURL(t *testing.T) {
	database := openTestDB(t)
	repo := NewProfileRepository(database)

	if _, err := repo.Create(context.Background(), "usr_1", "Priya", "priya@example.com"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	url := "http://localhost:8080/media/avatars/usr_1/a.png"
	if err := repo.UpdateAvatarURL(context.Background(), "usr_1", &url); err != nil {
		t.Fatalf("UpdateAvatarURL() error = %v", err)
	}

	found, err := repo.FindByUserID(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("FindByUserID() error = %v", err)
	}
	if found.AvatarURL == nil || *found.AvatarURL != url {
		t.Errorf("AvatarURL = %v, want %q", found.AvatarURL, url)
	}

	if err := repo.UpdateAvatarURL(context.Background(), "usr_1", nil); err != nil {
		t.Fatalf("UpdateAvatarURL(nil) error = %v", err)
	}
	found, err = repo.FindByUserID(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("FindByUserID() error = %v", err)
	}
	if found.AvatarURL != nil {
		t.Errorf("AvatarURL = %v, want cleared", *found.AvatarURL)
	}
}

func TestProfileUpdateAvatarURLMissingProfile(t *testing.T) {
	database := openTestDB(t)
	repo := NewProfileRepository(database)

	url := "http://example.com/a.png"
	if err := repo.UpdateAvatarURL(context.Background(), "usr_missing", &url); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateAvatarURL() error = %v, want ErrNotFound", err)
	}
}

func TestDonationCreateStoresOptionalFieldsAsNull(t *testing.T) {
	database := openTestDB(t)
	repo := NewDonationRepository(database)

	created, err := repo.Create(context.Background(), CreateDonationParams{
		UserID:           "usr_1",
		OrganizationName: "Sunrise Bakery",
		ContactPerson:    "Priya",
		Phone:            "+911234567890",
		FoodType:         "Bread",
		Quantity:         "20 kg",
		PickupAddress:    "12 Market Street",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.PreferredTime != nil || created.AdditionalNotes != nil {
		t.Errorf("optional fields = (%v, %v), want nil", created.PreferredTime, created.AdditionalNotes)
	}

	donations, err := repo.FindByUserID(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("FindByUserID() error = %v", err)
	}
	if len(donations) != 1 {
		t.Fatalf("len(donations) = %d, want 1", len(donations))
	}
	if donations[0].PreferredTime != nil {
		t.Errorf("PreferredTime = %v, want nil", *donations[0].PreferredTime)
	}
}

func TestVolunteerFindByUserIDNotFound(t *testing.T) {
	database := openTestDB(t)
	repo := NewVolunteerRepository(database)

	if _, err := repo.FindByUserID(context.Background(), "usr_none"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByUserID() error = %v, want ErrNotFound", err)
	}
}

func TestVolunteerCreateAndFind(t *testing.T) {
	database := openTestDB(t)
	repo := NewVolunteerRepository(database)

	skills := "Driving"
	created, err := repo.Create(context.Background(), CreateVolunteerParams{
		UserID:       "usr_1",
		FullName:     "Arjun Mehta",
		Email:        "arjun@example.com",
		Phone:        "+911234567890",
		Availability: "Weekends",
		Skills:       skills,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := repo.FindByUserID(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("FindByUserID() error = %v", err)
	}
	if found.ID != created.ID || found.Skills != skills {
		t.Errorf("application = %+v", found)
	}

	count, err := repo.CountByUserID(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("CountByUserID() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestVolunteerDeleteByUserID(t *testing.T) {
	database := openTestDB(t)
	repo := NewVolunteerRepository(database)

	if _, err := repo.Create(context.Background(), CreateVolunteerParams{
		UserID: "usr_1", FullName: "A", Email: "a@example.com", Phone: "+911234567890", Availability: "Weekends", Skills: "Cooking",
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.DeleteByUserID(context.Background(), "usr_1"); err != nil {
		t.Fatalf("DeleteByUserID() error = %v", err)
	}
	if _, err := repo.FindByUserID(context.Background(), "usr_1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByUserID() after delete error = %v, want ErrNotFound", err)
	}
}
