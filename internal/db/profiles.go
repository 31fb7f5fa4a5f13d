package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fridge/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

type ProfileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a profile row keyed by the identity's id.
func (r *ProfileRepository) Create(ctx context.Context, userID, fullName, email string) (*models.Profile, error) {
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, full_name, email, created_at) VALUES (?, ?, ?, ?)`,
		userID, fullName, email, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	return &models.Profile{
		UserID:    userID,
		FullName:  fullName,
		Email:     email,
		CreatedAt: now,
	}, nil
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	var avatarURL sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, avatar_url, created_at FROM profiles WHERE id = ?`,
		userID,
	).Scan(&p.UserID, &p.FullName, &p.Email, &avatarURL, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	p.AvatarURL = nullStringToPtr(avatarURL)

	return &p, nil
}

// UpdateAvatarURL replaces the profile's avatar reference; nil clears it.
func (r *ProfileRepository) UpdateAvatarURL(ctx context.Context, userID string, avatarURL *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET avatar_url = ? WHERE id = ?`,
		avatarURL, userID,
	)
	if err != nil {
		return fmt.Errorf("updating avatar url: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return checkRowsAffected(result)
}
