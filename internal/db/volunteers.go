package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fridge/internal/models"
)

type VolunteerRepository struct {
	db *DB
}

func NewVolunteerRepository(db *DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

type CreateVolunteerParams struct {
	UserID       string
	FullName     string
	Email        string
	Phone        string
	Availability string
	Skills       string
	Experience   *string
	Motivation   *string
}

func (r *VolunteerRepository) Create(ctx context.Context, p CreateVolunteerParams) (*models.VolunteerApplication, error) {
	id, err := GenerateID("vol")
	if err != nil {
		return nil, fmt.Errorf("generating volunteer ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO volunteers (id, user_id, full_name, email, phone, availability, skills, experience, motivation, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.UserID, p.FullName, p.Email, p.Phone, p.Availability, p.Skills, p.Experience, p.Motivation, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating volunteer application: %w", err)
	}

	return &models.VolunteerApplication{
		ID:           id,
		UserID:       p.UserID,
		FullName:     p.FullName,
		Email:        p.Email,
		Phone:        p.Phone,
		Availability: p.Availability,
		Skills:       p.Skills,
		Experience:   p.Experience,
		Motivation:   p.Motivation,
		CreatedAt:    now,
	}, nil
}

// FindByUserID returns the user's application, or ErrNotFound when none
// exists. The submission pipeline relies on this as its precondition check.
func (r *VolunteerRepository) FindByUserID(ctx context.Context, userID string) (*models.VolunteerApplication, error) {
	var v models.VolunteerApplication
	var experience, motivation sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, full_name, email, phone, availability, skills, experience, motivation, created_at
         FROM volunteers WHERE user_id = ? ORDER BY created_at LIMIT 1`,
		userID,
	).Scan(&v.ID, &v.UserID, &v.FullName, &v.Email, &v.Phone, &v.Availability, &v.Skills, &experience, &motivation, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying volunteer application: %w", err)
	}

	v.Experience = nullStringToPtr(experience)
	v.Motivation = nullStringToPtr(motivation)

	return &v, nil
}

func (r *VolunteerRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM volunteers WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting volunteer applications: %w", err)
	}
	return count, nil
}

func (r *VolunteerRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM volunteers WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting volunteer applications: %w", err)
	}
	return nil
}
