package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fridge/internal/models"
)

type DonationRepository struct {
	db *DB
}

func NewDonationRepository(db *DB) *DonationRepository {
	return &DonationRepository{db: db}
}

type CreateDonationParams struct {
	UserID           string
	OrganizationName string
	ContactPerson    string
	Phone            string
	FoodType         string
	Quantity         string
	PickupAddress    string
	PreferredTime    *string
	AdditionalNotes  *string
}

func (r *DonationRepository) Create(ctx context.Context, p CreateDonationParams) (*models.DonationRequest, error) {
	id, err := GenerateID("don")
	if err != nil {
		return nil, fmt.Errorf("generating donation ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO donations (id, user_id, organization_name, contact_person, phone, food_type, quantity, pickup_address, preferred_time, additional_notes, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.UserID, p.OrganizationName, p.ContactPerson, p.Phone, p.FoodType, p.Quantity, p.PickupAddress, p.PreferredTime, p.AdditionalNotes, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating donation: %w", err)
	}

	return &models.DonationRequest{
		ID:               id,
		UserID:           p.UserID,
		OrganizationName: p.OrganizationName,
		ContactPerson:    p.ContactPerson,
		Phone:            p.Phone,
		FoodType:         p.FoodType,
		Quantity:         p.Quantity,
		PickupAddress:    p.PickupAddress,
		PreferredTime:    p.PreferredTime,
		AdditionalNotes:  p.AdditionalNotes,
		CreatedAt:        now,
	}, nil
}

func (r *DonationRepository) FindByUserID(ctx context.Context, userID string) ([]*models.DonationRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, organization_name, contact_person, phone, food_type, quantity, pickup_address, preferred_time, additional_notes, created_at
         FROM donations WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying donations: %w", err)
	}
	defer rows.Close()

	var donations []*models.DonationRequest
	for rows.Next() {
		var d models.DonationRequest
		var preferredTime, additionalNotes sql.NullString

		if err := rows.Scan(&d.ID, &d.UserID, &d.OrganizationName, &d.ContactPerson, &d.Phone, &d.FoodType, &d.Quantity, &d.PickupAddress, &preferredTime, &additionalNotes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning donation: %w", err)
		}

		d.PreferredTime = nullStringToPtr(preferredTime)
		d.AdditionalNotes = nullStringToPtr(additionalNotes)
		donations = append(donations, &d)
	}

	return donations, rows.Err()
}

func (r *DonationRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM donations WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting donations: %w", err)
	}
	return nil
}
