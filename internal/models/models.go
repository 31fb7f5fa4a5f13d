package models

import "time"

// Identity is the read-only cached copy of the identity provider's user
// record. It is owned by the provider and replaced wholesale on every auth
// event; nothing in this codebase mutates it in place.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Profile struct {
	UserID    string    `json:"userId"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type DonationRequest struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	OrganizationName string    `json:"organizationName"`
	ContactPerson    string    `json:"contactPerson"`
	Phone            string    `json:"phone"`
	FoodType         string    `json:"foodType"`
	Quantity         string    `json:"quantity"`
	PickupAddress    string    `json:"pickupAddress"`
	PreferredTime    *string   `json:"preferredTime,omitempty"`
	AdditionalNotes  *string   `json:"additionalNotes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type VolunteerApplication struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Availability string    `json:"availability"`
	Skills       string    `json:"skills"`
	Experience   *string   `json:"experience,omitempty"`
	Motivation   *string   `json:"motivation,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
