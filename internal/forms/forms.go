// Package forms holds the declarative validation schemas for the intake
// forms. Each Validate function returns either a trimmed, normalized record
// or a field-keyed map of human-readable error messages; all fields are
// checked before returning, and the first violation per field wins.
package forms

import (
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// Errors maps a form field name to its first validation failure.
type Errors map[string]string

var (
	formValidator = newValidator()
	textPolicy    = bluemonday.StrictPolicy()

	// International-dialing shape: optional +, 2-15 digits, first digit non-zero.
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()

	// Error maps are keyed by the JSON field names the frontend sends.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("intlphone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("registering intlphone validation: %v", err))
	}

	return v
}

type DonationForm struct {
	OrganizationName string `json:"organizationName" validate:"required,max=200"`
	ContactPerson    string `json:"contactPerson" validate:"required,max=100"`
	Phone            string `json:"phone" validate:"required,intlphone"`
	FoodType         string `json:"foodType" validate:"required,max=200"`
	Quantity         string `json:"quantity" validate:"required,max=100"`
	PickupAddress    string `json:"pickupAddress" validate:"required,max=500"`
	PreferredTime    string `json:"preferredTime" validate:"omitempty,max=100"`
	AdditionalNotes  string `json:"additionalNotes" validate:"omitempty,max=1000"`
}

// Donation is a validated donation record. Optional fields are nil when the
// submitted value was empty, never the empty string.
type Donation struct {
	OrganizationName string
	ContactPerson    string
	Phone            string
	FoodType         string
	Quantity         string
	PickupAddress    string
	PreferredTime    *string
	AdditionalNotes  *string
}

var donationLabels = map[string]string{
	"organizationName": "Organization name",
	"contactPerson":    "Contact person",
	"phone":            "Phone",
	"foodType":         "Food type",
	"quantity":         "Quantity",
	"pickupAddress":    "Pickup address",
	"preferredTime":    "Preferred time",
	"additionalNotes":  "Additional notes",
}

func ValidateDonation(raw DonationForm) (*Donation, Errors) {
	raw.OrganizationName = cleanText(raw.OrganizationName)
	raw.ContactPerson = cleanText(raw.ContactPerson)
	raw.Phone = cleanText(raw.Phone)
	raw.FoodType = cleanText(raw.FoodType)
	raw.Quantity = cleanText(raw.Quantity)
	raw.PickupAddress = cleanText(raw.PickupAddress)
	raw.PreferredTime = cleanText(raw.PreferredTime)
	raw.AdditionalNotes = cleanText(raw.AdditionalNotes)

	if err := formValidator.Struct(raw); err != nil {
		return nil, fieldErrors(err, donationLabels)
	}

	return &Donation{
		OrganizationName: raw.OrganizationName,
		ContactPerson:    raw.ContactPerson,
		Phone:            raw.Phone,
		FoodType:         raw.FoodType,
		Quantity:         raw.Quantity,
		PickupAddress:    raw.PickupAddress,
		PreferredTime:    optional(raw.PreferredTime),
		AdditionalNotes:  optional(raw.AdditionalNotes),
	}, nil
}

type VolunteerForm struct {
	FullName     string `json:"fullName" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email,max=254"`
	Phone        string `json:"phone" validate:"required,intlphone"`
	Availability string `json:"availability" validate:"required,max=200"`
	Skills       string `json:"skills" validate:"required,max=500"`
	Experience   string `json:"experience" validate:"omitempty,max=1000"`
	Motivation   string `json:"motivation" validate:"omitempty,max=1000"`
}

// Volunteer is a validated volunteer application. Optional fields are nil
// when the submitted value was empty.
type Volunteer struct {
	FullName     string
	Email        string
	Phone        string
	Availability string
	Skills       string
	Experience   *string
	Motivation   *string
}

var volunteerLabels = map[string]string{
	"fullName":     "Full name",
	"email":        "Email",
	"phone":        "Phone",
	"availability": "Availability",
	"skills":       "Skills",
	"experience":   "Experience",
	"motivation":   "Motivation",
}

func ValidateVolunteer(raw VolunteerForm) (*Volunteer, Errors) {
	raw.FullName = cleanText(raw.FullName)
	raw.Email = strings.ToLower(cleanText(raw.Email))
	raw.Phone = cleanText(raw.Phone)
	raw.Availability = cleanText(raw.Availability)
	raw.Skills = cleanText(raw.Skills)
	raw.Experience = cleanText(raw.Experience)
	raw.Motivation = cleanText(raw.Motivation)

	if err := formValidator.Struct(raw); err != nil {
		return nil, fieldErrors(err, volunteerLabels)
	}

	return &Volunteer{
		FullName:     raw.FullName,
		Email:        raw.Email,
		Phone:        raw.Phone,
		Availability: raw.Availability,
		Skills:       raw.Skills,
		Experience:   optional(raw.Experience),
		Motivation:   optional(raw.Motivation),
	}, nil
}

// cleanText trims whitespace and strips any HTML markup. The strict policy
// escapes entities, so the result is unescaped back to plain text.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fieldErrors(err error, labels map[string]string) Errors {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Errors{"form": "Invalid form submission"}
	}

	out := Errors{}
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := out[name]; seen {
			continue
		}

		label := labels[name]
		if label == "" {
			label = name
		}

		switch fe.Tag() {
		case "required":
			out[name] = label + " is required"
		case "max":
			out[name] = fmt.Sprintf("%s must be less than %s characters", label, fe.Param())
		case "intlphone":
			out[name] = "Please enter a valid phone number (e.g., +911234567890)"
		case "email":
			out[name] = "Please enter a valid email address"
		default:
			out[name] = label + " is invalid"
		}
	}
	return out
}
