// Package intake runs the guarded submission pipelines: validate, check
// preconditions, persist, notify, then surface feedback and navigation.
// Notification dispatch is fire-and-forget; a persisted record is the point
// of no return.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fridge/internal/db"
	"fridge/internal/feedback"
	"fridge/internal/forms"
	"fridge/internal/models"
	"fridge/internal/nav"
)

// Dispatcher sends a coordinator notification without blocking or failing
// the submission.
type Dispatcher interface {
	Dispatch(subject, body string)
}

type DonationStore interface {
	Create(ctx context.Context, params db.CreateDonationParams) (*models.DonationRequest, error)
}

type DonationPipeline struct {
	store     DonationStore
	relay     Dispatcher
	sink      feedback.Sink
	navigator nav.Navigator
	logger    *slog.Logger
}

func NewDonationPipeline(store DonationStore, relay Dispatcher, sink feedback.Sink, navigator nav.Navigator) *DonationPipeline {
	return &DonationPipeline{
		store:     store,
		relay:     relay,
		sink:      sink,
		navigator: navigator,
		logger:    slog.Default().With("component", "intake"),
	}
}

// Submit runs one donation request through the pipeline.
func (p *DonationPipeline) Submit(ctx context.Context, identity *models.Identity, form forms.DonationForm) (*models.DonationRequest, error) {
	donation, fieldErrs := forms.ValidateDonation(form)
	if fieldErrs != nil {
		p.sink.Publish(feedback.Error("Please check the form for errors"))
		return nil, &ValidationError{Fields: fieldErrs}
	}

	record, err := p.store.Create(ctx, db.CreateDonationParams{
		UserID:           identity.ID,
		OrganizationName: donation.OrganizationName,
		ContactPerson:    donation.ContactPerson,
		Phone:            donation.Phone,
		FoodType:         donation.FoodType,
		Quantity:         donation.Quantity,
		PickupAddress:    donation.PickupAddress,
		PreferredTime:    donation.PreferredTime,
		AdditionalNotes:  donation.AdditionalNotes,
	})
	if err != nil {
		p.logger.Error("persisting donation failed", "user_id", identity.ID, "error", err)
		p.sink.Publish(feedback.Error("Failed to submit donation. Please try again."))
		return nil, &PersistenceError{Op: "creating donation", Err: err}
	}

	p.relay.Dispatch("New Donation Request - Community Fridge", donationBody(donation, identity))

	p.sink.Publish(feedback.Success("Thank you! Your donation request has been submitted successfully."))
	p.navigator.Navigate(nav.RouteProfile)
	return record, nil
}

func donationBody(d *forms.Donation, identity *models.Identity) string {
	lines := []string{
		"New Donation Request Submitted",
		"",
		"Organization: " + d.OrganizationName,
		"Contact Person: " + d.ContactPerson,
		"Phone: " + d.Phone,
		"Food Type: " + d.FoodType,
		"Quantity: " + d.Quantity,
		"Pickup Address: " + d.PickupAddress,
		"Preferred Time: " + orPlaceholder(d.PreferredTime, "Not specified"),
		"Additional Notes: " + orPlaceholder(d.AdditionalNotes, "None"),
		"",
		fmt.Sprintf("User Email: %s", identity.Email),
	}
	return strings.Join(lines, "\n")
}

func orPlaceholder(s *string, placeholder string) string {
	if s == nil || *s == "" {
		return placeholder
	}
	return *s
}
