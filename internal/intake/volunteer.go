package intake

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fridge/internal/db"
	"fridge/internal/feedback"
	"fridge/internal/forms"
	"fridge/internal/models"
	"fridge/internal/nav"
)

// profileRedirectDelay gives the user time to read the toast before the
// profile view replaces the form.
const profileRedirectDelay = 2 * time.Second

type VolunteerStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.VolunteerApplication, error)
	Create(ctx context.Context, params db.CreateVolunteerParams) (*models.VolunteerApplication, error)
}

type VolunteerPipeline struct {
	store     VolunteerStore
	relay     Dispatcher
	sink      feedback.Sink
	navigator nav.Navigator
	logger    *slog.Logger

	// after schedules the delayed profile redirect; tests swap it so they
	// run without waiting.
	after func(time.Duration, func())
}

func NewVolunteerPipeline(store VolunteerStore, relay Dispatcher, sink feedback.Sink, navigator nav.Navigator) *VolunteerPipeline {
	return &VolunteerPipeline{
		store:     store,
		relay:     relay,
		sink:      sink,
		navigator: navigator,
		logger:    slog.Default().With("component", "intake"),
		after:     func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// Submit runs one volunteer application through the pipeline. At most one
// application per user: the precondition check queries the store up front,
// and a second submission aborts with ErrAlreadyApplied before any write.
func (p *VolunteerPipeline) Submit(ctx context.Context, identity *models.Identity, form forms.VolunteerForm) (*models.VolunteerApplication, error) {
	volunteer, fieldErrs := forms.ValidateVolunteer(form)
	if fieldErrs != nil {
		p.sink.Publish(feedback.Error("Please check the form for errors"))
		return nil, &ValidationError{Fields: fieldErrs}
	}

	_, err := p.store.FindByUserID(ctx, identity.ID)
	switch {
	case err == nil:
		p.sink.Publish(feedback.Error("You have already volunteered. You can only volunteer once per account."))
		p.after(profileRedirectDelay, func() { p.navigator.Navigate(nav.RouteProfile) })
		return nil, ErrAlreadyApplied
	case !errors.Is(err, db.ErrNotFound):
		p.logger.Error("checking existing application failed", "user_id", identity.ID, "error", err)
		p.sink.Publish(feedback.Error("Failed to submit application. Please try again."))
		return nil, &PersistenceError{Op: "checking existing application", Err: err}
	}

	record, err := p.store.Create(ctx, db.CreateVolunteerParams{
		UserID:       identity.ID,
		FullName:     volunteer.FullName,
		Email:        volunteer.Email,
		Phone:        volunteer.Phone,
		Availability: volunteer.Availability,
		Skills:       volunteer.Skills,
		Experience:   volunteer.Experience,
		Motivation:   volunteer.Motivation,
	})
	if err != nil {
		p.logger.Error("persisting volunteer application failed", "user_id", identity.ID, "error", err)
		p.sink.Publish(feedback.Error("Failed to submit application. Please try again."))
		return nil, &PersistenceError{Op: "creating volunteer application", Err: err}
	}

	p.relay.Dispatch("New Volunteer Application - Community Fridge", volunteerBody(volunteer, identity))

	p.sink.Publish(feedback.Message{
		Level:      feedback.LevelSuccess,
		Text:       "You are Volunteered Successfully!",
		DurationMs: int(profileRedirectDelay / time.Millisecond),
	})
	p.after(profileRedirectDelay, func() { p.navigator.Navigate(nav.RouteProfile) })
	return record, nil
}

func volunteerBody(v *forms.Volunteer, identity *models.Identity) string {
	lines := []string{
		"New Volunteer Application Submitted",
		"",
		"Full Name: " + v.FullName,
		"Email: " + v.Email,
		"Phone: " + v.Phone,
		"Availability: " + v.Availability,
		"Skills: " + v.Skills,
		"Experience: " + orPlaceholder(v.Experience, "Not specified"),
		"Motivation: " + orPlaceholder(v.Motivation, "Not specified"),
		"",
		"User ID: " + identity.ID,
	}
	return strings.Join(lines, "\n")
}
