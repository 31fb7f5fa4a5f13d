package intake

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"fridge/internal/db"
	"fridge/internal/feedback"
	"fridge/internal/forms"
	"fridge/internal/models"
	"fridge/internal/nav"
)

type recordSink struct {
	mu       sync.Mutex
	messages []feedback.Message
}

func (s *recordSink) Publish(msg feedback.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *recordSink) all() []feedback.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feedback.Message(nil), s.messages...)
}

type recordNav struct {
	mu     sync.Mutex
	routes []nav.Route
}

func (n *recordNav) Navigate(route nav.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordNav) all() []nav.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]nav.Route(nil), n.routes...)
}

type dispatchCall struct {
	subject string
	body    string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (d *fakeDispatcher) Dispatch(subject, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{subject: subject, body: body})
}

func (d *fakeDispatcher) all() []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatchCall(nil), d.calls...)
}

type fakeDonationStore struct {
	createErr error
	created   []db.CreateDonationParams
}

func (s *fakeDonationStore) Create(_ context.Context, p db.CreateDonationParams) (*models.DonationRequest, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, p)
	return &models.DonationRequest{
		ID:               "don_1",
		UserID:           p.UserID,
		OrganizationName: p.OrganizationName,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

func testIdentity() *models.Identity {
	return &models.Identity{ID: "usr_1", Email: "priya@example.com", CreatedAt: time.Now().Add(-time.Hour)}
}

func validDonationForm() forms.DonationForm {
	return forms.DonationForm{
		OrganizationName: "Sunrise Bakery",
		ContactPerson:    "Priya Sharma",
		Phone:            "+911234567890",
		FoodType:         "Bread and pastries",
		Quantity:         "20 kg",
		PickupAddress:    "12 Market Street",
	}
}

func TestDonationSubmitSuccess(t *testing.T) {
	store := &fakeDonationStore{}
	relay := &fakeDispatcher{}
	sink := &recordSink{}
	navigator := &recordNav{}
	p := NewDonationPipeline(store, relay, sink, navigator)

	record, err := p.Submit(context.Background(), testIdentity(), validDonationForm())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if record == nil || record.ID == "" {
		t.Fatalf("record = %+v", record)
	}

	calls := relay.all()
	if len(calls) != 1 {
		t.Fatalf("dispatched %d notifications, want 1", len(calls))
	}
	if calls[0].subject != "New Donation Request - Community Fridge" {
		t.Errorf("subject = %q", calls[0].subject)
	}
	for _, want := range []string{"Sunrise Bakery", "Preferred Time: Not specified", "Additional Notes: None", "User Email: priya@example.com"} {
		if !strings.Contains(calls[0].body, want) {
			t.Errorf("body missing %q:\n%s", want, calls[0].body)
		}
	}

	msgs := sink.all()
	if len(msgs) != 1 || msgs[0].Text != "Thank you! Your donation request has been submitted successfully." {
		t.Errorf("messages = %+v", msgs)
	}
	routes := navigator.all()
	if len(routes) != 1 || routes[0] != nav.RouteProfile {
		t.Errorf("routes = %v, want immediate profile navigation", routes)
	}
}

func TestDonationSubmitValidationFailureSkipsStore(t *testing.T) {
	store := &fakeDonationStore{}
	relay := &fakeDispatcher{}
	sink := &recordSink{}
	p := NewDonationPipeline(store, relay, sink, &recordNav{})

	form := validDonationForm()
	form.OrganizationName = ""
	form.Phone = "0123456"

	_, err := p.Submit(context.Background(), testIdentity(), form)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if verr.Fields["organizationName"] != "Organization name is required" {
		t.Errorf("organizationName error = %q", verr.Fields["organizationName"])
	}
	if _, ok := verr.Fields["phone"]; !ok {
		t.Error("phone error missing")
	}

	if len(store.created) != 0 {
		t.Errorf("store called %d times, want 0", len(store.created))
	}
	if len(relay.all()) != 0 {
		t.Errorf("dispatched %d notifications, want 0", len(relay.all()))
	}
	msgs := sink.all()
	if len(msgs) != 1 || msgs[0].Text != "Please check the form for errors" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestDonationSubmitPersistenceFailureSkipsDispatch(t *testing.T) {
	store := &fakeDonationStore{createErr: errors.New("database locked")}
	relay := &fakeDispatcher{}
	sink := &recordSink{}
	navigator := &recordNav{}
	p := NewDonationPipeline(store, relay, sink, navigator)

	_, err := p.Submit(context.Background(), testIdentity(), validDonationForm())
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PersistenceError", err)
	}

	if len(relay.all()) != 0 {
		t.Errorf("dispatched %d notifications after persistence failure, want 0", len(relay.all()))
	}
	if len(navigator.all()) != 0 {
		t.Errorf("routes = %v, want none", navigator.all())
	}
	msgs := sink.all()
	if len(msgs) != 1 || msgs[0].Text != "Failed to submit donation. Please try again." {
		t.Errorf("messages = %+v", msgs)
	}
}
