package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fridge/internal/session"
)

type memCreds struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCreds() *memCreds {
	return &memCreds{data: map[string]string{}}
}

func (m *memCreds) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCreds) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memCreds) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func collectEvents(t *testing.T, c *Client) func() []session.Event {
	t.Helper()
	var mu sync.Mutex
	var events []session.Event
	unsub := c.Subscribe(func(ev session.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})
	t.Cleanup(unsub)
	return func() []session.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]session.Event(nil), events...)
	}
}

func waitForEvents(t *testing.T, got func() []session.Event, n int) []session.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(got()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("received %d events, want %d", len(got()), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return got()
}

func TestSessionWithoutTokenReturnsNil(t *testing.T) {
	c := NewClient("http://auth.invalid", "", newMemCreds())
	defer c.Close()

	identity, err := c.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if identity != nil {
		t.Errorf("identity = %+v, want nil", identity)
	}
}

func TestSessionRejectedTokenClearsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"msg":"invalid token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := newMemCreds()
	creds.Set(accessTokenKey, "stale-token")
	c := NewClient(srv.URL, "", creds)
	defer c.Close()

	identity, err := c.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if identity != nil {
		t.Errorf("identity = %+v, want nil for rejected token", identity)
	}
	if tok, _ := creds.Get(accessTokenKey); tok != "" {
		t.Errorf("stored token = %q, want cleared", tok)
	}
}

func TestSignInWithPasswordStoresTokenAndEmitsEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-abc",
			"user": map[string]any{
				"id":         "usr_1",
				"email":      "priya@example.com",
				"created_at": time.Now().UTC().Format(time.RFC3339),
			},
		})
	}))
	defer srv.Close()

	creds := newMemCreds()
	c := NewClient(srv.URL, "", creds)
	defer c.Close()
	got := collectEvents(t, c)

	if err := c.SignInWithPassword(context.Background(), "priya@example.com", "secret123"); err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}

	if tok, _ := creds.Get(accessTokenKey); tok != "tok-abc" {
		t.Errorf("stored token = %q, want tok-abc", tok)
	}

	events := waitForEvents(t, got, 1)
	if events[0].Kind != session.EventSignedIn {
		t.Errorf("event kind = %s, want SIGNED_IN", events[0].Kind)
	}
	if events[0].Identity == nil || events[0].Identity.Email != "priya@example.com" {
		t.Errorf("event identity = %+v", events[0].Identity)
	}
}

func TestSignInWithPasswordBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_description":"Invalid login credentials"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", newMemCreds())
	defer c.Close()

	err := c.SignInWithPassword(context.Background(), "priya@example.com", "wrong")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
	if authErr.Message != "Invalid login credentials" {
		t.Errorf("Message = %q", authErr.Message)
	}
}

func TestSignOutClearsTokenAndEmitsEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logout" {
			t.Errorf("path = %s, want /logout", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok-abc" {
			t.Errorf("Authorization = %q", auth)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	creds := newMemCreds()
	creds.Set(accessTokenKey, "tok-abc")
	c := NewClient(srv.URL, "", creds)
	defer c.Close()
	got := collectEvents(t, c)

	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if tok, _ := creds.Get(accessTokenKey); tok != "" {
		t.Errorf("stored token = %q, want cleared", tok)
	}

	events := waitForEvents(t, got, 1)
	if events[0].Kind != session.EventSignedOut {
		t.Errorf("event kind = %s, want SIGNED_OUT", events[0].Kind)
	}
}

func TestSignInWithOAuthBuildsAuthorizeURL(t *testing.T) {
	c := NewClient("http://auth.example.com", "http://localhost:3000/", newMemCreds())
	defer c.Close()

	got, err := c.SignInWithOAuth(context.Background(), "google")
	if err != nil {
		t.Fatalf("SignInWithOAuth() error = %v", err)
	}
	if !strings.HasPrefix(got, "http://auth.example.com/authorize?") {
		t.Errorf("url = %q", got)
	}
	if !strings.Contains(got, "provider=google") {
		t.Errorf("url missing provider: %q", got)
	}
	if !strings.Contains(got, "redirect_to=") {
		t.Errorf("url missing redirect: %q", got)
	}
}

func TestDispatcherOrderingAndUnsubscribe(t *testing.T) {
	c := NewClient("http://auth.invalid", "", newMemCreds())
	defer c.Close()
	got := collectEvents(t, c)

	kinds := []session.EventKind{
		session.EventSignedIn,
		session.EventTokenRefreshed,
		session.EventSignedOut,
	}
	for _, k := range kinds {
		c.Deliver(session.Event{Kind: k})
	}

	events := waitForEvents(t, got, len(kinds))
	for i, k := range kinds {
		if events[i].Kind != k {
			t.Errorf("events[%d].Kind = %s, want %s", i, events[i].Kind, k)
		}
	}

	var lateMu sync.Mutex
	late := 0
	unsub := c.Subscribe(func(session.Event) {
		lateMu.Lock()
		late++
		lateMu.Unlock()
	})
	unsub()

	c.Deliver(session.Event{Kind: session.EventUserUpdated})
	waitForEvents(t, got, len(kinds)+1)

	lateMu.Lock()
	defer lateMu.Unlock()
	if late != 0 {
		t.Errorf("unsubscribed handler received %d events", late)
	}
}
