// Package session tracks the signed-in identity and turns provider auth
// events into user-facing feedback and navigation.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fridge/internal/feedback"
	"fridge/internal/models"
	"fridge/internal/nav"
)

// newIdentityWindow decides which welcome greeting a fresh sign-in gets. An
// account created within this window just confirmed its email.
const newIdentityWindow = time.Minute

// State is a snapshot of the session.
type State struct {
	Identity *models.Identity
	// Loading is true until the initial session restore completes.
	Loading bool
}

type Manager struct {
	provider  Provider
	sink      feedback.Sink
	navigator nav.Navigator
	local     LocalState
	logger    *slog.Logger

	// now is swapped in tests.
	now func() time.Time

	mu           sync.Mutex
	identity     *models.Identity
	loading      bool
	welcomeShown bool
	closed       bool
	unsubscribe  func()
}

func NewManager(provider Provider, sink feedback.Sink, navigator nav.Navigator, local LocalState) *Manager {
	return &Manager{
		provider:  provider,
		sink:      sink,
		navigator: navigator,
		local:     local,
		logger:    slog.Default().With("component", "session"),
		now:       time.Now,
		loading:   true,
	}
}

// Start subscribes to provider events before restoring the persisted session,
// so no event can slip through the gap.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.unsubscribe = m.provider.Subscribe(m.handleEvent)
	m.mu.Unlock()

	go m.loadInitialSession(ctx)
}

func (m *Manager) loadInitialSession(ctx context.Context) {
	identity, err := m.provider.Session(ctx)
	if err != nil {
		m.logger.Error("restoring session failed", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	// An event that raced ahead of the restore wins.
	if m.identity == nil && identity != nil {
		m.identity = identity
	}
	m.loading = false
}

// State returns a snapshot of the current session.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Identity: m.identity, Loading: m.loading}
}

func (m *Manager) handleEvent(ev Event) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	var toast *feedback.Message
	var route nav.Route

	switch ev.Kind {
	case EventSignedIn:
		m.identity = ev.Identity
		m.loading = false
		// One welcome per signed-in stretch, no matter how many times the
		// provider re-announces the session. Navigation is not deduplicated.
		if !m.welcomeShown {
			m.welcomeShown = true
			msg := feedback.Success(m.welcomeText(ev.Identity))
			toast = &msg
		}
		route = nav.RouteHome

	case EventSignedOut:
		m.identity = nil
		m.loading = false
		m.welcomeShown = false

	case EventPasswordRecovery:
		m.identity = ev.Identity
		m.loading = false
		route = nav.RouteResetPassword

	case EventTokenRefreshed, EventUserUpdated:
		// The event's identity is authoritative, even when nil: a refresh
		// without a session means the session is gone.
		m.identity = ev.Identity
		m.loading = false

	default:
		m.logger.Warn("unknown auth event", "kind", string(ev.Kind))
	}
	m.mu.Unlock()

	if toast != nil {
		m.sink.Publish(*toast)
	}
	if route != "" {
		m.navigator.Navigate(route)
	}
}

func (m *Manager) welcomeText(identity *models.Identity) string {
	if identity != nil && m.now().Sub(identity.CreatedAt) < newIdentityWindow {
		return "Welcome! Your email has been verified."
	}
	return "Welcome back!"
}

// SignUp registers a new account. The provider sends the confirmation email;
// no session exists until the user confirms.
func (m *Manager) SignUp(ctx context.Context, email, password, fullName string) error {
	if err := m.provider.SignUp(ctx, email, password, fullName); err != nil {
		return err
	}
	m.sink.Publish(feedback.Success("Check your email to confirm your account!"))
	return nil
}

func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	if err := m.provider.SignInWithPassword(ctx, email, password); err != nil {
		return err
	}
	m.navigator.Navigate(nav.RouteHome)
	return nil
}

func (m *Manager) SignInWithOAuth(ctx context.Context, providerName string) (string, error) {
	return m.provider.SignInWithOAuth(ctx, providerName)
}

// SignOut ends the provider session, then clears the locally persisted state.
// A local clear failure is logged but does not undo the sign-out.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.provider.SignOut(ctx); err != nil {
		m.sink.Publish(feedback.Error("Failed to sign out"))
		return err
	}

	if m.local != nil {
		if err := m.local.Clear(); err != nil {
			m.logger.Error("clearing local session state failed", "error", err)
		}
	}

	m.sink.Publish(feedback.Success("Signed out successfully"))
	m.navigator.Navigate(nav.RouteHome)
	return nil
}

// Close stops event handling. Events delivered after Close are ignored.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}
