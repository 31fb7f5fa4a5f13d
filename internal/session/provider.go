package session

import (
	"context"

	"fridge/internal/models"
)

// EventKind mirrors the auth provider's lifecycle event names.
type EventKind string

const (
	EventSignedIn         EventKind = "SIGNED_IN"
	EventSignedOut        EventKind = "SIGNED_OUT"
	EventPasswordRecovery EventKind = "PASSWORD_RECOVERY"
	EventTokenRefreshed   EventKind = "TOKEN_REFRESHED"
	EventUserUpdated      EventKind = "USER_UPDATED"
)

// Event is a single auth state change pushed by the provider.
type Event struct {
	Kind     EventKind
	Identity *models.Identity
}

// Provider is the upstream auth service the manager sits in front of.
type Provider interface {
	// Session returns the current identity, or nil when signed out.
	Session(ctx context.Context) (*models.Identity, error)

	// Subscribe registers fn for auth events. Events arrive one at a
	// time, in order. The returned function cancels the subscription.
	Subscribe(fn func(Event)) (unsubscribe func())

	SignUp(ctx context.Context, email, password, fullName string) error
	SignInWithPassword(ctx context.Context, email, password string) error
	SignInWithOAuth(ctx context.Context, providerName string) (redirectURL string, err error)
	SignOut(ctx context.Context) error
}

// LocalState is the locally persisted session residue cleared on sign-out.
type LocalState interface {
	Clear() error
}
