// Package provider talks to the hosted auth service and re-publishes its
// session lifecycle as ordered events.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fridge/internal/models"
	"fridge/internal/session"
)

const (
	requestTimeout = 15 * time.Second

	accessTokenKey = "access_token"
)

// AuthError is a failure reported by the auth service, suitable for showing
// to the user.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth service returned status %d: %s", e.Status, e.Message)
}

// CredentialStore persists the access token between restarts.
type CredentialStore interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

type Client struct {
	baseURL     string
	redirectURL string
	httpClient  *http.Client
	creds       CredentialStore
	dispatcher  *dispatcher
}

func NewClient(baseURL, redirectURL string, creds CredentialStore) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		redirectURL: redirectURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
		creds:       creds,
		dispatcher:  newDispatcher(),
	}
}

// Subscribe implements session.Provider.
func (c *Client) Subscribe(fn func(session.Event)) func() {
	return c.dispatcher.subscribe(fn)
}

// Deliver injects an externally observed auth event, such as one pushed by
// the provider's webhook, into the ordered event stream.
func (c *Client) Deliver(ev session.Event) {
	c.dispatcher.deliver(ev)
}

func (c *Client) Close() {
	c.dispatcher.close()
}

// identityPayload is the user object the auth service returns.
type identityPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *identityPayload) toIdentity() *models.Identity {
	if p == nil || p.ID == "" {
		return nil
	}
	return &models.Identity{ID: p.ID, Email: p.Email, CreatedAt: p.CreatedAt}
}

// Session returns the identity for the stored access token, or nil when no
// valid session exists. A rejected token is treated as signed out, not as an
// error.
func (c *Client) Session(ctx context.Context) (*models.Identity, error) {
	token, err := c.creds.Get(accessTokenKey)
	if err != nil {
		return nil, fmt.Errorf("reading stored token: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("building session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_ = c.creds.Delete(accessTokenKey)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.authError(resp)
	}

	var payload identityPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding session response: %w", err)
	}
	return payload.toIdentity(), nil
}

// SignUp registers a new account. The service sends the confirmation email
// with a link back to redirectURL.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) error {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}
	if c.redirectURL != "" {
		body["redirect_to"] = c.redirectURL
	}

	resp, err := c.postJSON(ctx, "/signup", body, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.authError(resp)
	}
	return nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) error {
	resp, err := c.postJSON(ctx, "/token?grant_type=password", map[string]any{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.authError(resp)
	}

	var payload struct {
		AccessToken string           `json:"access_token"`
		User        *identityPayload `json:"user"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return fmt.Errorf("decoding token response: %w", err)
	}
	if payload.AccessToken == "" {
		return &AuthError{Status: resp.StatusCode, Message: "token response missing access token"}
	}

	if err := c.creds.Set(accessTokenKey, payload.AccessToken); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}

	c.dispatcher.deliver(session.Event{Kind: session.EventSignedIn, Identity: payload.User.toIdentity()})
	return nil
}

// SignInWithOAuth returns the URL the user must visit to authorize with the
// named OAuth provider. The session arrives later via the webhook.
func (c *Client) SignInWithOAuth(_ context.Context, providerName string) (string, error) {
	if providerName == "" {
		return "", &AuthError{Status: http.StatusBadRequest, Message: "oauth provider is required"}
	}

	q := url.Values{}
	q.Set("provider", providerName)
	if c.redirectURL != "" {
		q.Set("redirect_to", c.redirectURL)
	}
	return c.baseURL + "/authorize?" + q.Encode(), nil
}

// SignOut revokes the session upstream, then forgets the token locally. The
// token is cleared even when revocation fails with a client error, since the
// upstream already considers the session invalid.
func (c *Client) SignOut(ctx context.Context) error {
	token, err := c.creds.Get(accessTokenKey)
	if err != nil {
		return fmt.Errorf("reading stored token: %w", err)
	}
	if token == "" {
		c.dispatcher.deliver(session.Event{Kind: session.EventSignedOut})
		return nil
	}

	resp, err := c.postJSON(ctx, "/logout", nil, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return c.authError(resp)
	}

	if err := c.creds.Delete(accessTokenKey); err != nil {
		return fmt.Errorf("forgetting access token: %w", err)
	}

	c.dispatcher.deliver(session.Event{Kind: session.EventSignedOut})
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling auth service: %w", err)
	}
	return resp, nil
}

func (c *Client) authError(resp *http.Response) error {
	var payload struct {
		Message          string `json:"msg"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)

	message := payload.Message
	if message == "" {
		message = payload.ErrorDescription
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &AuthError{Status: resp.StatusCode, Message: message}
}
