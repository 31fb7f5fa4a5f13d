// Package notify relays intake submissions to the form-to-email endpoint the
// coordinators monitor.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const dispatchTimeout = 15 * time.Second

// Message is the JSON payload the endpoint accepts.
type Message struct {
	AccessKey string `json:"access_key"`
	Subject   string `json:"subject"`
	FromName  string `json:"from_name"`
	To        string `json:"to"`
	Body      string `json:"message"`
}

type Relay struct {
	endpoint  string
	accessKey string
	fromName  string
	to        string
	client    *http.Client
	logger    *slog.Logger
}

func NewRelay(endpoint, accessKey, fromName, to string) *Relay {
	return &Relay{
		endpoint:  endpoint,
		accessKey: accessKey,
		fromName:  fromName,
		to:        to,
		client:    &http.Client{Timeout: dispatchTimeout},
		logger:    slog.Default().With("component", "notify"),
	}
}

// Enabled reports whether the relay has credentials. Without an access key
// dispatches are skipped rather than failed.
func (r *Relay) Enabled() bool {
	return r.accessKey != ""
}

// Submit sends one notification synchronously.
func (r *Relay) Submit(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(Message{
		AccessKey: r.accessKey,
		Subject:   subject,
		FromName:  r.fromName,
		To:        r.to,
		Body:      body,
	})
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

// Dispatch sends a notification in the background. Failures are logged and
// never surfaced to the submitter; the submission has already been persisted
// by the time this runs.
func (r *Relay) Dispatch(subject, body string) {
	if !r.Enabled() {
		r.logger.Debug("notification skipped, relay disabled", "subject", subject)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := r.Submit(ctx, subject, body); err != nil {
			r.logger.Error("notification dispatch failed", "subject", subject, "error", err)
			return
		}
		r.logger.Info("notification dispatched", "subject", subject)
	}()
}
