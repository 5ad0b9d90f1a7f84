// Package events publishes profile lifecycle events to Kafka so downstream
// consumers (search indexers, audit pipelines) can react to changes.
package events

import (
	"context"
	"time"
)

// Event types emitted by the profile service.
const (
	TypeProfileCreated      = "profile_created"
	TypeProfileUpdated      = "profile_updated"
	TypeProfileDeleted      = "profile_deleted"
	TypeProfileRestricted   = "profile_restricted"
	TypeProfileUnrestricted = "profile_unrestricted"
	TypeVerificationChanged = "verification_changed"
)

// Event is a profile lifecycle notification. Payload never carries the full
// document; consumers fetch current state through the API if they need it.
type Event struct {
	Type      string            `json:"type"`
	ProfileID string            `json:"profile_id"`
	Actor     string            `json:"actor,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
	Occurred  time.Time         `json:"occurred_at"`
}

// Publisher delivers events to the configured sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards all events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
