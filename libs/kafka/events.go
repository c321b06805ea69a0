package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const AuditEventVersion = 1

type Envelope struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	EventVersion  int       `json:"event_version"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func NewEnvelope(eventType string, version int, correlationID string) (Envelope, error) {
	return NewEnvelopeWithID(uuid.NewString(), eventType, version, correlationID)
}

func NewEnvelopeWithID(eventID, eventType string, version int, correlationID string) (Envelope, error) {
	env := Envelope{
		EventID:       eventID,
		EventType:     eventType,
		EventVersion:  version,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func DeterministicEventID(parts ...string) string {
	joined := strings.Join(parts, "|")
	if joined == "" {
		return uuid.Nil.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(joined)).String()
}

func (e Envelope) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if e.EventVersion <= 0 {
		return fmt.Errorf("event_version must be positive")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// AuditEvent records one operator action performed through the console.
type AuditEvent struct {
	Envelope
	Actor   string            `json:"actor,omitempty"`
	Action  string            `json:"action"`
	Target  string            `json:"target,omitempty"`
	Outcome string            `json:"outcome"`
	Detail  map[string]string `json:"detail,omitempty"`
}

func NewAuditEvent(action, actor, target, outcome, correlationID string) (AuditEvent, error) {
	return NewAuditEventWithID(uuid.NewString(), action, actor, target, outcome, correlationID)
}

// NewAuditEventWithID builds an audit event under a caller-chosen id, so a republished
// event keeps the key consumers deduplicate on.
func NewAuditEventWithID(eventID, action, actor, target, outcome, correlationID string) (AuditEvent, error) {
	if action == "" {
		return AuditEvent{}, fmt.Errorf("action is required")
	}
	env, err := NewEnvelopeWithID(eventID, "console."+action, AuditEventVersion, correlationID)
	if err != nil {
		return AuditEvent{}, err
	}
	return AuditEvent{
		Envelope: env,
		Actor:    actor,
		Action:   action,
		Target:   target,
		Outcome:  outcome,
	}, nil
}
