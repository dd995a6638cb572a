// Package events defines the envelope shared by every event the service publishes.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names the kind of event carried by an Envelope.
type EventType string

// Envelope wraps an event payload with identity and timing metadata.
type Envelope struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New builds an envelope stamped with a fresh ID and the current UTC time.
func New(eventType EventType, source string, payload any) Envelope {
	return Envelope{
		EventID:   uuid.New(),
		EventType: eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Marshal encodes the envelope as JSON.
func (e Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.EventType, err)
	}
	return data, nil
}
