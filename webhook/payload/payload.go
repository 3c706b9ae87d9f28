package payload

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// EventLeadCreated is the only event type emitted today
const EventLeadCreated = "lead.created"

// TimestampLayout is the ISO-8601 UTC layout with millisecond precision used on the wire
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// eventPattern validates event names: hierarchical, full-stop delimited, [a-zA-Z0-9_.]
var eventPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

// Envelope is the JSON body POSTed to every destination
type Envelope struct {
	// Event is a full-stop delimited name, e.g. "lead.created"
	Event string `json:"event"`

	// Timestamp is the dispatch time, encoded as ISO-8601 UTC
	Timestamp time.Time `json:"timestamp"`

	// Data is the projected attribute set for the destination
	Data json.RawMessage `json:"data"`
}

// Validate validates the envelope structure
func (e Envelope) Validate() error {
	if e.Event == "" {
		return fmt.Errorf("event is required")
	}
	if !eventPattern.MatchString(e.Event) {
		return fmt.Errorf("event must be hierarchical and contain only [a-zA-Z0-9_.]: %s", e.Event)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("data is required")
	}
	if !json.Valid(e.Data) {
		return fmt.Errorf("data must be valid JSON")
	}
	return nil
}

// MarshalJSON returns the JSON encoding of the envelope
func (e Envelope) MarshalJSON() ([]byte, error) {
	type Alias Envelope
	return json.Marshal(&struct {
		Timestamp string `json:"timestamp"`
		*Alias
	}{
		Timestamp: e.Timestamp.UTC().Format(TimestampLayout),
		Alias:     (*Alias)(&e),
	})
}

// UnmarshalJSON parses the JSON-encoded data and stores the result
func (e *Envelope) UnmarshalJSON(data []byte) error {
	type Alias Envelope
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("unmarshaling envelope: %w", err)
	}

	timestamp, err := time.Parse(time.RFC3339Nano, aux.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}
	e.Timestamp = timestamp

	return nil
}

// New creates an Envelope with the given event, data and dispatch time
func New(event string, data interface{}, at time.Time) (Envelope, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshaling data: %w", err)
	}

	envelope := Envelope{
		Event:     event,
		Timestamp: at.UTC(),
		Data:      dataBytes,
	}

	if err := envelope.Validate(); err != nil {
		return Envelope{}, fmt.Errorf("validating envelope: %w", err)
	}

	return envelope, nil
}

// Parse parses a JSON body into an Envelope
func Parse(data []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("unmarshaling envelope: %w", err)
	}

	if err := envelope.Validate(); err != nil {
		return Envelope{}, fmt.Errorf("validating envelope: %w", err)
	}

	return envelope, nil
}

// Bytes returns the minified JSON encoding of the envelope
func (e Envelope) Bytes() ([]byte, error) {
	return json.Marshal(e)
}
