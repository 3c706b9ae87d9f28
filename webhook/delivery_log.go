package webhook

import (
	"fmt"
	"time"
)

// MaxResponseExcerpt caps the stored response body of a successful attempt
const MaxResponseExcerpt = 500

/* DeliveryLog is one row per attempt, never per destination
 * Rows are immutable history: appended once, never updated or deleted
 */
type DeliveryLog struct {
	ID              string
	DestinationID   string
	LeadID          string
	URL             string // destination URL at the time of the attempt
	Status          Status
	HTTPStatus      *int   // set only when a response was received
	ResponseExcerpt string // set only on success
	ErrorMessage    string // set only on failure
	Attempt         int
	MaxAttempts     int
	CreatedAt       time.Time
	NextRetryAt     *time.Time // set only when Status is Retrying
}

// Validate checks the shape invariants of a log row
func (l DeliveryLog) Validate() error {
	if !l.Status.Loggable() {
		return fmt.Errorf("status %s cannot be logged", l.Status)
	}
	if l.Attempt < 1 || l.Attempt > l.MaxAttempts {
		return fmt.Errorf("attempt %d outside 1..%d", l.Attempt, l.MaxAttempts)
	}
	if (l.Status == Retrying) != (l.NextRetryAt != nil) {
		return fmt.Errorf("next_retry_at must be set only for retrying rows")
	}
	if l.Status == Success && l.ErrorMessage != "" {
		return fmt.Errorf("successful rows carry no error message")
	}
	if l.Status != Success && l.ResponseExcerpt != "" {
		return fmt.Errorf("only successful rows carry a response excerpt")
	}
	return nil
}

// Excerpt truncates a response body to MaxResponseExcerpt characters
func Excerpt(body string) string {
	runes := []rune(body)
	if len(runes) <= MaxResponseExcerpt {
		return body
	}
	return string(runes[:MaxResponseExcerpt])
}
