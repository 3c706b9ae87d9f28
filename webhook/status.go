package webhook

import "fmt"

/* Status represents the state of one delivery chain (destination x event)
 * Follows the lifecycle: Pending -> InFlight -> Success | Retrying -> InFlight ... | Failed
 * Only Success, Retrying and Failed are ever written to a DeliveryLog
 */
type Status int

const (
	Pending Status = iota + 1
	InFlight
	Success
	Retrying
	Failed
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case InFlight:
		return "in_flight"
	case Success:
		return "success"
	case Retrying:
		return "retrying"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from a string
func NewStatus(str string) Status {
	switch str {
	case "in_flight":
		return InFlight
	case "success":
		return Success
	case "retrying":
		return Retrying
	case "failed":
		return Failed
	default:
		return Pending
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Pending || s > Failed {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// IsFinal returns true if the status is a terminal state
func (s Status) IsFinal() bool {
	return s == Success || s == Failed
}

// Loggable returns true for the statuses a delivery log row may carry
func (s Status) Loggable() bool {
	return s == Success || s == Retrying || s == Failed
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	*s = NewStatus(string(text))
	return nil
}
