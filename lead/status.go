package lead

import (
	"bytes"
	"fmt"
)

// Status is the sales pipeline stage of a lead
type Status int

const (
	New Status = iota + 1
	Contacted
	Qualified
	Converted
	Lost
)

func (s Status) String() string {
	switch s {
	case New:
		return "new"
	case Contacted:
		return "contacted"
	case Qualified:
		return "qualified"
	case Converted:
		return "converted"
	case Lost:
		return "lost"
	}
	return "unknown"
}

// NewStatus creates a Status from a string, defaulting to New
func NewStatus(s string) Status {
	switch s {
	case "contacted":
		return Contacted
	case "qualified":
		return Qualified
	case "converted":
		return Converted
	case "lost":
		return Lost
	}
	return New
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < New || s > Lost {
		return fmt.Errorf("%w: invalid status %d", ErrInvalidInput, s)
	}
	return nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	buffer := bytes.NewBufferString(`"`)
	buffer.WriteString(s.String())
	buffer.WriteString(`"`)
	return buffer.Bytes(), nil
}

// Priority of a lead in the follow-up queue
type Priority int

const (
	Low Priority = iota + 1
	Medium
	High
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	}
	return "unknown"
}

// NewPriority creates a Priority from a string, defaulting to Medium
func NewPriority(s string) Priority {
	switch s {
	case "low":
		return Low
	case "high":
		return High
	}
	return Medium
}

// Validate checks if the priority is valid
func (p Priority) Validate() error {
	if p < Low || p > High {
		return fmt.Errorf("%w: invalid priority %d", ErrInvalidInput, p)
	}
	return nil
}

func (p Priority) MarshalJSON() ([]byte, error) {
	buffer := bytes.NewBufferString(`"`)
	buffer.WriteString(p.String())
	buffer.WriteString(`"`)
	return buffer.Bytes(), nil
}
