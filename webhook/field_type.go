package webhook

import (
	"fmt"
	"strconv"
)

/* FieldType is the declared type of a destination's custom field
 * It decides how the configured default value is encoded in payloads
 */
type FieldType int

const (
	Text FieldType = iota + 1
	Number
	Boolean
	Email
	Phone
	URL
)

// String returns the string representation of the field type
func (f FieldType) String() string {
	switch f {
	case Text:
		return "text"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Email:
		return "email"
	case Phone:
		return "phone"
	case URL:
		return "url"
	default:
		return "unknown"
	}
}

// NewFieldType creates a FieldType from a string
func NewFieldType(s string) FieldType {
	switch s {
	case "number":
		return Number
	case "boolean":
		return Boolean
	case "email":
		return Email
	case "phone":
		return Phone
	case "url":
		return URL
	default:
		return Text
	}
}

// Validate checks if the field type is valid
func (f FieldType) Validate() error {
	if f < Text || f > URL {
		return fmt.Errorf("invalid field type: %d", f)
	}
	return nil
}

// Parse converts a raw value into the payload representation for the type
func (f FieldType) Parse(raw string) (any, error) {
	switch f {
	case Number:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing number: %w", err)
		}
		return v, nil
	case Boolean:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing boolean: %w", err)
		}
		return v, nil
	default:
		return raw, nil
	}
}
