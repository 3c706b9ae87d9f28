package webhook

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

/* Destination is a user-configured external URL that receives lead events
 * Uses value semantics as it represents data, not behavior
 */
type Destination struct {
	ID              string
	Name            string
	URL             string
	IsActive        bool
	SendFields      []string // empty means the full default field set
	CustomFields    []CustomField
	SuccessCount    int64
	FailureCount    int64
	LastTriggeredAt *time.Time // last successful delivery
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the configuration fields of a destination
func (d Destination) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := ValidateURL(d.URL); err != nil {
		return err
	}
	for _, f := range d.SendFields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: send_fields cannot contain empty names", ErrInvalidInput)
		}
	}
	seen := make(map[string]bool, len(d.CustomFields))
	for _, cf := range d.CustomFields {
		if err := cf.Validate(); err != nil {
			return err
		}
		if seen[cf.Name] {
			return fmt.Errorf("%w: duplicate custom field %q", ErrInvalidInput, cf.Name)
		}
		seen[cf.Name] = true
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs only
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid url %q: %v", ErrInvalidInput, raw, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: url must be absolute: %q", ErrInvalidInput, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: url scheme must be http or https: %q", ErrInvalidInput, raw)
	}
	return nil
}

// CustomField is an extra payload field configured on a destination
type CustomField struct {
	Name         string
	Label        string
	Type         FieldType
	Required     bool
	DefaultValue string
}

// Validate checks a custom field definition
func (c CustomField) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: custom field name is required", ErrInvalidInput)
	}
	if err := c.Type.Validate(); err != nil {
		return fmt.Errorf("%w: custom field %q: %v", ErrInvalidInput, c.Name, err)
	}
	if c.DefaultValue == "" {
		return nil
	}
	if _, err := c.Type.Parse(c.DefaultValue); err != nil {
		return fmt.Errorf("%w: custom field %q default: %v", ErrInvalidInput, c.Name, err)
	}
	return nil
}

// DefaultAttribute returns the typed default value, if the field has one
func (c CustomField) DefaultAttribute() (any, bool) {
	if c.DefaultValue == "" {
		return nil, false
	}
	v, err := c.Type.Parse(c.DefaultValue)
	if err != nil {
		return nil, false
	}
	return v, true
}
