package destinations

import (
	"fmt"
	"strings"
	"time"

	"github.com/marcelsud/leadhub/webhook"
)

/* Seed is one destination entry of a destinations.yaml file
 * is_active defaults to true when omitted
 */
type Seed struct {
	Name         string            `yaml:"name"`
	URL          string            `yaml:"url"`
	IsActive     *bool             `yaml:"is_active"`
	SendFields   []string          `yaml:"send_fields"`
	CustomFields []CustomFieldSeed `yaml:"custom_fields"`
}

// CustomFieldSeed represents a custom field in the YAML file
type CustomFieldSeed struct {
	Name         string `yaml:"name"`
	Label        string `yaml:"label"`
	Type         string `yaml:"type"` // text, number, boolean, email, phone, url
	Required     bool   `yaml:"required"`
	DefaultValue string `yaml:"default_value"`
}

// Destination converts the seed entry into a validated destination
func (s Seed) Destination(now time.Time) (webhook.Destination, error) {
	active := true
	if s.IsActive != nil {
		active = *s.IsActive
	}
	d := webhook.Destination{
		Name:       strings.TrimSpace(s.Name),
		URL:        strings.TrimSpace(s.URL),
		IsActive:   active,
		SendFields: s.SendFields,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, cf := range s.CustomFields {
		ft, err := parseFieldType(cf.Type)
		if err != nil {
			return webhook.Destination{}, fmt.Errorf("custom field %q of %q: %w", cf.Name, s.Name, err)
		}
		d.CustomFields = append(d.CustomFields, webhook.CustomField{
			Name:         cf.Name,
			Label:        cf.Label,
			Type:         ft,
			Required:     cf.Required,
			DefaultValue: cf.DefaultValue,
		})
	}
	if err := d.Validate(); err != nil {
		return webhook.Destination{}, fmt.Errorf("destination %q: %w", s.Name, err)
	}
	return d, nil
}

// parseFieldType is stricter than webhook.NewFieldType: unknown names are
// rejected instead of falling back to text
func parseFieldType(s string) (webhook.FieldType, error) {
	if s == "" {
		return webhook.Text, nil
	}
	ft := webhook.NewFieldType(s)
	if ft.String() != s {
		return 0, fmt.Errorf("%w: unknown field type %q", webhook.ErrInvalidInput, s)
	}
	return ft, nil
}
