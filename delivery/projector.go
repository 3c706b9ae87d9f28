package delivery

import (
	"github.com/marcelsud/leadhub/lead"
	"github.com/marcelsud/leadhub/webhook"
)

/* Project filters the event attributes down to a destination's allow-list
 * An empty allow-list sends every attribute. leadId is always kept so receivers
 * can correlate the payload with its lead. Attribute order is preserved.
 */
func Project(attrs lead.Attributes, allow []string) lead.Attributes {
	if len(allow) == 0 {
		return attrs
	}
	allowed := make(map[string]bool, len(allow)+1)
	for _, name := range allow {
		allowed[name] = true
	}
	allowed[lead.FieldLeadID] = true

	out := make(lead.Attributes, 0, len(allow)+1)
	for _, f := range attrs {
		if allowed[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// WithDefaults appends the typed default of each custom field the event does not already carry
func WithDefaults(attrs lead.Attributes, fields []webhook.CustomField) lead.Attributes {
	if len(fields) == 0 {
		return attrs
	}
	out := attrs.Clone()
	for _, cf := range fields {
		if out.Has(cf.Name) {
			continue
		}
		if v, ok := cf.DefaultAttribute(); ok {
			out = append(out, lead.Field{Name: cf.Name, Value: v})
		}
	}
	return out
}

// withLeadID makes sure the identifier is present, as the first attribute when missing
func withLeadID(attrs lead.Attributes, leadID string) lead.Attributes {
	if attrs.Has(lead.FieldLeadID) {
		return attrs
	}
	out := make(lead.Attributes, 0, len(attrs)+1)
	out = append(out, lead.Field{Name: lead.FieldLeadID, Value: leadID})
	return append(out, attrs...)
}
