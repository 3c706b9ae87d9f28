package lead

import "time"

/* Lead represents a contact captured by the public intake endpoint
 * Uses value semantics as it represents data, not behavior
 */
type Lead struct {
	ID        string
	Phone     string
	Source    string
	Name      string
	Email     string
	Company   string
	Message   string
	Status    Status
	Priority  Priority
	Tags      []string
	Extra     Attributes // free-form intake fields (_pixel, _referrer, _url, ...)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeLayout is the ISO-8601 layout used for timestamps in API and webhook payloads
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Validate checks the fields required for a lead to be stored
func (l Lead) Validate() error {
	if l.Phone == "" || l.Source == "" {
		return ErrPhoneAndSourceRequired
	}
	if err := l.Status.Validate(); err != nil {
		return err
	}
	return l.Priority.Validate()
}

// Event builds the immutable "lead created" snapshot used by webhook delivery.
// Optional text fields are only included when set.
func (l Lead) Event() Event {
	attrs := Attributes{
		{Name: FieldLeadID, Value: l.ID},
		{Name: "phone", Value: l.Phone},
		{Name: "source", Value: l.Source},
	}
	for _, f := range []Field{
		{Name: "name", Value: l.Name},
		{Name: "email", Value: l.Email},
		{Name: "company", Value: l.Company},
		{Name: "message", Value: l.Message},
	} {
		if f.Value != "" {
			attrs = append(attrs, f)
		}
	}
	tags := make([]string, len(l.Tags))
	copy(tags, l.Tags)
	attrs = append(attrs,
		Field{Name: "status", Value: l.Status.String()},
		Field{Name: "priority", Value: l.Priority.String()},
		Field{Name: "tags", Value: tags},
		Field{Name: "createdAt", Value: l.CreatedAt.UTC().Format(TimeLayout)},
	)
	for _, f := range l.Extra {
		if !attrs.Has(f.Name) {
			attrs = append(attrs, f)
		}
	}
	return Event{
		LeadID:     l.ID,
		Attributes: attrs,
		OccurredAt: l.CreatedAt,
	}
}
