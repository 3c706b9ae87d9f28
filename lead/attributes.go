package lead

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// FieldLeadID is the attribute that identifies the lead in every payload
const FieldLeadID = "leadId"

/* Field is one named value of an event payload.
 * Value holds a JSON-compatible value: string, float64/int, bool, nil,
 * map[string]any or a slice of those.
 */
type Field struct {
	Name  string
	Value any
}

// Attributes is an ordered set of fields. Order is kept on the wire so payloads
// are stable for the destinations and for tests.
type Attributes []Field

// Get returns the value of a field and whether it is present
func (a Attributes) Get(name string) (any, bool) {
	for _, f := range a {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether the field is present
func (a Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Names returns the field names in order
func (a Attributes) Names() []string {
	names := make([]string, 0, len(a))
	for _, f := range a {
		names = append(names, f.Name)
	}
	return names
}

// Clone returns a copy that shares no backing array with a
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// Map converts the attributes to a plain map
func (a Attributes) Map() map[string]any {
	m := make(map[string]any, len(a))
	for _, f := range a {
		m[f.Name] = f.Value
	}
	return m
}

// AttributesFromMap builds Attributes from a map, ordering keys alphabetically
func AttributesFromMap(m map[string]any) Attributes {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make(Attributes, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, Field{Name: k, Value: m[k]})
	}
	return attrs
}

// MarshalJSON encodes the attributes as a JSON object, preserving field order
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("marshaling field name: %w", err)
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshaling field %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object; keys are ordered alphabetically
func (a *Attributes) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unmarshaling attributes: %w", err)
	}
	*a = AttributesFromMap(m)
	return nil
}
