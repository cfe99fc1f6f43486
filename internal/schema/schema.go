package schema

import (
	"fmt"
	"strings"
	"time"
)

// Draft is the form-side representation of a record: one raw string per field.
type Draft map[string]string

// Clone returns a copy of d.
func (d Draft) Clone() Draft {
	out := make(Draft, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Reference binds a field to another collection whose records supply its values.
type Reference struct {
	Field       string
	Resource    string
	LabelFields []string
	// FetchMessage is reported when the option list cannot be loaded.
	FetchMessage string
}

// Schema declares the fields and cross-field rules of one entity.
type Schema struct {
	Name     string
	Resource string
	// FetchMessage is the fixed text shown when listing fails.
	FetchMessage string
	Fields       []Field
	Rules        []Rule
	Reference    *Reference
	// Columns are the keys the list view shows, in order.
	Columns []string
}

// ErrUnknownField is returned for keys outside the schema.
type ErrUnknownField struct {
	Schema string
	Key    string
}

func (e ErrUnknownField) Error() string {
	return fmt.Sprintf("%s has no field %q", e.Schema, e.Key)
}

// Field returns the field with key.
func (s *Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Keys returns field keys in declaration order.
func (s *Schema) Keys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Defaults returns a fresh draft populated from field defaults.
func (s *Schema) Defaults(now time.Time) Draft {
	d := make(Draft, len(s.Fields))
	for _, f := range s.Fields {
		d[f.Key] = f.defaultValue(now)
	}
	return d
}

// Normalize turns a server record into a draft the form can show: null or missing fields take
// their default and dates are cut to YYYY-MM-DD. Keys outside the schema are dropped.
func (s *Schema) Normalize(rec map[string]any, now time.Time) Draft {
	d := make(Draft, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := f.formValue(rec[f.Key])
		if !ok {
			v = f.defaultValue(now)
		}
		d[f.Key] = v
	}
	return d
}

// Set assigns one field. Changing the reference field re-applies the cross-field rules so
// clearing it clears its dependents; other fields are taken as typed until submission.
func (s *Schema) Set(d Draft, key, value string) error {
	if _, ok := s.Field(key); !ok {
		return ErrUnknownField{Schema: s.Name, Key: key}
	}
	d[key] = value
	if s.Reference != nil && key == s.Reference.Field {
		for _, r := range s.Rules {
			r.Apply(d)
		}
	}
	return nil
}

// Validate evaluates every rule against a copy of d and returns the first violation.
func (s *Schema) Validate(d Draft) error {
	_, err := s.checked(d)
	return err
}

// Serialize validates d and converts it to the wire shape. d itself is not modified.
func (s *Schema) Serialize(d Draft) (map[string]any, error) {
	c, err := s.checked(d)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		v, err := f.wireValue(c[f.Key])
		if err != nil {
			return nil, err
		}
		out[f.Key] = v
	}
	return out, nil
}

func (s *Schema) checked(d Draft) (Draft, error) {
	c := d.Clone()
	for _, r := range s.Rules {
		r.Apply(c)
	}
	for _, r := range s.Rules {
		if err := r.Check(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MissingRequired lists required fields left blank. The input layer enforces these.
func (s *Schema) MissingRequired(d Draft) []string {
	var missing []string
	for _, f := range s.Fields {
		if f.Required && strings.TrimSpace(d[f.Key]) == "" {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

// OptionLabel renders a reference option from the referenced record.
func (r *Reference) OptionLabel(rec map[string]any) string {
	parts := make([]string, 0, len(r.LabelFields))
	for _, k := range r.LabelFields {
		if v, ok := rec[k]; ok && v != nil {
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, " - ")
}
