package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the input kind of a form field.
type Kind string

const (
	KindText      Kind = "text"
	KindNumber    Kind = "number"
	KindDate      Kind = "date"
	KindEnum      Kind = "enum"
	KindReference Kind = "reference"
)

// DateLayout is the calendar-date representation date inputs use.
const DateLayout = "2006-01-02"

// Field describes one form input.
type Field struct {
	Key      string
	Label    string
	Kind     Kind
	Required bool
	Default  string
	// DefaultFunc overrides Default when set, e.g. "today".
	DefaultFunc func(now time.Time) string
	Options     []string
}

func (f Field) defaultValue(now time.Time) string {
	if f.DefaultFunc != nil {
		return f.DefaultFunc(now)
	}
	return f.Default
}

// formValue converts a wire value into what the input shows.
func (f Field) formValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	if f.Kind == KindDate {
		s, _, _ = strings.Cut(s, "T")
	}
	return s, true
}

// wireValue converts the input string into the typed value the server expects.
func (f Field) wireValue(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case KindReference:
		if raw == "" {
			return nil, nil
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &ValidationError{Field: f.Key, Message: fmt.Sprintf("%s must reference an existing record", f.label())}
		}
		return id, nil
	case KindNumber:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &ValidationError{Field: f.Key, Message: fmt.Sprintf("%s must be a whole number", f.label())}
		}
		return n, nil
	case KindDate:
		if raw == "" {
			return nil, nil
		}
		if _, err := time.Parse(DateLayout, raw); err != nil {
			return nil, &ValidationError{Field: f.Key, Message: fmt.Sprintf("%s must be a date (YYYY-MM-DD)", f.label())}
		}
		return raw, nil
	default:
		return raw, nil
	}
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}
