package schema

import (
	"strconv"
	"strings"
)

// ValidationError is a local rule violation detected before dispatch.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Rule is a cross-field constraint evaluated against a draft.
type Rule interface {
	// Apply rewrites dependent fields in place. It never fails.
	Apply(d Draft)
	// Check reports a violation, or nil.
	Check(d Draft) error
}

// ClearWhenEmpty forces Dependent to "" whenever Reference is empty.
type ClearWhenEmpty struct {
	Reference string
	Dependent string
}

func (r ClearWhenEmpty) Apply(d Draft) {
	if strings.TrimSpace(d[r.Reference]) == "" {
		d[r.Dependent] = ""
	}
}

func (r ClearWhenEmpty) Check(Draft) error { return nil }

// RequiredWhenSet demands Dependent once Reference holds a value.
type RequiredWhenSet struct {
	Reference string
	Dependent string
	Message   string
}

func (r RequiredWhenSet) Apply(Draft) {}

func (r RequiredWhenSet) Check(d Draft) error {
	if strings.TrimSpace(d[r.Reference]) != "" && strings.TrimSpace(d[r.Dependent]) == "" {
		return &ValidationError{Field: r.Dependent, Message: r.Message}
	}
	return nil
}

// IntRange bounds an optional integer field. Blank passes.
type IntRange struct {
	Key      string
	Min, Max int
	Message  string
}

func (r IntRange) Apply(Draft) {}

func (r IntRange) Check(d Draft) error {
	raw := strings.TrimSpace(d[r.Key])
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < r.Min || n > r.Max {
		return &ValidationError{Field: r.Key, Message: r.Message}
	}
	return nil
}
