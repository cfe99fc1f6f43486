package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"hrconsole/internal/events"
	"hrconsole/internal/repo"
)

const dateLayout = "2006-01-02"

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Now    func() time.Time
}

func New(db *sql.DB) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{},
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// ValidationError is a rejected write; Message is shown to the operator as is.
type ValidationError struct {
	Field   string
	Message string
}

func (v ValidationError) Error() string { return v.Message }

// ConflictError reports a write that clashes with stored data.
type ConflictError struct {
	Message string
}

func (c ConflictError) Error() string { return c.Message }

type requestIDKey struct{}

// WithRequestID tags events written under ctx with id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (e Engine) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// entityNames maps a resource to the singular used in event types.
var entityNames = map[string]string{
	"employees":  "employee",
	"contracts":  "contract",
	"training":   "training",
	"attendance": "attendance",
	"assets":     "asset",
}

func (e Engine) record(ctx context.Context, tx *sql.Tx, resource, action string, id int64, snapshot any) error {
	payload, err := toPayload(snapshot)
	if err != nil {
		return err
	}
	return e.Events.Append(ctx, tx, events.Type(entityNames[resource], action), resource, id, requestID(ctx), payload)
}

func toPayload(v any) (events.EventPayload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out events.EventPayload
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e Engine) ensureUnique(ctx context.Context, tx *sql.Tx, table, column, value string, exceptID int64) error {
	if value == "" {
		return nil
	}
	var id int64
	err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE %s=? AND id<>?`, table, column), value, exceptID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	return ConflictError{Message: fmt.Sprintf("%s %q already exists", column, value)}
}

func (e Engine) ensureEmployee(ctx context.Context, tx *sql.Tx, id *int64, required bool) error {
	if id == nil {
		if required {
			return ValidationError{Field: "employee_id", Message: "employee_id is required"}
		}
		return nil
	}
	ok, err := e.Repo.EmployeeExists(ctx, tx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return ValidationError{Field: "employee_id", Message: fmt.Sprintf("employee %d does not exist", *id)}
	}
	return nil
}

// Delete removes a record. Employees still referenced elsewhere are kept and reported
// as a conflict.
func (e Engine) Delete(ctx context.Context, resource string, id int64) error {
	if _, ok := entityNames[resource]; !ok {
		return fmt.Errorf("unknown resource %q", resource)
	}
	return e.inTx(ctx, func(tx *sql.Tx) error {
		snapshot, err := e.get(ctx, tx, resource, id)
		if err != nil {
			return err
		}
		if resource == "employees" {
			refs, err := e.Repo.CountEmployeeReferences(ctx, tx, id)
			if err != nil {
				return err
			}
			if len(refs) > 0 {
				return ConflictError{Message: fmt.Sprintf("employee %d is still referenced by %s", id, describeRefs(refs))}
			}
		}
		if err := e.Repo.Delete(ctx, tx, resource, id); err != nil {
			return err
		}
		return e.record(ctx, tx, resource, "deleted", id, snapshot)
	})
}

func (e Engine) get(ctx context.Context, q repo.Querier, resource string, id int64) (any, error) {
	switch resource {
	case "employees":
		return e.Repo.GetEmployee(ctx, q, id)
	case "contracts":
		return e.Repo.GetContract(ctx, q, id)
	case "training":
		return e.Repo.GetTraining(ctx, q, id)
	case "attendance":
		return e.Repo.GetAttendance(ctx, q, id)
	case "assets":
		return e.Repo.GetAsset(ctx, q, id)
	}
	return nil, fmt.Errorf("unknown resource %q", resource)
}

func describeRefs(refs map[string]int) string {
	keys := make([]string, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d %s", refs[k], k)
	}
	return strings.Join(parts, ", ")
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

func oneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return ValidationError{Field: field, Message: fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", "))}
}

// date trims v and checks it is a calendar date. Timestamps are cut to their date part.
func date(field string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, _, _ := strings.Cut(strings.TrimSpace(*v), "T")
	if s == "" {
		return nil, nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return nil, ValidationError{Field: field, Message: field + " must be a date (YYYY-MM-DD)"}
	}
	return &s, nil
}

func dateOrder(start, end *string) error {
	if start != nil && end != nil && *end < *start {
		return ValidationError{Field: "end_date", Message: "end_date must not be before start_date"}
	}
	return nil
}

func defaulted(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
