package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"hrconsole/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// Tables holds the resources stored by the repo, keyed by their API path segment.
var Tables = map[string]bool{
	"employees":  true,
	"contracts":  true,
	"training":   true,
	"attendance": true,
	"assets":     true,
}

// searchClause matches term as a substring of any of cols.
func searchClause(term string, cols ...string) (string, []any) {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return "", nil
	}
	pattern := "%" + escapeLike(term) + "%"
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		parts[i] = c + ` LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return " WHERE (" + strings.Join(parts, " OR ") + ")", args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Delete removes one row from a known table.
func (r Repo) Delete(ctx context.Context, q Querier, table string, id int64) error {
	if !Tables[table] {
		return fmt.Errorf("unknown table %q", table)
	}
	res, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// EmployeeExists reports whether id names a stored employee.
func (r Repo) EmployeeExists(ctx context.Context, q Querier, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM employees WHERE id=?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// CountEmployeeReferences counts the rows in other tables that point at the employee.
func (r Repo) CountEmployeeReferences(ctx context.Context, q Querier, id int64) (map[string]int, error) {
	out := map[string]int{}
	for _, table := range []string{"contracts", "training", "attendance", "assets"} {
		var n int
		if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE employee_id=?`, id).Scan(&n); err != nil {
			return nil, err
		}
		if n > 0 {
			out[table] = n
		}
	}
	return out, nil
}

// LatestEvents returns recent audit events, newest first, optionally narrowed to one resource.
func (r Repo) LatestEvents(ctx context.Context, limit int, resource string) ([]domain.Event, error) {
	query := `SELECT id,ts,type,resource,entity_id,COALESCE(request_id,''),payload_json FROM events`
	var args []any
	if resource != "" {
		query += ` WHERE resource=?`
		args = append(args, resource)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		var payload string
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.Resource, &e.EntityID, &e.RequestID, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, fmt.Errorf("event %d payload: %w", e.ID, err)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func nullableInt64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func notFound(err error) error {
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
