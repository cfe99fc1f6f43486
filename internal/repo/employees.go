package repo

import (
	"context"
	"database/sql"

	"hrconsole/internal/domain"
)

const employeeSelect = `SELECT e.id,e.employee_code,e.full_name,e.department,e.position,e.email,e.phone,e.created_at,e.updated_at FROM employees e`

func scanEmployee(s scanner) (domain.Employee, error) {
	var e domain.Employee
	err := s.Scan(&e.ID, &e.EmployeeCode, &e.FullName, &e.Department, &e.Position, &e.Email, &e.Phone, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// ListEmployees matches term against name, code and email.
func (r Repo) ListEmployees(ctx context.Context, term string) ([]domain.Employee, error) {
	where, args := searchClause(term, "e.full_name", "e.employee_code", "e.email")
	rows, err := r.DB.QueryContext(ctx, employeeSelect+where+` ORDER BY e.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) GetEmployee(ctx context.Context, q Querier, id int64) (domain.Employee, error) {
	e, err := scanEmployee(q.QueryRowContext(ctx, employeeSelect+` WHERE e.id=?`, id))
	return e, notFound(err)
}

func (r Repo) InsertEmployeeTx(ctx context.Context, tx *sql.Tx, in domain.EmployeeInput, now string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO employees(employee_code,full_name,department,position,email,phone,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)`,
		in.EmployeeCode, in.FullName, in.Department, in.Position, in.Email, in.Phone, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateEmployeeTx(ctx context.Context, tx *sql.Tx, id int64, in domain.EmployeeInput, now string) error {
	return affectedOrNotFound(tx.ExecContext(ctx, `UPDATE employees SET employee_code=?, full_name=?, department=?, position=?, email=?, phone=?, updated_at=? WHERE id=?`,
		in.EmployeeCode, in.FullName, in.Department, in.Position, in.Email, in.Phone, now, id))
}
