package repo

import (
	"context"
	"database/sql"

	"hrconsole/internal/domain"
)

const attendanceSelect = `SELECT a.id,a.employee_id,COALESCE(e.full_name,''),a.date,a.status,a.notes,a.created_at,a.updated_at
FROM attendance a LEFT JOIN employees e ON e.id=a.employee_id`

func scanAttendance(s scanner) (domain.Attendance, error) {
	var a domain.Attendance
	err := s.Scan(&a.ID, &a.EmployeeID, &a.EmployeeName, &a.Date, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// ListAttendance matches term against the employee name, status and notes. Latest day first.
func (r Repo) ListAttendance(ctx context.Context, term string) ([]domain.Attendance, error) {
	where, args := searchClause(term, "e.full_name", "a.status", "a.notes")
	rows, err := r.DB.QueryContext(ctx, attendanceSelect+where+` ORDER BY a.date DESC, a.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) GetAttendance(ctx context.Context, q Querier, id int64) (domain.Attendance, error) {
	a, err := scanAttendance(q.QueryRowContext(ctx, attendanceSelect+` WHERE a.id=?`, id))
	return a, notFound(err)
}

func (r Repo) InsertAttendanceTx(ctx context.Context, tx *sql.Tx, in domain.AttendanceInput, now string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO attendance(employee_id,date,status,notes,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		nullableInt64Ptr(in.EmployeeID), nullableStringPtr(in.Date), in.Status, in.Notes, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateAttendanceTx(ctx context.Context, tx *sql.Tx, id int64, in domain.AttendanceInput, now string) error {
	return affectedOrNotFound(tx.ExecContext(ctx, `UPDATE attendance SET employee_id=?, date=?, status=?, notes=?, updated_at=? WHERE id=?`,
		nullableInt64Ptr(in.EmployeeID), nullableStringPtr(in.Date), in.Status, in.Notes, now, id))
}
