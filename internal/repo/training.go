package repo

import (
	"context"
	"database/sql"

	"hrconsole/internal/domain"
)

const trainingSelect = `SELECT t.id,t.employee_id,COALESCE(e.full_name,''),t.course_name,t.trainer_name,t.start_date,t.end_date,t.score,t.created_at,t.updated_at
FROM training t LEFT JOIN employees e ON e.id=t.employee_id`

func scanTraining(s scanner) (domain.Training, error) {
	var t domain.Training
	var score sql.NullInt64
	err := s.Scan(&t.ID, &t.EmployeeID, &t.EmployeeName, &t.CourseName, &t.TrainerName, &t.StartDate, &t.EndDate, &score, &t.CreatedAt, &t.UpdatedAt)
	if score.Valid {
		v := int(score.Int64)
		t.Score = &v
	}
	return t, err
}

// ListTraining matches term against course, trainer and trainee name.
func (r Repo) ListTraining(ctx context.Context, term string) ([]domain.Training, error) {
	where, args := searchClause(term, "t.course_name", "t.trainer_name", "e.full_name")
	rows, err := r.DB.QueryContext(ctx, trainingSelect+where+` ORDER BY t.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Training{}
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) GetTraining(ctx context.Context, q Querier, id int64) (domain.Training, error) {
	t, err := scanTraining(q.QueryRowContext(ctx, trainingSelect+` WHERE t.id=?`, id))
	return t, notFound(err)
}

func (r Repo) InsertTrainingTx(ctx context.Context, tx *sql.Tx, in domain.TrainingInput, now string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO training(employee_id,course_name,trainer_name,start_date,end_date,score,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)`,
		nullableInt64Ptr(in.EmployeeID), in.CourseName, in.TrainerName, nullableStringPtr(in.StartDate), nullableStringPtr(in.EndDate), nullableIntPtr(in.Score), now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateTrainingTx(ctx context.Context, tx *sql.Tx, id int64, in domain.TrainingInput, now string) error {
	return affectedOrNotFound(tx.ExecContext(ctx, `UPDATE training SET employee_id=?, course_name=?, trainer_name=?, start_date=?, end_date=?, score=?, updated_at=? WHERE id=?`,
		nullableInt64Ptr(in.EmployeeID), in.CourseName, in.TrainerName, nullableStringPtr(in.StartDate), nullableStringPtr(in.EndDate), nullableIntPtr(in.Score), now, id))
}
