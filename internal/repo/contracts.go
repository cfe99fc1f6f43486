package repo

import (
	"context"
	"database/sql"

	"hrconsole/internal/domain"
)

const contractSelect = `SELECT c.id,c.employee_id,COALESCE(e.full_name,''),c.contract_code,c.contract_type,c.start_date,c.end_date,c.status,c.created_at,c.updated_at
FROM contracts c LEFT JOIN employees e ON e.id=c.employee_id`

func scanContract(s scanner) (domain.Contract, error) {
	var c domain.Contract
	var start, end sql.NullString
	err := s.Scan(&c.ID, &c.EmployeeID, &c.EmployeeName, &c.ContractCode, &c.ContractType, &start, &end, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	c.StartDate = stringPtr(start)
	c.EndDate = stringPtr(end)
	return c, err
}

// ListContracts matches term against the contract code and the holder's name.
func (r Repo) ListContracts(ctx context.Context, term string) ([]domain.Contract, error) {
	where, args := searchClause(term, "c.contract_code", "e.full_name")
	rows, err := r.DB.QueryContext(ctx, contractSelect+where+` ORDER BY c.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Contract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) GetContract(ctx context.Context, q Querier, id int64) (domain.Contract, error) {
	c, err := scanContract(q.QueryRowContext(ctx, contractSelect+` WHERE c.id=?`, id))
	return c, notFound(err)
}

func (r Repo) InsertContractTx(ctx context.Context, tx *sql.Tx, in domain.ContractInput, now string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO contracts(employee_id,contract_code,contract_type,start_date,end_date,status,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)`,
		nullableInt64Ptr(in.EmployeeID), in.ContractCode, in.ContractType, nullableStringPtr(in.StartDate), nullableStringPtr(in.EndDate), in.Status, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateContractTx(ctx context.Context, tx *sql.Tx, id int64, in domain.ContractInput, now string) error {
	return affectedOrNotFound(tx.ExecContext(ctx, `UPDATE contracts SET employee_id=?, contract_code=?, contract_type=?, start_date=?, end_date=?, status=?, updated_at=? WHERE id=?`,
		nullableInt64Ptr(in.EmployeeID), in.ContractCode, in.ContractType, nullableStringPtr(in.StartDate), nullableStringPtr(in.EndDate), in.Status, now, id))
}
