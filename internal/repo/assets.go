package repo

import (
	"context"
	"database/sql"

	"hrconsole/internal/domain"
)

const assetSelect = `SELECT a.id,a.asset_name,COALESCE(a.asset_code,''),a.status,a.employee_id,e.full_name,a.date_assigned,a.created_at,a.updated_at
FROM assets a LEFT JOIN employees e ON e.id=a.employee_id`

func scanAsset(s scanner) (domain.Asset, error) {
	var a domain.Asset
	var holder sql.NullInt64
	var holderName, assigned sql.NullString
	err := s.Scan(&a.ID, &a.AssetName, &a.AssetCode, &a.Status, &holder, &holderName, &assigned, &a.CreatedAt, &a.UpdatedAt)
	if holder.Valid {
		id := holder.Int64
		a.EmployeeID = &id
	}
	a.EmployeeName = stringPtr(holderName)
	a.DateAssigned = stringPtr(assigned)
	return a, err
}

// ListAssets matches term against asset name, code and holder name.
func (r Repo) ListAssets(ctx context.Context, term string) ([]domain.Asset, error) {
	where, args := searchClause(term, "a.asset_name", "a.asset_code", "e.full_name")
	rows, err := r.DB.QueryContext(ctx, assetSelect+where+` ORDER BY a.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) GetAsset(ctx context.Context, q Querier, id int64) (domain.Asset, error) {
	a, err := scanAsset(q.QueryRowContext(ctx, assetSelect+` WHERE a.id=?`, id))
	return a, notFound(err)
}

// InsertAssetTx stores an asset. An empty code is stored as NULL so codes stay unique only when set.
func (r Repo) InsertAssetTx(ctx context.Context, tx *sql.Tx, in domain.AssetInput, now string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO assets(asset_name,asset_code,status,employee_id,date_assigned,created_at,updated_at) VALUES (?,?,?,?,?,?,?)`,
		in.AssetName, nullable(in.AssetCode), in.Status, nullableInt64Ptr(in.EmployeeID), nullableStringPtr(in.DateAssigned), now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateAssetTx(ctx context.Context, tx *sql.Tx, id int64, in domain.AssetInput, now string) error {
	return affectedOrNotFound(tx.ExecContext(ctx, `UPDATE assets SET asset_name=?, asset_code=?, status=?, employee_id=?, date_assigned=?, updated_at=? WHERE id=?`,
		in.AssetName, nullable(in.AssetCode), in.Status, nullableInt64Ptr(in.EmployeeID), nullableStringPtr(in.DateAssigned), now, id))
}
