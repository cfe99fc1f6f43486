package engine

import (
	"context"
	"database/sql"
	"strings"

	"hrconsole/internal/domain"
)

func cleanEmployee(in domain.EmployeeInput) (domain.EmployeeInput, error) {
	in.EmployeeCode = strings.TrimSpace(in.EmployeeCode)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Department = strings.TrimSpace(in.Department)
	in.Position = strings.TrimSpace(in.Position)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := required("employee_code", in.EmployeeCode); err != nil {
		return in, err
	}
	if err := required("full_name", in.FullName); err != nil {
		return in, err
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return in, ValidationError{Field: "email", Message: "email is not a valid address"}
	}
	return in, nil
}

// SaveEmployee creates the employee when id is zero and updates it otherwise.
func (e Engine) SaveEmployee(ctx context.Context, id int64, in domain.EmployeeInput) (domain.Employee, error) {
	in, err := cleanEmployee(in)
	if err != nil {
		return domain.Employee{}, err
	}
	var out domain.Employee
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		if err := e.ensureUnique(ctx, tx, "employees", "employee_code", in.EmployeeCode, id); err != nil {
			return err
		}
		action := "updated"
		if id == 0 {
			action = "created"
			newID, err := e.Repo.InsertEmployeeTx(ctx, tx, in, e.stamp())
			if err != nil {
				return err
			}
			id = newID
		} else if err := e.Repo.UpdateEmployeeTx(ctx, tx, id, in, e.stamp()); err != nil {
			return err
		}
		var err error
		if out, err = e.Repo.GetEmployee(ctx, tx, id); err != nil {
			return err
		}
		return e.record(ctx, tx, "employees", action, id, out)
	})
	return out, err
}

func cleanContract(in domain.ContractInput) (domain.ContractInput, error) {
	in.ContractCode = strings.TrimSpace(in.ContractCode)
	in.ContractType = defaulted(in.ContractType, domain.ContractTypes[0])
	in.Status = defaulted(in.Status, domain.ContractStatuses[0])
	if err := required("contract_code", in.ContractCode); err != nil {
		return in, err
	}
	if err := oneOf("contract_type", in.ContractType, domain.ContractTypes); err != nil {
		return in, err
	}
	if err := oneOf("status", in.Status, domain.ContractStatuses); err != nil {
		return in, err
	}
	var err error
	if in.StartDate, err = date("start_date", in.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = date("end_date", in.EndDate); err != nil {
		return in, err
	}
	return in, dateOrder(in.StartDate, in.EndDate)
}

// SaveContract creates the contract when id is zero and updates it otherwise.
func (e Engine) SaveContract(ctx context.Context, id int64, in domain.ContractInput) (domain.Contract, error) {
	in, err := cleanContract(in)
	if err != nil {
		return domain.Contract{}, err
	}
	var out domain.Contract
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		if err := e.ensureEmployee(ctx, tx, in.EmployeeID, true); err != nil {
			return err
		}
		if err := e.ensureUnique(ctx, tx, "contracts", "contract_code", in.ContractCode, id); err != nil {
			return err
		}
		action := "updated"
		if id == 0 {
			action = "created"
			newID, err := e.Repo.InsertContractTx(ctx, tx, in, e.stamp())
			if err != nil {
				return err
			}
			id = newID
		} else if err := e.Repo.UpdateContractTx(ctx, tx, id, in, e.stamp()); err != nil {
			return err
		}
		var err error
		if out, err = e.Repo.GetContract(ctx, tx, id); err != nil {
			return err
		}
		return e.record(ctx, tx, "contracts", action, id, out)
	})
	return out, err
}

func cleanTraining(in domain.TrainingInput) (domain.TrainingInput, error) {
	in.CourseName = strings.TrimSpace(in.CourseName)
	in.TrainerName = strings.TrimSpace(in.TrainerName)
	if err := required("course_name", in.CourseName); err != nil {
		return in, err
	}
	var err error
	if in.StartDate, err = date("start_date", in.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = date("end_date", in.EndDate); err != nil {
		return in, err
	}
	if in.StartDate == nil {
		return in, ValidationError{Field: "start_date", Message: "start_date is required"}
	}
	if in.EndDate == nil {
		return in, ValidationError{Field: "end_date", Message: "end_date is required"}
	}
	if in.Score != nil && (*in.Score < 0 || *in.Score > 100) {
		return in, ValidationError{Field: "score", Message: "score must be 0-100"}
	}
	return in, dateOrder(in.StartDate, in.EndDate)
}

// SaveTraining creates the training record when id is zero and updates it otherwise.
func (e Engine) SaveTraining(ctx context.Context, id int64, in domain.TrainingInput) (domain.Training, error) {
	in, err := cleanTraining(in)
	if err != nil {
		return domain.Training{}, err
	}
	var out domain.Training
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		if err := e.ensureEmployee(ctx, tx, in.EmployeeID, true); err != nil {
			return err
		}
		action := "updated"
		if id == 0 {
			action = "created"
			newID, err := e.Repo.InsertTrainingTx(ctx, tx, in, e.stamp())
			if err != nil {
				return err
			}
			id = newID
		} else if err := e.Repo.UpdateTrainingTx(ctx, tx, id, in, e.stamp()); err != nil {
			return err
		}
		var err error
		if out, err = e.Repo.GetTraining(ctx, tx, id); err != nil {
			return err
		}
		return e.record(ctx, tx, "training", action, id, out)
	})
	return out, err
}

func (e Engine) cleanAttendance(in domain.AttendanceInput) (domain.AttendanceInput, error) {
	in.Status = defaulted(in.Status, domain.AttendanceStatuses[0])
	in.Notes = strings.TrimSpace(in.Notes)
	if err := oneOf("status", in.Status, domain.AttendanceStatuses); err != nil {
		return in, err
	}
	var err error
	if in.Date, err = date("date", in.Date); err != nil {
		return in, err
	}
	if in.Date == nil {
		today := e.now().Format(dateLayout)
		in.Date = &today
	}
	return in, nil
}

// SaveAttendance creates the entry when id is zero and updates it otherwise. A missing date
// means today.
func (e Engine) SaveAttendance(ctx context.Context, id int64, in domain.AttendanceInput) (domain.Attendance, error) {
	in, err := e.cleanAttendance(in)
	if err != nil {
		return domain.Attendance{}, err
	}
	var out domain.Attendance
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		if err := e.ensureEmployee(ctx, tx, in.EmployeeID, true); err != nil {
			return err
		}
		action := "updated"
		if id == 0 {
			action = "created"
			newID, err := e.Repo.InsertAttendanceTx(ctx, tx, in, e.stamp())
			if err != nil {
				return err
			}
			id = newID
		} else if err := e.Repo.UpdateAttendanceTx(ctx, tx, id, in, e.stamp()); err != nil {
			return err
		}
		var err error
		if out, err = e.Repo.GetAttendance(ctx, tx, id); err != nil {
			return err
		}
		return e.record(ctx, tx, "attendance", action, id, out)
	})
	return out, err
}

func cleanAsset(in domain.AssetInput) (domain.AssetInput, error) {
	in.AssetName = strings.TrimSpace(in.AssetName)
	in.AssetCode = strings.TrimSpace(in.AssetCode)
	in.Status = defaulted(in.Status, domain.AssetStatuses[0])
	if err := required("asset_name", in.AssetName); err != nil {
		return in, err
	}
	if err := oneOf("status", in.Status, domain.AssetStatuses); err != nil {
		return in, err
	}
	if in.EmployeeID == nil {
		in.DateAssigned = nil
		return in, nil
	}
	var err error
	if in.DateAssigned, err = date("date_assigned", in.DateAssigned); err != nil {
		return in, err
	}
	if in.DateAssigned == nil {
		return in, ValidationError{Field: "date_assigned", Message: "date required when assigning to holder"}
	}
	return in, nil
}

// SaveAsset creates the asset when id is zero and updates it otherwise. An asset without a
// holder never keeps an assignment date.
func (e Engine) SaveAsset(ctx context.Context, id int64, in domain.AssetInput) (domain.Asset, error) {
	in, err := cleanAsset(in)
	if err != nil {
		return domain.Asset{}, err
	}
	var out domain.Asset
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		if err := e.ensureEmployee(ctx, tx, in.EmployeeID, false); err != nil {
			return err
		}
		if err := e.ensureUnique(ctx, tx, "assets", "asset_code", in.AssetCode, id); err != nil {
			return err
		}
		action := "updated"
		if id == 0 {
			action = "created"
			newID, err := e.Repo.InsertAssetTx(ctx, tx, in, e.stamp())
			if err != nil {
				return err
			}
			id = newID
		} else if err := e.Repo.UpdateAssetTx(ctx, tx, id, in, e.stamp()); err != nil {
			return err
		}
		var err error
		if out, err = e.Repo.GetAsset(ctx, tx, id); err != nil {
			return err
		}
		return e.record(ctx, tx, "assets", action, id, out)
	})
	return out, err
}
