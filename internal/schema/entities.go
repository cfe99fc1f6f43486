package schema

import (
	"sort"
	"time"
)

// Enumerated values as stored by the HR API.
var (
	ContractTypes    = []string{"HĐ chính thức", "HĐ thử việc", "Hợp đồng hợp tác", "HĐ thời vụ"}
	ContractStatuses = []string{"Đang hiệu lực", "Hết hạn", "Đã thanh lý"}
	AttendanceStates = []string{"Đi làm", "Nghỉ phép", "Nghỉ ốm", "Đi muộn", "Về sớm", "Vắng"}
	AssetStatuses    = []string{"Trong kho", "Đang sử dụng", "Hỏng", "Thanh lý"}
)

const (
	AssetDateRequiredMessage = "date required when assigning to holder"
	ScoreRangeMessage        = "score must be 0-100"
)

func today(now time.Time) string { return now.Format(DateLayout) }

func employeeReference() *Reference {
	return &Reference{
		Field:        "employee_id",
		Resource:     "employees",
		LabelFields:  []string{"employee_code", "full_name"},
		FetchMessage: "could not load employees for selection",
	}
}

// Employees is the employee directory.
func Employees() *Schema {
	return &Schema{
		Name:         "employee",
		Resource:     "employees",
		FetchMessage: "could not load employees",
		Fields: []Field{
			{Key: "employee_code", Label: "Employee code", Kind: KindText, Required: true},
			{Key: "full_name", Label: "Full name", Kind: KindText, Required: true},
			{Key: "department", Label: "Department", Kind: KindText},
			{Key: "position", Label: "Position", Kind: KindText},
			{Key: "email", Label: "Email", Kind: KindText},
			{Key: "phone", Label: "Phone", Kind: KindText},
		},
		Columns: []string{"employee_code", "full_name", "department", "position", "email", "phone"},
	}
}

// Contracts are employment contracts.
func Contracts() *Schema {
	return &Schema{
		Name:         "contract",
		Resource:     "contracts",
		FetchMessage: "could not load contracts",
		Fields: []Field{
			{Key: "employee_id", Label: "Employee", Kind: KindReference, Required: true},
			{Key: "contract_code", Label: "Contract code", Kind: KindText, Required: true},
			{Key: "contract_type", Label: "Contract type", Kind: KindEnum, Default: ContractTypes[0], Options: ContractTypes},
			{Key: "start_date", Label: "Start date", Kind: KindDate},
			{Key: "end_date", Label: "End date", Kind: KindDate},
			{Key: "status", Label: "Status", Kind: KindEnum, Default: ContractStatuses[0], Options: ContractStatuses},
		},
		Reference: employeeReference(),
		Columns:   []string{"contract_code", "employee_name", "contract_type", "start_date", "end_date", "status"},
	}
}

// Training records courses attended by employees.
func Training() *Schema {
	return &Schema{
		Name:         "training",
		Resource:     "training",
		FetchMessage: "could not load training records",
		Fields: []Field{
			{Key: "employee_id", Label: "Employee", Kind: KindReference, Required: true},
			{Key: "course_name", Label: "Course", Kind: KindText, Required: true},
			{Key: "trainer_name", Label: "Trainer", Kind: KindText},
			{Key: "score", Label: "Score", Kind: KindNumber},
			{Key: "start_date", Label: "Start date", Kind: KindDate, Required: true},
			{Key: "end_date", Label: "End date", Kind: KindDate, Required: true},
		},
		Rules: []Rule{
			IntRange{Key: "score", Min: 0, Max: 100, Message: ScoreRangeMessage},
		},
		Reference: employeeReference(),
		Columns:   []string{"employee_name", "course_name", "trainer_name", "start_date", "end_date", "score"},
	}
}

// Attendance is the daily attendance log.
func Attendance() *Schema {
	return &Schema{
		Name:         "attendance",
		Resource:     "attendance",
		FetchMessage: "could not load attendance",
		Fields: []Field{
			{Key: "employee_id", Label: "Employee", Kind: KindReference, Required: true},
			{Key: "date", Label: "Date", Kind: KindDate, Required: true, DefaultFunc: today},
			{Key: "status", Label: "Status", Kind: KindEnum, Required: true, Default: AttendanceStates[0], Options: AttendanceStates},
			{Key: "notes", Label: "Notes", Kind: KindText},
		},
		Reference: employeeReference(),
		Columns:   []string{"employee_name", "date", "status", "notes"},
	}
}

// Assets are company assets, optionally held by an employee.
func Assets() *Schema {
	return &Schema{
		Name:         "asset",
		Resource:     "assets",
		FetchMessage: "could not load assets",
		Fields: []Field{
			{Key: "asset_name", Label: "Asset name", Kind: KindText, Required: true},
			{Key: "asset_code", Label: "Asset code", Kind: KindText},
			{Key: "status", Label: "Status", Kind: KindEnum, Required: true, Default: AssetStatuses[0], Options: AssetStatuses},
			{Key: "employee_id", Label: "Holder", Kind: KindReference},
			{Key: "date_assigned", Label: "Date assigned", Kind: KindDate},
		},
		Rules: []Rule{
			ClearWhenEmpty{Reference: "employee_id", Dependent: "date_assigned"},
			RequiredWhenSet{Reference: "employee_id", Dependent: "date_assigned", Message: AssetDateRequiredMessage},
		},
		Reference: employeeReference(),
		Columns:   []string{"asset_name", "asset_code", "status", "employee_name", "date_assigned"},
	}
}

var registry = map[string]func() *Schema{
	"employees":  Employees,
	"contracts":  Contracts,
	"training":   Training,
	"attendance": Attendance,
	"assets":     Assets,
}

// Lookup returns the schema for a resource path segment.
func Lookup(resource string) (*Schema, bool) {
	fn, ok := registry[resource]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Resources lists the known resources in a stable order.
func Resources() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
