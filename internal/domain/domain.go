package domain

// Enumerated values accepted by the API.
var (
	ContractTypes      = []string{"HĐ chính thức", "HĐ thử việc", "Hợp đồng hợp tác", "HĐ thời vụ"}
	ContractStatuses   = []string{"Đang hiệu lực", "Hết hạn", "Đã thanh lý"}
	AttendanceStatuses = []string{"Đi làm", "Nghỉ phép", "Nghỉ ốm", "Đi muộn", "Về sớm", "Vắng"}
	AssetStatuses      = []string{"Trong kho", "Đang sử dụng", "Hỏng", "Thanh lý"}
)

type Employee struct {
	ID           int64  `json:"id"`
	EmployeeCode string `json:"employee_code"`
	FullName     string `json:"full_name"`
	Department   string `json:"department"`
	Position     string `json:"position"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	CreatedAt    string `json:"created_at" format:"date-time"`
	UpdatedAt    string `json:"updated_at" format:"date-time"`
}

type Contract struct {
	ID           int64   `json:"id"`
	EmployeeID   int64   `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	ContractCode string  `json:"contract_code"`
	ContractType string  `json:"contract_type"`
	StartDate    *string `json:"start_date" format:"date" nullable:"true"`
	EndDate      *string `json:"end_date" format:"date" nullable:"true"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
	UpdatedAt    string  `json:"updated_at" format:"date-time"`
}

type Training struct {
	ID           int64  `json:"id"`
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	CourseName   string `json:"course_name"`
	TrainerName  string `json:"trainer_name"`
	StartDate    string `json:"start_date" format:"date"`
	EndDate      string `json:"end_date" format:"date"`
	Score        *int   `json:"score" minimum:"0" maximum:"100" nullable:"true"`
	CreatedAt    string `json:"created_at" format:"date-time"`
	UpdatedAt    string `json:"updated_at" format:"date-time"`
}

type Attendance struct {
	ID           int64  `json:"id"`
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Date         string `json:"date" format:"date"`
	Status       string `json:"status"`
	Notes        string `json:"notes"`
	CreatedAt    string `json:"created_at" format:"date-time"`
	UpdatedAt    string `json:"updated_at" format:"date-time"`
}

type Asset struct {
	ID           int64   `json:"id"`
	AssetName    string  `json:"asset_name"`
	AssetCode    string  `json:"asset_code"`
	Status       string  `json:"status"`
	EmployeeID   *int64  `json:"employee_id" nullable:"true"`
	EmployeeName *string `json:"employee_name" nullable:"true"`
	DateAssigned *string `json:"date_assigned" format:"date" nullable:"true"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
	UpdatedAt    string  `json:"updated_at" format:"date-time"`
}

// Write payloads. Every field is optional on the wire; the engine enforces what is required.

type EmployeeInput struct {
	EmployeeCode string `json:"employee_code,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	Department   string `json:"department,omitempty"`
	Position     string `json:"position,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type ContractInput struct {
	EmployeeID   *int64  `json:"employee_id,omitempty" nullable:"true"`
	ContractCode string  `json:"contract_code,omitempty"`
	ContractType string  `json:"contract_type,omitempty"`
	StartDate    *string `json:"start_date,omitempty" nullable:"true"`
	EndDate      *string `json:"end_date,omitempty" nullable:"true"`
	Status       string  `json:"status,omitempty"`
}

type TrainingInput struct {
	EmployeeID  *int64  `json:"employee_id,omitempty" nullable:"true"`
	CourseName  string  `json:"course_name,omitempty"`
	TrainerName string  `json:"trainer_name,omitempty"`
	StartDate   *string `json:"start_date,omitempty" nullable:"true"`
	EndDate     *string `json:"end_date,omitempty" nullable:"true"`
	Score       *int    `json:"score,omitempty" nullable:"true"`
}

type AttendanceInput struct {
	EmployeeID *int64  `json:"employee_id,omitempty" nullable:"true"`
	Date       *string `json:"date,omitempty" nullable:"true"`
	Status     string  `json:"status,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

type AssetInput struct {
	AssetName    string  `json:"asset_name,omitempty"`
	AssetCode    string  `json:"asset_code,omitempty"`
	Status       string  `json:"status,omitempty"`
	EmployeeID   *int64  `json:"employee_id,omitempty" nullable:"true"`
	DateAssigned *string `json:"date_assigned,omitempty" nullable:"true"`
}

type Event struct {
	ID        int64          `json:"id"`
	TS        string         `json:"ts" format:"date-time"`
	Type      string         `json:"type"`
	Resource  string         `json:"resource"`
	EntityID  int64          `json:"entity_id"`
	RequestID string         `json:"request_id,omitempty"`
	Payload   map[string]any `json:"payload"`
}
