package employee

import (
	"time"

	"github.com/frahmantamala/employee-management/internal"
	departmentDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/department"
	employeeDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/employee"
)

const (
	StatusActive     = "ACTIVE"
	StatusInactive   = "INACTIVE"
	StatusOnLeave    = "ON_LEAVE"
	StatusTerminated = "TERMINATED"
)

var Statuses = []string{StatusActive, StatusInactive, StatusOnLeave, StatusTerminated}

var (
	ErrEmployeeNotFound   = internal.NewNotFoundError("Employee not found", internal.ErrCodeEmployeeNotFound)
	ErrEmployeeEmailTaken = internal.NewConflictError("Employee with this email already exists", internal.ErrCodeEmployeeEmailTaken)
	ErrEmailTaken         = internal.NewConflictError("Email already exists", internal.ErrCodeEmployeeEmailTaken)
	ErrDepartmentNotFound = internal.NewNotFoundError("Department not found", internal.ErrCodeDepartmentNotFound)
)

type Employee struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Status       string
	DepartmentID *int64
	Department   *DepartmentInfo
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewEmployee(firstName, lastName, email, status string) *Employee {
	now := time.Now()
	return &Employee{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// AssignDepartment sets both the reference and the embedded summary.
func (e *Employee) AssignDepartment(d *departmentDatamodel.Department) {
	if d == nil {
		e.DepartmentID = nil
		e.Department = nil
		return
	}
	id := d.ID
	e.DepartmentID = &id
	e.Department = &DepartmentInfo{ID: d.ID, Name: d.Name}
}

func (e *Employee) ToResponse() EmployeeResponse {
	return EmployeeResponse{
		EmployeeID: e.ID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Department: e.Department,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		ID:           e.ID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Email:        e.Email,
		Status:       e.Status,
		DepartmentID: e.DepartmentID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	emp := &Employee{
		ID:           e.ID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Email:        e.Email,
		Status:       e.Status,
		DepartmentID: e.DepartmentID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	if e.Department != nil {
		emp.Department = &DepartmentInfo{ID: e.Department.ID, Name: e.Department.Name}
	}
	return emp
}
