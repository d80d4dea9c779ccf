package department

import (
	"time"

	"github.com/frahmantamala/employee-management/internal"
	departmentDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/department"
)

var (
	ErrDepartmentNotFound  = internal.NewNotFoundError("Department not found", internal.ErrCodeDepartmentNotFound)
	ErrDepartmentNameTaken = internal.NewConflictError("Department with this name already exists", internal.ErrCodeDepartmentNameTaken)
	ErrDepartmentInUse     = internal.NewConflictError("Cannot delete department with existing employees", internal.ErrCodeDepartmentInUse)
)

type Department struct {
	ID          int64
	Name        string
	Description string
	ManagerID   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewDepartment(name, description string, managerID *int64) *Department {
	now := time.Now()
	return &Department{
		Name:        name,
		Description: description,
		ManagerID:   managerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply overwrites the mutable fields. managerId is replaced as given, including nil.
func (d *Department) Apply(name, description string, managerID *int64) {
	d.Name = name
	d.Description = description
	d.ManagerID = managerID
	d.UpdatedAt = time.Now()
}

func ToDataModel(d *Department) *departmentDatamodel.Department {
	return &departmentDatamodel.Department{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		ManagerID:   d.ManagerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func FromDataModel(d *departmentDatamodel.Department) *Department {
	return &Department{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		ManagerID:   d.ManagerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
