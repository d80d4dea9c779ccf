package employee

import (
	"time"

	departmentDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/department"
)

type Employee struct {
	ID           int64                           `gorm:"primaryKey"`
	FirstName    string                          `gorm:"column:first_name;not null"`
	LastName     string                          `gorm:"column:last_name;not null"`
	Email        string                          `gorm:"column:email;uniqueIndex;not null"`
	Status       string                          `gorm:"column:status;not null;default:ACTIVE"`
	DepartmentID *int64                          `gorm:"column:department_id;index"`
	Department   *departmentDatamodel.Department `gorm:"foreignKey:DepartmentID"`
	CreatedAt    time.Time                       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "employees"
}
