package employee

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/core/common/validation"
)

// EmployeeRequest is the body of both create and update.
// A nil departmentId on update keeps the current department.
type EmployeeRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	DepartmentID *int64 `json:"departmentId"`
	Status       string `json:"status"`
}

func (dto *EmployeeRequest) Normalize() {
	dto.FirstName = strings.TrimSpace(dto.FirstName)
	dto.LastName = strings.TrimSpace(dto.LastName)
	dto.Email = strings.TrimSpace(dto.Email)
	dto.Status = strings.ToUpper(strings.TrimSpace(dto.Status))
}

func (dto EmployeeRequest) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("firstName", dto.FirstName).Required().MaxLength(100)
	v.Field("lastName", dto.LastName).Required().MaxLength(100)
	v.Field("email", dto.Email).Required().Email().MaxLength(255)
	v.Field("status", dto.Status).Required().OneOf(Statuses, errors.ErrCodeInvalidStatus)
	return v.Validate()
}

type DepartmentInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type EmployeeResponse struct {
	EmployeeID int64           `json:"employeeId"`
	FirstName  string          `json:"firstName"`
	LastName   string          `json:"lastName"`
	Email      string          `json:"email"`
	Department *DepartmentInfo `json:"department"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
