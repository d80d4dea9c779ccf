package department

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/core/common/validation"
)

// DepartmentRequest is the body of both create and update.
type DepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ManagerID   *int64 `json:"managerId"`
}

func (dto *DepartmentRequest) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Description = strings.TrimSpace(dto.Description)
}

func (dto DepartmentRequest) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(100)
	v.Field("description", dto.Description).MaxLength(500)
	if dto.ManagerID != nil {
		v.Field("managerId", *dto.ManagerID).Custom(func(value interface{}) *errors.AppError {
			if id, _ := value.(int64); id <= 0 {
				return errors.NewValidationFieldError("managerId", "managerId must be positive", errors.ErrCodeInvalidID)
			}
			return nil
		})
	}
	return v.Validate()
}

type DepartmentResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	ManagerID     *int64    `json:"managerId"`
	ManagerName   string    `json:"managerName,omitempty"`
	EmployeeCount int64     `json:"employeeCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
