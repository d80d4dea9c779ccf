package employee

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/employee-management/internal"
	departmentDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/department"
	employeeDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-management/internal/core/events"
	"github.com/frahmantamala/employee-management/internal/security"
)

// Repository loads employees with their department preloaded.
type Repository interface {
	GetAll(ctx context.Context) ([]*employeeDatamodel.Employee, error)
	GetByID(ctx context.Context, id int64) (*employeeDatamodel.Employee, error)
	GetByDepartmentID(ctx context.Context, departmentID int64) ([]*employeeDatamodel.Employee, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, employee *employeeDatamodel.Employee) error
	Update(ctx context.Context, employee *employeeDatamodel.Employee) error
	Delete(ctx context.Context, id int64) error
}

// DepartmentReader returns an error matching ErrDepartmentNotFound for unknown ids.
type DepartmentReader interface {
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
}

type Service struct {
	repo        Repository
	departments DepartmentReader
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewService(repo Repository, departments DepartmentReader, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *Service) Create(ctx context.Context, dto EmployeeRequest) (*EmployeeResponse, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.Error("failed to check employee email", "error", err)
		return nil, err
	}
	if taken {
		return nil, ErrEmployeeEmailTaken
	}

	emp := NewEmployee(dto.FirstName, dto.LastName, dto.Email, dto.Status)
	if dto.DepartmentID != nil {
		dept, err := s.departments.GetByID(ctx, *dto.DepartmentID)
		if err != nil {
			return nil, err
		}
		emp.AssignDepartment(dept)
	}

	row := ToDataModel(emp)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create employee", "error", err)
		return nil, err
	}
	emp.ID = row.ID
	emp.CreatedAt = row.CreatedAt
	emp.UpdatedAt = row.UpdatedAt

	s.logger.Info("employee created", "employee_id", emp.ID)
	s.publisher.Publish(ctx, events.NewEmployeeEvent(events.EventTypeEmployeeCreated, emp.ID, emp.Email, emp.FirstName, emp.LastName, emp.Status))

	resp := emp.ToResponse()
	return &resp, nil
}

func (s *Service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get employees from repository", "error", err)
		return nil, err
	}
	return toResponses(rows), nil
}

// GetByID enforces that callers without ADMIN or MANAGER only see their own record.
func (s *Service) GetByID(ctx context.Context, id int64, principal *internal.Principal) (*EmployeeResponse, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := security.CanViewEmployee(principal, row.Email); err != nil {
		s.logger.Warn("employee read denied", "employee_id", id)
		return nil, err
	}

	resp := FromDataModel(row).ToResponse()
	return &resp, nil
}

func (s *Service) GetByDepartment(ctx context.Context, departmentID int64) ([]EmployeeResponse, error) {
	rows, err := s.repo.GetByDepartmentID(ctx, departmentID)
	if err != nil {
		s.logger.Error("failed to get employees by department", "department_id", departmentID, "error", err)
		return nil, err
	}
	return toResponses(rows), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto EmployeeRequest) (*EmployeeResponse, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	emp := FromDataModel(row)

	if emp.Email != dto.Email {
		taken, err := s.repo.ExistsByEmail(ctx, dto.Email)
		if err != nil {
			s.logger.Error("failed to check employee email", "error", err)
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}

	emp.FirstName = dto.FirstName
	emp.LastName = dto.LastName
	emp.Email = dto.Email
	emp.Status = dto.Status

	if dto.DepartmentID != nil {
		dept, err := s.departments.GetByID(ctx, *dto.DepartmentID)
		if err != nil {
			return nil, err
		}
		emp.AssignDepartment(dept)
	}

	updated := ToDataModel(emp)
	if err := s.repo.Update(ctx, updated); err != nil {
		s.logger.Error("failed to update employee", "employee_id", id, "error", err)
		return nil, err
	}
	emp.UpdatedAt = updated.UpdatedAt

	s.logger.Info("employee updated", "employee_id", id)
	s.publisher.Publish(ctx, events.NewEmployeeEvent(events.EventTypeEmployeeUpdated, emp.ID, emp.Email, emp.FirstName, emp.LastName, emp.Status))

	resp := emp.ToResponse()
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete employee", "employee_id", id, "error", err)
		return err
	}

	s.logger.Info("employee deleted", "employee_id", id)
	s.publisher.Publish(ctx, events.NewEmployeeDeletedEvent(id))
	return nil
}

func toResponses(rows []*employeeDatamodel.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row).ToResponse())
	}
	return out
}
