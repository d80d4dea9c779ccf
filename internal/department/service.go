package department

import (
	"context"
	"log/slog"

	departmentDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/department"
	"github.com/frahmantamala/employee-management/internal/core/events"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error)
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, department *departmentDatamodel.Department) error
	Update(ctx context.Context, department *departmentDatamodel.Department) error
	// Delete fails with ErrDepartmentInUse while any employee references the department.
	Delete(ctx context.Context, id int64) error
}

// EmployeeDirectory answers the questions a department response needs about employees.
type EmployeeDirectory interface {
	CountByDepartmentID(ctx context.Context, departmentID int64) (int64, error)
	// FullName returns "" when no employee has the id.
	FullName(ctx context.Context, employeeID int64) (string, error)
}

type Service struct {
	repo      RepositoryAPI
	employees EmployeeDirectory
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, employees EmployeeDirectory, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		employees: employees,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, dto DepartmentRequest) (*DepartmentResponse, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByName(ctx, dto.Name)
	if err != nil {
		s.logger.Error("failed to check department name", "name", dto.Name, "error", err)
		return nil, err
	}
	if taken {
		return nil, ErrDepartmentNameTaken
	}

	dept := NewDepartment(dto.Name, dto.Description, dto.ManagerID)
	row := ToDataModel(dept)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create department", "name", dto.Name, "error", err)
		return nil, err
	}

	s.logger.Info("department created", "department_id", row.ID, "name", row.Name)
	s.publisher.Publish(ctx, events.NewDepartmentEvent(events.EventTypeDepartmentCreated, row.ID, row.Name, row.Description))

	return s.toResponse(ctx, FromDataModel(row))
}

func (s *Service) GetAll(ctx context.Context) ([]DepartmentResponse, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get departments from repository", "error", err)
		return nil, err
	}

	responses := make([]DepartmentResponse, 0, len(rows))
	for _, row := range rows {
		resp, err := s.toResponse(ctx, FromDataModel(row))
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}

	s.logger.Debug("retrieved departments", "count", len(responses))
	return responses, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*DepartmentResponse, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, FromDataModel(row))
}

func (s *Service) Update(ctx context.Context, id int64, dto DepartmentRequest) (*DepartmentResponse, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dept := FromDataModel(row)

	if dept.Name != dto.Name {
		taken, err := s.repo.ExistsByName(ctx, dto.Name)
		if err != nil {
			s.logger.Error("failed to check department name", "name", dto.Name, "error", err)
			return nil, err
		}
		if taken {
			return nil, ErrDepartmentNameTaken
		}
	}

	dept.Apply(dto.Name, dto.Description, dto.ManagerID)
	updated := ToDataModel(dept)
	if err := s.repo.Update(ctx, updated); err != nil {
		s.logger.Error("failed to update department", "department_id", id, "error", err)
		return nil, err
	}

	s.logger.Info("department updated", "department_id", id)
	s.publisher.Publish(ctx, events.NewDepartmentEvent(events.EventTypeDepartmentUpdated, updated.ID, updated.Name, updated.Description))

	return s.toResponse(ctx, FromDataModel(updated))
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("department deleted", "department_id", id)
	s.publisher.Publish(ctx, events.NewDepartmentDeletedEvent(id))
	return nil
}

func (s *Service) toResponse(ctx context.Context, d *Department) (*DepartmentResponse, error) {
	count, err := s.employees.CountByDepartmentID(ctx, d.ID)
	if err != nil {
		s.logger.Error("failed to count department employees", "department_id", d.ID, "error", err)
		return nil, err
	}

	resp := &DepartmentResponse{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		ManagerID:     d.ManagerID,
		EmployeeCount: count,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}

	if d.ManagerID != nil {
		name, err := s.employees.FullName(ctx, *d.ManagerID)
		if err != nil {
			s.logger.Error("failed to resolve department manager", "manager_id", *d.ManagerID, "error", err)
			return nil, err
		}
		resp.ManagerName = name
	}

	return resp, nil
}
