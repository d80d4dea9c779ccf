package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	employeeDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-management/internal/employee"
)

// EmployeeRepository implements employee.Repository and department.EmployeeDirectory.
type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

var _ employee.Repository = (*EmployeeRepository)(nil)

func (r *EmployeeRepository) GetAll(ctx context.Context) ([]*employeeDatamodel.Employee, error) {
	var employees []*employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Preload("Department").Order("id ASC").Find(&employees).Error
	return employees, err
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Preload("Department").Where("id = ?", id).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) GetByDepartmentID(ctx context.Context, departmentID int64) ([]*employeeDatamodel.Employee, error) {
	var employees []*employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Preload("Department").
		Where("department_id = ?", departmentID).
		Order("id ASC").
		Find(&employees).Error
	return employees, err
}

func (r *EmployeeRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&employeeDatamodel.Employee{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (r *EmployeeRepository) Create(ctx context.Context, emp *employeeDatamodel.Employee) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(emp).Error)
}

func (r *EmployeeRepository) Update(ctx context.Context, emp *employeeDatamodel.Employee) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(emp).Error)
}

func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&employeeDatamodel.Employee{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func (r *EmployeeRepository) CountByDepartmentID(ctx context.Context, departmentID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&employeeDatamodel.Employee{}).
		Where("department_id = ?", departmentID).
		Count(&count).Error
	return count, err
}

func (r *EmployeeRepository) FullName(ctx context.Context, employeeID int64) (string, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Select("first_name", "last_name").Where("id = ?", employeeID).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return emp.FirstName + " " + emp.LastName, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return employee.ErrEmployeeEmailTaken
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return employee.ErrDepartmentNotFound
	}
	return err
}
