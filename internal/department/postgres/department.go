package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	departmentDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/department"
	employeeDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-management/internal/department"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

var _ department.RepositoryAPI = (*DepartmentRepository)(nil)

func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error) {
	var departments []*departmentDatamodel.Department
	err := r.db.WithContext(ctx).Order("id ASC").Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error) {
	var dept departmentDatamodel.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, department.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

// GetByIDs is used by the employee service to embed department names.
func (r *DepartmentRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*departmentDatamodel.Department, error) {
	out := make(map[int64]*departmentDatamodel.Department, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []*departmentDatamodel.Department
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *DepartmentRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&departmentDatamodel.Department{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *departmentDatamodel.Department) error {
	return translate(r.db.WithContext(ctx).Create(dept).Error)
}

func (r *DepartmentRepository) Update(ctx context.Context, dept *departmentDatamodel.Department) error {
	res := r.db.WithContext(ctx).Omit(clause.Associations).Save(dept)
	if res.Error != nil {
		return translate(res.Error)
	}
	return nil
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&employeeDatamodel.Employee{}).Where("department_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return department.ErrDepartmentInUse
		}

		res := tx.Delete(&departmentDatamodel.Department{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return department.ErrDepartmentNotFound
		}
		return nil
	})
}

// translate maps constraint violations to domain errors. The unique index on name
// catches concurrent creates that both passed ExistsByName.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return department.ErrDepartmentNameTaken
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return department.ErrDepartmentInUse
	}
	return err
}
