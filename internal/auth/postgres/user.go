package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/employee-management/internal/auth"
	userDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ auth.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.WithContext(ctx).
		Preload("Roles", func(db *gorm.DB) *gorm.DB { return db.Order("roles.id ASC") }).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) Create(ctx context.Context, user *userDatamodel.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roles := make([]userDatamodel.Role, 0, len(user.Roles))
		for _, wanted := range user.Roles {
			role := userDatamodel.Role{Name: wanted.Name}
			if err := tx.Where("name = ?", wanted.Name).FirstOrCreate(&role).Error; err != nil {
				return err
			}
			roles = append(roles, role)
		}

		user.Roles = nil
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return auth.ErrEmailTaken
			}
			return err
		}

		if len(roles) > 0 {
			if err := tx.Model(user).Association("Roles").Append(roles); err != nil {
				return err
			}
		}
		user.Roles = roles
		return nil
	})
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *userDatamodel.User) error {
	return r.db.WithContext(ctx).Model(user).
		Omit(clause.Associations).
		Updates(map[string]interface{}{
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		}).Error
}
