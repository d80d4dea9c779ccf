package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/employee-management/internal"
	userDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/user"
)

var (
	ErrUserNotFound       = internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
	ErrEmailTaken         = internal.NewConflictError("Email already exists", internal.ErrCodeUserEmailTaken)
	ErrInvalidCredentials = internal.ErrInvalidCredentials
	ErrInvalidRefresh     = internal.NewUnauthorizedError("Invalid refresh token", internal.ErrCodeInvalidToken)
	ErrRoleNotGrantable   = internal.NewForbiddenError("Only an admin can assign roles other than EMPLOYEE", internal.ErrCodeRoleNotGrantable)
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) ToUserInfo() UserInfo {
	return UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     append([]string{}, u.Roles...),
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	row := &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	for _, name := range u.Roles {
		row.Roles = append(row.Roles, userDatamodel.Role{Name: name})
	}
	return row
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Roles:        u.RoleNames(),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
