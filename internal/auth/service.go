package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/employee-management/internal"
	userDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/user"
	"github.com/frahmantamala/employee-management/internal/core/events"
	"github.com/frahmantamala/employee-management/internal/security"
)

type UserRepository interface {
	// GetByEmail returns ErrUserNotFound when no user has the email.
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create persists the user and links its roles, creating missing role rows.
	Create(ctx context.Context, user *userDatamodel.User) error
	UpdateProfile(ctx context.Context, user *userDatamodel.User) error
}

type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BCryptCost int
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo     UserRepository
	accessCodec  *security.Codec
	refreshCodec *security.Codec
	tokens       TokenConfig
	publisher    events.Publisher
	logger       *slog.Logger
}

// NewService wires the access codec shared with every service and a refresh codec
// whose secret only the auth service knows.
func NewService(userRepo UserRepository, accessCodec, refreshCodec *security.Codec, tokens TokenConfig, publisher events.Publisher, logger *slog.Logger) *Service {
	if tokens.BCryptCost == 0 {
		tokens.BCryptCost = 10
	}
	return &Service{
		userRepo:     userRepo,
		accessCodec:  accessCodec,
		refreshCodec: refreshCodec,
		tokens:       tokens,
		publisher:    publisher,
		logger:       logger,
	}
}

// Register is public. Roles other than EMPLOYEE are only accepted when the caller
// is an authenticated ADMIN.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := checkRoleGrant(ctx, dto.Roles); err != nil {
		s.logger.Warn("registration requested privileged roles", "email", dto.Email, "roles", dto.Roles)
		return nil, err
	}

	taken, err := s.userRepo.ExistsByEmail(ctx, dto.Email)
	if err != nil {
		s.logger.Error("failed to check user email", "error", err)
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(dto.Password, s.tokens.BCryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	row := ToDataModel(&User{
		Email:        dto.Email,
		PasswordHash: hash,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Roles:        dto.Roles,
	})
	if err := s.userRepo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "error", err)
		return nil, err
	}

	user := FromDataModel(row)
	s.logger.Info("user registered", "user_id", user.ID, "roles", user.Roles)
	s.publisher.Publish(ctx, events.NewUserEvent(events.EventTypeUserCreated, user.ID, user.Email, user.FirstName, user.LastName))

	return s.issueTokens(user)
}

// Login validates credentials and returns tokens
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.userRepo.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := VerifyPassword(row.PasswordHash, dto.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(FromDataModel(row))
}

// Refresh re-reads the user so the new access token carries its current roles.
func (s *Service) Refresh(ctx context.Context, dto RefreshTokenDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.refreshCodec.Parse(dto.RefreshToken)
	if err != nil {
		s.logger.Debug("refresh token rejected", "error", err)
		return nil, ErrInvalidRefresh
	}

	row, err := s.userRepo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	return s.issueTokens(FromDataModel(row))
}

func (s *Service) Me(ctx context.Context, principal *internal.Principal) (*UserInfo, error) {
	row, err := s.userRepo.GetByEmail(ctx, principal.Email)
	if err != nil {
		return nil, err
	}
	info := FromDataModel(row).ToUserInfo()
	return &info, nil
}

func (s *Service) UpdateMe(ctx context.Context, principal *internal.Principal, dto UpdateProfileDTO) (*UserInfo, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.userRepo.GetByEmail(ctx, principal.Email)
	if err != nil {
		return nil, err
	}

	row.FirstName = dto.FirstName
	row.LastName = dto.LastName
	if err := s.userRepo.UpdateProfile(ctx, row); err != nil {
		s.logger.Error("failed to update user", "user_id", row.ID, "error", err)
		return nil, err
	}

	user := FromDataModel(row)
	s.logger.Info("user updated", "user_id", user.ID)
	s.publisher.Publish(ctx, events.NewUserEvent(events.EventTypeUserUpdated, user.ID, user.Email, user.FirstName, user.LastName))

	info := user.ToUserInfo()
	return &info, nil
}

func checkRoleGrant(ctx context.Context, roles []string) error {
	for _, role := range roles {
		if role == internal.RoleEmployee {
			continue
		}
		caller, ok := internal.PrincipalFromContext(ctx)
		if !ok || !caller.HasRole(internal.RoleAdmin) {
			return ErrRoleNotGrantable
		}
		return nil
	}
	return nil
}

func (s *Service) issueTokens(user *User) (*AuthResponse, error) {
	accessToken, err := s.accessCodec.Issue(user.Email, user.Roles, s.tokens.AccessTTL)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue access token", err)
	}

	refreshToken, err := s.refreshCodec.Issue(user.Email, user.Roles, s.tokens.RefreshTTL)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue refresh token", err)
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL / time.Second),
		User:         user.ToUserInfo(),
	}, nil
}
