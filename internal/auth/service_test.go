package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/auth"
	authPostgres "github.com/frahmantamala/employee-management/internal/auth/postgres"
	"github.com/frahmantamala/employee-management/internal/core/datamodel/datamodeltest"
	"github.com/frahmantamala/employee-management/internal/core/events"
	"github.com/frahmantamala/employee-management/internal/security"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

const (
	accessSecret  = "access-secret-for-tests-0123456789abcdef"
	refreshSecret = "refresh-secret-for-tests-0123456789abcdef"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []*events.EntityEvent
}

func (p *capturingPublisher) Publish(_ context.Context, e *events.EntityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var _ = ginkgo.Describe("Auth Service", func() {
	var (
		service      *auth.Service
		publisher    *capturingPublisher
		accessCodec  *security.Codec
		refreshCodec *security.Codec
		ctx          context.Context
		adminCtx     context.Context
	)

	// register signs users up on behalf of an admin so any role can be granted.
	register := func(email string, roles ...string) *auth.AuthResponse {
		resp, err := service.Register(adminCtx, auth.RegisterDTO{
			Email:     email,
			Password:  "correct_password",
			FirstName: "Ada",
			LastName:  "Lovelace",
			Roles:     roles,
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return resp
	}

	ginkgo.BeforeEach(func() {
		db, err := datamodeltest.OpenSQLite()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		accessCodec = security.NewCodec(accessSecret)
		refreshCodec = security.NewCodec(refreshSecret)
		publisher = &capturingPublisher{}
		service = auth.NewService(
			authPostgres.NewUserRepository(db),
			accessCodec,
			refreshCodec,
			auth.TokenConfig{AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour, BCryptCost: bcrypt.MinCost},
			publisher,
			logger.Discard(),
		)
		ctx = context.Background()
		adminCtx = internal.ContextWithPrincipal(ctx, &internal.Principal{Email: "root@company.com", Roles: []string{internal.RoleAdmin}})
	})

	ginkgo.Describe("Register", func() {
		ginkgo.It("should default to the EMPLOYEE role and issue access tokens", func() {
			// Given
			dto := auth.RegisterDTO{Email: " ada@company.com ", Password: "correct_password", FirstName: "Ada", LastName: "Lovelace"}

			// When
			resp, err := service.Register(ctx, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.TokenType).To(gomega.Equal("Bearer"))
			gomega.Expect(resp.ExpiresIn).To(gomega.Equal(int64(3600)))
			gomega.Expect(resp.User.Email).To(gomega.Equal("ada@company.com"))
			gomega.Expect(resp.User.Roles).To(gomega.Equal([]string{internal.RoleEmployee}))

			claims, err := accessCodec.Parse(resp.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.Subject).To(gomega.Equal("ada@company.com"))
			gomega.Expect(claims.Roles).To(gomega.Equal([]string{internal.RoleEmployee}))

			_, err = accessCodec.Parse(resp.RefreshToken)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should normalize prefixed roles", func() {
			resp := register("boss@company.com", "role_admin", "MANAGER", "admin")

			gomega.Expect(resp.User.Roles).To(gomega.Equal([]string{internal.RoleAdmin, internal.RoleManager}))
		})

		ginkgo.It("should refuse self-assigned privileged roles", func() {
			// Given
			dto := auth.RegisterDTO{
				Email: "mallory@company.com", Password: "correct_password", FirstName: "Mal", LastName: "Lory",
				Roles: []string{internal.RoleAdmin},
			}

			// When
			_, err := service.Register(ctx, dto)

			// Then
			gomega.Expect(err).To(gomega.MatchError(auth.ErrRoleNotGrantable))
			gomega.Expect(publisher.types()).To(gomega.BeEmpty())
		})

		ginkgo.It("should refuse privileged roles requested by a non-admin caller", func() {
			managerCtx := internal.ContextWithPrincipal(ctx, &internal.Principal{Email: "boss@company.com", Roles: []string{internal.RoleManager}})

			_, err := service.Register(managerCtx, auth.RegisterDTO{
				Email: "mallory@company.com", Password: "correct_password", FirstName: "Mal", LastName: "Lory",
				Roles: []string{internal.RoleManager},
			})

			gomega.Expect(err).To(gomega.MatchError(auth.ErrRoleNotGrantable))
		})

		ginkgo.It("should accept an explicit EMPLOYEE role from anyone", func() {
			resp, err := service.Register(ctx, auth.RegisterDTO{
				Email: "ada@company.com", Password: "correct_password", FirstName: "Ada", LastName: "Lovelace",
				Roles: []string{"employee"},
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(resp.User.Roles).To(gomega.Equal([]string{internal.RoleEmployee}))
		})

		ginkgo.It("should publish USER_CREATED", func() {
			resp := register("ada@company.com")

			gomega.Expect(publisher.types()).To(gomega.Equal([]string{events.EventTypeUserCreated}))
			gomega.Expect(publisher.events[0].Data["userId"]).To(gomega.Equal(resp.User.ID))
		})

		ginkgo.It("should reject an unknown role", func() {
			_, err := service.Register(ctx, auth.RegisterDTO{
				Email: "ada@company.com", Password: "correct_password", FirstName: "Ada", LastName: "Lovelace",
				Roles: []string{"JANITOR"},
			})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(400))
			gomega.Expect(publisher.types()).To(gomega.BeEmpty())
		})

		ginkgo.It("should reject a short password", func() {
			_, err := service.Register(ctx, auth.RegisterDTO{
				Email: "ada@company.com", Password: "short", FirstName: "Ada", LastName: "Lovelace",
			})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeValidationFailed))
		})

		ginkgo.It("should reject a duplicate email", func() {
			// Given
			register("ada@company.com")

			// When
			_, err := service.Register(ctx, auth.RegisterDTO{
				Email: "ada@company.com", Password: "another_password", FirstName: "Eve", LastName: "Smith",
			})

			// Then
			gomega.Expect(err).To(gomega.MatchError(auth.ErrEmailTaken))
			gomega.Expect(publisher.types()).To(gomega.HaveLen(1))
		})
	})

	ginkgo.Describe("Login", func() {
		ginkgo.BeforeEach(func() {
			register("ada@company.com", "MANAGER")
		})

		ginkgo.It("should issue tokens carrying the stored roles", func() {
			resp, err := service.Login(ctx, auth.LoginDTO{Email: "ada@company.com", Password: "correct_password"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			claims, err := accessCodec.Parse(resp.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.Roles).To(gomega.Equal([]string{internal.RoleManager}))
		})

		ginkgo.It("should reject a wrong password", func() {
			_, err := service.Login(ctx, auth.LoginDTO{Email: "ada@company.com", Password: "wrong_password"})

			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidCredentials))
		})

		ginkgo.It("should not reveal unknown emails", func() {
			_, err := service.Login(ctx, auth.LoginDTO{Email: "ghost@company.com", Password: "correct_password"})

			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidCredentials))
		})

		ginkgo.It("should require both fields", func() {
			_, err := service.Login(ctx, auth.LoginDTO{Email: "ada@company.com"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(400))
		})
	})

	ginkgo.Describe("Refresh", func() {
		var issued *auth.AuthResponse

		ginkgo.BeforeEach(func() {
			issued = register("ada@company.com")
		})

		ginkgo.It("should exchange a refresh token for a new pair", func() {
			resp, err := service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: issued.RefreshToken})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			claims, err := accessCodec.Parse(resp.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.Subject).To(gomega.Equal("ada@company.com"))
		})

		ginkgo.It("should refuse an access token", func() {
			_, err := service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: issued.AccessToken})

			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidRefresh))
		})

		ginkgo.It("should refuse garbage", func() {
			_, err := service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: "not-a-jwt"})

			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidRefresh))
		})

		ginkgo.It("should refuse a token for a user that no longer exists", func() {
			// Given
			token, err := refreshCodec.Issue("ghost@company.com", nil, time.Hour)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			_, err = service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: token})

			// Then
			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidRefresh))
		})
	})

	ginkgo.Describe("Me", func() {
		var principal *internal.Principal

		ginkgo.BeforeEach(func() {
			register("ada@company.com", "ADMIN")
			principal = &internal.Principal{Email: "ada@company.com", Roles: []string{internal.RoleAdmin}}
		})

		ginkgo.It("should return the current user", func() {
			info, err := service.Me(ctx, principal)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(info.FirstName).To(gomega.Equal("Ada"))
			gomega.Expect(info.Roles).To(gomega.Equal([]string{internal.RoleAdmin}))
		})

		ginkgo.It("should return not found for a deleted principal", func() {
			_, err := service.Me(ctx, &internal.Principal{Email: "ghost@company.com"})

			gomega.Expect(err).To(gomega.MatchError(auth.ErrUserNotFound))
		})

		ginkgo.It("should update the profile and publish USER_UPDATED", func() {
			// When
			info, err := service.UpdateMe(ctx, principal, auth.UpdateProfileDTO{FirstName: " Augusta ", LastName: "King"})

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(info.FirstName).To(gomega.Equal("Augusta"))
			gomega.Expect(publisher.types()).To(gomega.Equal([]string{events.EventTypeUserCreated, events.EventTypeUserUpdated}))

			reloaded, err := service.Me(ctx, principal)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(reloaded.LastName).To(gomega.Equal("King"))
			gomega.Expect(reloaded.Roles).To(gomega.Equal([]string{internal.RoleAdmin}))
		})

		ginkgo.It("should reject a blank name", func() {
			_, err := service.UpdateMe(ctx, principal, auth.UpdateProfileDTO{FirstName: "", LastName: "King"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(400))
		})
	})
})
