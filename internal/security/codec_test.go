package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/employee-management/internal"
)

const testSecret = "test-secret-test-secret-test-secret-42"

var _ = ginkgo.Describe("Codec", func() {
	var codec *Codec

	ginkgo.BeforeEach(func() {
		codec = NewCodec(testSecret)
	})

	ginkgo.Describe("Issue", func() {
		ginkgo.It("should round trip subject and roles", func() {
			// Given
			roles := []string{"ADMIN", "EMPLOYEE"}

			// When
			token, err := codec.Issue("a@x.com", roles, time.Hour)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(codec.Validate(token)).To(gomega.BeTrue())
			gomega.Expect(codec.ExtractSubject(token)).To(gomega.Equal("a@x.com"))
			gomega.Expect(codec.ExtractRoles(token)).To(gomega.Equal(roles))
		})

		ginkgo.It("should keep an empty role list empty", func() {
			token, err := codec.Issue("a@x.com", []string{}, time.Hour)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(codec.ExtractRoles(token)).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Parse", func() {
		ginkgo.It("should reject a token signed with another secret", func() {
			// Given
			other := NewCodec("another-secret-another-secret-another")
			token, err := other.Issue("a@x.com", []string{"ADMIN"}, time.Hour)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// When
			_, err = codec.Parse(token)

			// Then
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidToken))
			gomega.Expect(codec.Validate(token)).To(gomega.BeFalse())
			gomega.Expect(codec.ExtractSubject(token)).To(gomega.BeEmpty())
			gomega.Expect(codec.ExtractRoles(token)).To(gomega.BeNil())
		})

		ginkgo.It("should report expiry distinctly", func() {
			// Given
			issuedAt := time.Now().Add(-2 * time.Hour)
			codec.now = func() time.Time { return issuedAt }
			token, err := codec.Issue("a@x.com", []string{"ADMIN"}, time.Hour)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			codec.now = time.Now

			// When
			_, err = codec.Parse(token)

			// Then
			gomega.Expect(err).To(gomega.MatchError(ErrTokenExpired))
			gomega.Expect(codec.Validate(token)).To(gomega.BeFalse())
		})

		ginkgo.It("should reject malformed input without panicking", func() {
			for _, raw := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
				gomega.Expect(codec.Validate(raw)).To(gomega.BeFalse())
				gomega.Expect(codec.ExtractSubject(raw)).To(gomega.BeEmpty())
			}
		})

		ginkgo.It("should reject non-HMAC algorithms", func() {
			// Given
			claims := &Claims{
				Roles: []string{"ADMIN"},
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "a@x.com",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// Then
			gomega.Expect(codec.Validate(token)).To(gomega.BeFalse())
		})

		ginkgo.It("should reject tokens without an expiry", func() {
			claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "a@x.com"}}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(codec.Validate(token)).To(gomega.BeFalse())
		})
	})
})

var _ = ginkgo.Describe("Policy", func() {
	ginkgo.It("should normalize and dedupe roles", func() {
		gomega.Expect(NormalizeRoles([]string{"ROLE_admin", "ADMIN", " employee "})).
			To(gomega.Equal([]string{"ADMIN", "EMPLOYEE"}))
	})

	ginkgo.It("should recognise known roles only", func() {
		gomega.Expect(IsKnownRole("ROLE_MANAGER")).To(gomega.BeTrue())
		gomega.Expect(IsKnownRole("SUPERUSER")).To(gomega.BeFalse())
	})

	ginkgo.DescribeTable("CanViewEmployee",
		func(p *internal.Principal, email string, allowed bool) {
			err := CanViewEmployee(p, email)
			if allowed {
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			} else {
				gomega.Expect(err).To(gomega.HaveOccurred())
			}
		},
		ginkgo.Entry("admin reads anyone", &internal.Principal{Email: "a@x.com", Roles: []string{"ADMIN"}}, "b@x.com", true),
		ginkgo.Entry("manager reads anyone", &internal.Principal{Email: "m@x.com", Roles: []string{"MANAGER"}}, "b@x.com", true),
		ginkgo.Entry("employee reads self", &internal.Principal{Email: "b@x.com", Roles: []string{"EMPLOYEE"}}, "b@x.com", true),
		ginkgo.Entry("employee reads other", &internal.Principal{Email: "c@x.com", Roles: []string{"EMPLOYEE"}}, "b@x.com", false),
		ginkgo.Entry("employee with a case variant of the email", &internal.Principal{Email: "B@X.COM", Roles: []string{"EMPLOYEE"}}, "b@x.com", false),
		ginkgo.Entry("no principal", nil, "b@x.com", false),
	)

	ginkgo.It("should report forbidden with the own-record message", func() {
		err := CanViewEmployee(&internal.Principal{Email: "c@x.com", Roles: []string{"EMPLOYEE"}}, "b@x.com")

		appErr, ok := internal.IsAppError(err)
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(appErr.StatusCode).To(gomega.Equal(403))
		gomega.Expect(appErr.Message).To(gomega.Equal("You can only view your own details"))
	})
})
