package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the principal email as the subject and its role names.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 tokens with a single shared secret.
// The gateway and every downstream service must be built with the same secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs a token for subject carrying roles that expires after ttl.
func (c *Codec) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	now := c.now()

	claims := &Claims{
		Roles: append([]string(nil), roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// Parse verifies signature, structure and expiry and returns the claims.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (c *Codec) Validate(tokenString string) bool {
	_, err := c.Parse(tokenString)
	return err == nil
}

// ExtractSubject returns "" for any token that does not validate.
func (c *Codec) ExtractSubject(tokenString string) string {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return ""
	}
	return claims.Subject
}

// ExtractRoles returns nil for any token that does not validate.
func (c *Codec) ExtractRoles(tokenString string) []string {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return nil
	}
	return claims.Roles
}
