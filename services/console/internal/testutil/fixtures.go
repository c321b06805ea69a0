package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/haitiwallet/console/libs/auth"
)

const (
	DemoEmail       = "jean@example.ht"
	AdminEmail      = "ops@example.ht"
	SuperadminEmail = "root@example.ht"
	DemoPassword    = "secret123"
)

var TestSecret = []byte("test-secret")

// GenerateJWT signs a backend-shaped access token: sub is the account email.
func GenerateJWT(email, role string, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	claims := auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
