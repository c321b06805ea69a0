package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims mirrors the wallet backend access token: sub carries the account email.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenInfo is what the console can learn from a token it cannot verify.
type TokenInfo struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an exp that is not after now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !i.ExpiresAt.After(now)
}

// TTL is the remaining lifetime, or 0 when the token has no exp.
func (i TokenInfo) TTL(now time.Time) time.Duration {
	if i.ExpiresAt.IsZero() {
		return 0
	}
	if d := i.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

func ParseJWT(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Inspect decodes the claims without checking the signature. The backend owns the key.
func Inspect(tokenString string) (TokenInfo, error) {
	if strings.TrimSpace(tokenString) == "" {
		return TokenInfo{}, ErrInvalidToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return TokenInfo{}, ErrInvalidToken
	}

	info := TokenInfo{Subject: claims.Subject, Role: claims.Role}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

func ExtractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
