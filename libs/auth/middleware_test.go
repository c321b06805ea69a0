package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newGuarded(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware(token))
	r.GET("/session", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	return r
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	r := newGuarded("console-secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMiddlewareRejectsWrongToken(t *testing.T) {
	r := newGuarded("console-secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Authorization", "Bearer nope")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	r := newGuarded("console-secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Authorization", "Bearer console-secret")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestMiddlewareOpenWithoutToken(t *testing.T) {
	r := newGuarded("")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/session", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestInspectReadsUnverifiedClaims(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops@example.com",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-only"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	info, err := Inspect(signed)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.Subject != "ops@example.com" || info.Role != "admin" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Fatalf("expected exp %v, got %v", exp, info.ExpiresAt)
	}
	if info.Expired(time.Now()) {
		t.Fatalf("token should not be expired")
	}
	if !info.Expired(exp.Add(time.Second)) {
		t.Fatalf("token should be expired after exp")
	}
}

func TestInspectRejectsGarbage(t *testing.T) {
	if _, err := Inspect("not-a-jwt"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Inspect(""); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestParseJWTVerifiesSignature(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "a@b.c", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))

	if _, err := ParseJWT(signed, []byte("other")); err == nil {
		t.Fatalf("expected signature mismatch")
	}
	got, err := ParseJWT(signed, []byte("secret"))
	if err != nil || got.Subject != "a@b.c" {
		t.Fatalf("unexpected result: %+v %v", got, err)
	}
}
