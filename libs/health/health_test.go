package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func serveReady(m *Manager) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/readyz", ReadinessHandler(m))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	return w
}

func TestReadinessNotReady(t *testing.T) {
	w := serveReady(NewManager(false))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestReadinessFailingCheck(t *testing.T) {
	m := NewManager(true)
	m.AddCheck("backend", func(context.Context) error { return errors.New("unreachable") })

	w := serveReady(m)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestReadinessReady(t *testing.T) {
	m := NewManager(true)
	m.AddCheck("backend", func(context.Context) error { return nil })

	w := serveReady(m)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
