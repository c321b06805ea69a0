package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSampleRatio(t *testing.T) {
	cases := map[string]float64{
		"":     1,
		"abc":  1,
		"0.25": 0.25,
		"-1":   0,
		"4":    1,
	}
	for raw, want := range cases {
		t.Setenv(sampleRatioEnv, raw)
		if got := sampleRatio(); got != want {
			t.Fatalf("ratio %q: expected %v, got %v", raw, want, got)
		}
	}
}

func TestInitTracerWithoutExporter(t *testing.T) {
	t.Setenv(endpointEnv, "")
	shutdown, err := InitTracer("console", "test")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestMiddlewarePropagatesTraceparent(t *testing.T) {
	t.Setenv(endpointEnv, "")
	if _, err := InitTracer("console", "test"); err != nil {
		t.Fatalf("init: %v", err)
	}

	gin.SetMode(gin.TestMode)
	var outbound http.Header
	r := gin.New()
	r.Use(Middleware("console"))
	r.GET("/ping", func(c *gin.Context) {
		req, _ := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, "http://backend.test/auth/me", nil)
		_, span := StartClientSpan(c.Request.Context(), "backend", "auth.me", req)
		span.End()
		outbound = req.Header
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if outbound.Get("traceparent") == "" {
		t.Fatal("expected traceparent on the outbound request")
	}
}
