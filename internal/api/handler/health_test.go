package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestHealthHandler_Readiness(t *testing.T) {
	h := NewHealthHandler(map[string]Checker{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	c, rec := newContext(http.MethodGet, "/health/ready", "", nil)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	resp := decode(t, rec)
	checks := resp["checks"].(map[string]any)
	if resp["status"] != "degraded" || checks["postgres"] != "ok" || checks["redis"] != "connection refused" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestHealthHandler_ReadinessAllUp(t *testing.T) {
	h := NewHealthHandler(map[string]Checker{"postgres": func(context.Context) error { return nil }})

	c, rec := newContext(http.MethodGet, "/health/ready", "", nil)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "ok" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/health", "", nil)
	if err := (&HealthHandler{}).Liveness(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("unexpected liveness result %v %d", err, rec.Code)
	}
}
