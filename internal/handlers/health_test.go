package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandlersHealthz(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(30 * time.Second)
	handlers := NewHealthHandlers(
		WithHealthBuildInfo(BuildInfo{
			Version:     "1.0.0",
			CommitSHA:   "abc123",
			Environment: "prod",
			StartedAt:   start,
		}),
		WithHealthClock(func() time.Time { return now }),
	)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	handlers.Healthz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["status"] != healthStatusOK {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
	if body["version"] != "1.0.0" {
		t.Fatalf("expected version 1.0.0, got %v", body["version"])
	}
	if body["uptime"] != "30s" {
		t.Fatalf("expected uptime 30s, got %v", body["uptime"])
	}
	if body["environment"] != "prod" {
		t.Fatalf("expected environment prod, got %v", body["environment"])
	}
}

func TestHealthHandlersReadyz(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)

	t.Run("all checks pass", func(t *testing.T) {
		handlers := NewHealthHandlers(
			WithHealthClock(func() time.Time { return now }),
			WithReadinessCheck("calculator", func(context.Context) error { return nil }),
		)

		rr := httptest.NewRecorder()
		handlers.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		var body struct {
			Status string `json:"status"`
			Checks map[string]struct {
				Status string `json:"status"`
			} `json:"checks"`
			Details []string `json:"details"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if body.Status != healthStatusOK {
			t.Fatalf("expected status ok, got %s", body.Status)
		}
		if len(body.Details) != 0 {
			t.Fatalf("expected no details, got %v", body.Details)
		}
		if body.Checks["calculator"].Status != healthStatusOK {
			t.Fatalf("expected calculator ok, got %s", body.Checks["calculator"].Status)
		}
	})

	t.Run("failing check", func(t *testing.T) {
		handlers := NewHealthHandlers(
			WithHealthClock(func() time.Time { return now }),
			WithReadinessCheck("calculator", func(context.Context) error { return errors.New("rate table mismatch") }),
		)

		rr := httptest.NewRecorder()
		handlers.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", rr.Code)
		}
		var body struct {
			Status  string   `json:"status"`
			Details []string `json:"details"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if body.Status != healthStatusDegraded {
			t.Fatalf("expected status degraded, got %s", body.Status)
		}
		if len(body.Details) != 1 || body.Details[0] != "calculator: rate table mismatch" {
			t.Fatalf("unexpected details %v", body.Details)
		}
	})
}
