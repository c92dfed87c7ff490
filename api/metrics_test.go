package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"taskboard-api/domain"
)

func TestRequestMetricsLogFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetFormatter(&log.JSONFormatter{})

	m := newRequestMetrics(logger, http.MethodGet, "/boards/:board_id")
	m.start = m.start.Add(-50 * time.Millisecond)
	m.ObserveAuth(10 * time.Millisecond)
	m.SetCallerID(3)
	m.Log(http.StatusOK, nil)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Message != requestMetricsName {
		t.Fatalf("unexpected message: %s", entry.Message)
	}
	if entry.Data["route"] != "/boards/:board_id" || entry.Data["method"] != http.MethodGet {
		t.Fatalf("unexpected route fields: %#v", entry.Data)
	}
	if entry.Data["status"] != http.StatusOK {
		t.Fatalf("unexpected status: %#v", entry.Data["status"])
	}
	if total, ok := entry.Data["total_ms"].(float64); !ok || total < 50 {
		t.Fatalf("unexpected total_ms: %#v", entry.Data["total_ms"])
	}
	if auth, ok := entry.Data["auth_ms"].(float64); !ok || auth != 10 {
		t.Fatalf("unexpected auth_ms: %#v", entry.Data["auth_ms"])
	}
	if entry.Data["caller_id"] != int64(3) {
		t.Fatalf("unexpected caller_id: %#v", entry.Data["caller_id"])
	}
	if _, ok := entry.Data["error_stage"]; ok {
		t.Fatal("error_stage should be absent on success")
	}
}

func TestRequestMetricsKeepsFirstErrorStage(t *testing.T) {
	logger, hook := test.NewNullLogger()

	m := newRequestMetrics(logger, http.MethodPost, "/boards")
	m.SetErrorStage("auth")
	m.SetErrorStage("internal")
	m.Log(http.StatusUnauthorized, errors.New("boom"))

	entry := hook.LastEntry()
	if entry.Data["error_stage"] != "auth" {
		t.Fatalf("unexpected error_stage: %#v", entry.Data["error_stage"])
	}
	if entry.Data["error"] != "boom" {
		t.Fatalf("unexpected error field: %#v", entry.Data["error"])
	}
}

func TestNilRequestMetricsIsSafe(t *testing.T) {
	var m *requestMetrics
	m.ObserveAuth(time.Second)
	m.SetCallerID(1)
	m.SetErrorStage("auth")
	m.Log(http.StatusOK, nil)
}

func TestErrorStage(t *testing.T) {
	testCases := map[string]struct {
		err  error
		want string
	}{
		"token":      {err: domain.ErrInvalidToken, want: "auth"},
		"validation": {err: &domain.ValidationError{Field: "limit"}, want: "validation"},
		"forbidden":  {err: domain.ErrForbidden, want: "forbidden"},
		"not found":  {err: domain.ErrNotFound, want: "not_found"},
		"other":      {err: errors.New("disk on fire"), want: "internal"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := errorStage(tc.err); got != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}
