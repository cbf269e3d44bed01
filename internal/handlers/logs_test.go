package handlers

import (
	"net/http"
	"testing"
	"time"

	"bmrbridge/internal/models"
	"bmrbridge/internal/service"
)

func newLogsRouter(logs *mockEventLog) *testClient {
	auth := &mockAuth{parseID: 1}
	s := &service.Service{Authorization: auth, EventLog: logs}
	return &testClient{newTestRouter(s)}
}

func TestGetLogs_Filters(t *testing.T) {
	logs := &mockEventLog{resp: []models.BridgeEvent{
		{EventID: "e1", Type: models.EventModeChange, Description: "Circuit Bedroom mode set to off"},
	}}
	r := newLogsRouter(logs)

	w := r.do(http.MethodGet, "/api/v1/logs/?from=2026-08-01&to=2026-08-02&type=mode_change", "", "tok")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	if logs.lastType != "MODE_CHANGE" {
		t.Fatalf("expected normalized type MODE_CHANGE, got %q", logs.lastType)
	}
	wantFrom := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !logs.lastFrom.Equal(wantFrom) {
		t.Fatalf("from=%v, want %v", logs.lastFrom, wantFrom)
	}
	// date-only 'to' becomes end-of-day inclusive
	wantTo := time.Date(2026, 8, 2, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastTo.Equal(wantTo) {
		t.Fatalf("to=%v, want %v", logs.lastTo, wantTo)
	}
}

func TestGetLogs_BadTimes(t *testing.T) {
	r := newLogsRouter(&mockEventLog{})

	w := r.do(http.MethodGet, "/api/v1/logs/?from=yesterday", "", "tok")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad 'from', got %d", w.Code)
	}

	w = r.do(http.MethodGet, "/api/v1/logs/?from=2026-08-02&to=2026-08-01", "", "tok")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
}
