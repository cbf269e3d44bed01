package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bmrbridge/internal/models"
)

type filterRecorder struct {
	from, to time.Time
	typ      string
}

func (f *filterRecorder) Append(context.Context, models.BridgeEvent) error { return nil }
func (f *filterRecorder) List(_ context.Context, from, to time.Time, typ string) ([]models.BridgeEvent, error) {
	f.from, f.to, f.typ = from, to, typ
	return nil, nil
}

func TestEventLogList_NormalizesFilter(t *testing.T) {
	repo := &filterRecorder{}
	svc := NewEventLogService(repo)

	loc := time.FixedZone("CET", 3600)
	from := time.Date(2026, 8, 1, 1, 0, 0, 0, loc)

	_, err := svc.List(context.Background(), LogFilter{
		From: from,
		Type: "  switch_change ",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.from.Location() != time.UTC || repo.from.Hour() != 0 {
		t.Fatalf("from not normalized to UTC: %v", repo.from)
	}
	if !repo.to.IsZero() {
		t.Fatalf("zero 'to' must stay zero, got %v", repo.to)
	}
	if repo.typ != "SWITCH_CHANGE" {
		t.Fatalf("type = %q", repo.typ)
	}
}

func TestEventLogList_RejectsInvertedRange(t *testing.T) {
	svc := NewEventLogService(&filterRecorder{})

	_, err := svc.List(context.Background(), LogFilter{
		From: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("expected errInvalidTimeRange, got %v", err)
	}
}
