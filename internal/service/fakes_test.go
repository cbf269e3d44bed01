package service

import (
	"context"
	"fmt"
	"time"

	"bmrbridge/internal/bmr"
	"bmrbridge/internal/models"
)

// recordingClient keeps mutable controller state and a journal of every
// write so tests can assert exact call sequences.
type recordingClient struct {
	lowMode           bmr.LowMode
	lowAssignments    []bool
	summerMode        bool
	summerAssignments []bool

	writes []string
}

var _ bmr.Client = (*recordingClient)(nil)

func newRecordingClient() *recordingClient {
	return &recordingClient{
		lowAssignments:    make([]bool, bmr.MaxCircuits),
		summerAssignments: make([]bool, bmr.MaxCircuits),
	}
}

func (r *recordingClient) record(format string, args ...any) {
	r.writes = append(r.writes, fmt.Sprintf(format, args...))
}

func (r *recordingClient) UniqueID(context.Context) (string, error) { return "fake", nil }
func (r *recordingClient) HDO(context.Context) (bool, error)        { return false, nil }

func (r *recordingClient) LowMode(context.Context) (bmr.LowMode, error) { return r.lowMode, nil }
func (r *recordingClient) SetLowMode(_ context.Context, enabled bool, temperature *float64) error {
	r.lowMode.Enabled = enabled
	r.lowMode.Temperature = temperature
	if temperature != nil {
		r.record("SetLowMode(%t, %.1f)", enabled, *temperature)
	} else {
		r.record("SetLowMode(%t, nil)", enabled)
	}
	return nil
}
func (r *recordingClient) LowModeAssignments(context.Context) ([]bool, error) {
	return r.lowAssignments, nil
}
func (r *recordingClient) SetLowModeAssignments(_ context.Context, circuitIDs []int, assigned bool) error {
	for _, id := range circuitIDs {
		r.lowAssignments[id] = assigned
	}
	r.record("SetLowModeAssignments(%v, %t)", circuitIDs, assigned)
	return nil
}

func (r *recordingClient) SummerMode(context.Context) (bool, error) { return r.summerMode, nil }
func (r *recordingClient) SetSummerMode(_ context.Context, enabled bool) error {
	r.summerMode = enabled
	r.record("SetSummerMode(%t)", enabled)
	return nil
}
func (r *recordingClient) SummerModeAssignments(context.Context) ([]bool, error) {
	return r.summerAssignments, nil
}
func (r *recordingClient) SetSummerModeAssignments(_ context.Context, circuitIDs []int, assigned bool) error {
	for _, id := range circuitIDs {
		r.summerAssignments[id] = assigned
	}
	r.record("SetSummerModeAssignments(%v, %t)", circuitIDs, assigned)
	return nil
}

func (r *recordingClient) Circuit(context.Context, int) (bmr.Circuit, error) {
	return bmr.Circuit{}, bmr.ErrUnknownCircuit
}
func (r *recordingClient) CircuitSchedules(context.Context, int) (bmr.Schedules, error) {
	return bmr.Schedules{}, nil
}
func (r *recordingClient) SetCircuitSchedules(_ context.Context, id int, scheduleIDs []int, startingDay int) error {
	r.record("SetCircuitSchedules(%d, %v, %d)", id, scheduleIDs, startingDay)
	return nil
}
func (r *recordingClient) SetSchedule(_ context.Context, id int, name string, entries []bmr.ScheduleEntry) error {
	r.record("SetSchedule(%d, %q, %v)", id, name, entries)
	return nil
}

// fakeRefresher hands out a fixed snapshot and counts refresh requests.
type fakeRefresher struct {
	snapshot     *models.ControllerSnapshot
	refreshCalls int
}

func (f *fakeRefresher) Snapshot() *models.ControllerSnapshot { return f.snapshot }
func (f *fakeRefresher) RequestRefresh()                      { f.refreshCalls++ }
func (f *fakeRefresher) AddListener(func(*models.ControllerSnapshot)) func() {
	return func() {}
}

// fakeEvents records appended events.
type fakeEvents struct {
	events []models.BridgeEvent
}

func (f *fakeEvents) Append(_ context.Context, e models.BridgeEvent) error {
	f.events = append(f.events, e)
	return nil
}
func (f *fakeEvents) List(context.Context, time.Time, time.Time, string) ([]models.BridgeEvent, error) {
	return f.events, nil
}

func fptr(v float64) *float64 { return &v }

// snapshotWith builds a snapshot containing one circuit in the given
// schedule assignment.
func snapshotWith(circuitID int, daySchedules []int) *models.ControllerSnapshot {
	return &models.ControllerSnapshot{
		UniqueID:              "fake",
		LowModeAssignments:    make([]bool, bmr.MaxCircuits),
		SummerModeAssignments: make([]bool, bmr.MaxCircuits),
		Circuits: map[int]models.CircuitState{
			circuitID: {
				ID:                circuitID,
				Name:              fmt.Sprintf("F%02d", circuitID+1),
				Temperature:       fptr(21.0),
				TargetTemperature: fptr(22.0),
				DaySchedules:      daySchedules,
			},
		},
		FetchedAt: time.Now().UTC(),
	}
}
