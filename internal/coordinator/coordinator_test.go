package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"bmrbridge/internal/bmr"
	"bmrbridge/internal/config"
	"bmrbridge/internal/models"
)

// fakeClient is a scriptable bmr.Client for coordinator tests.
type fakeClient struct {
	uniqueID          string
	hdo               bool
	lowMode           bmr.LowMode
	lowAssignments    []bool
	summerMode        bool
	summerAssignments []bool
	circuits          map[int]bmr.Circuit
	schedules         map[int]bmr.Schedules

	err error // returned by every getter when set
}

var _ bmr.Client = (*fakeClient)(nil)

func (f *fakeClient) UniqueID(context.Context) (string, error) { return f.uniqueID, f.err }
func (f *fakeClient) HDO(context.Context) (bool, error)        { return f.hdo, f.err }
func (f *fakeClient) LowMode(context.Context) (bmr.LowMode, error) {
	return f.lowMode, f.err
}
func (f *fakeClient) SetLowMode(context.Context, bool, *float64) error { return f.err }
func (f *fakeClient) LowModeAssignments(context.Context) ([]bool, error) {
	return f.lowAssignments, f.err
}
func (f *fakeClient) SetLowModeAssignments(context.Context, []int, bool) error { return f.err }
func (f *fakeClient) SummerMode(context.Context) (bool, error)                 { return f.summerMode, f.err }
func (f *fakeClient) SetSummerMode(context.Context, bool) error                { return f.err }
func (f *fakeClient) SummerModeAssignments(context.Context) ([]bool, error) {
	return f.summerAssignments, f.err
}
func (f *fakeClient) SetSummerModeAssignments(context.Context, []int, bool) error { return f.err }
func (f *fakeClient) Circuit(_ context.Context, id int) (bmr.Circuit, error) {
	if f.err != nil {
		return bmr.Circuit{}, f.err
	}
	c, ok := f.circuits[id]
	if !ok {
		return bmr.Circuit{}, bmr.ErrUnknownCircuit
	}
	return c, nil
}
func (f *fakeClient) CircuitSchedules(_ context.Context, id int) (bmr.Schedules, error) {
	return f.schedules[id], f.err
}
func (f *fakeClient) SetCircuitSchedules(context.Context, int, []int, int) error { return f.err }
func (f *fakeClient) SetSchedule(context.Context, int, string, []bmr.ScheduleEntry) error {
	return f.err
}

func newFakeClient() *fakeClient {
	t1, t2 := 21.0, 19.5
	return &fakeClient{
		uniqueID:          "bmr-hc64-test",
		hdo:               true,
		lowAssignments:    make([]bool, bmr.MaxCircuits),
		summerAssignments: make([]bool, bmr.MaxCircuits),
		circuits: map[int]bmr.Circuit{
			0: {ID: 0, Name: "F01", Temperature: &t1, TargetTemperature: &t1},
			1: {ID: 1, Name: "F02", Temperature: &t2, TargetTemperature: &t1, Heating: true},
		},
		schedules: map[int]bmr.Schedules{
			0: {DaySchedules: []int{0, 1}, StartingDay: 1},
			1: {DaySchedules: []int{7}},
		},
	}
}

func testCircuits() []config.CircuitConfig {
	return []config.CircuitConfig{
		{ID: 0, Name: "Living room", AutoModeSchedules: []int{0, 1}, ManualModeSchedule: 32},
		{ID: 1, Name: "Bedroom", AutoModeSchedules: []int{7}, ManualModeSchedule: 33},
	}
}

func newTestCoordinator(client bmr.Client) *Coordinator {
	return New(Options{
		Client:   client,
		Circuits: testCircuits(),
		Interval: time.Minute,
		Timeout:  5 * time.Second,
	})
}

func TestRefresh_BuildsSnapshot(t *testing.T) {
	client := newFakeClient()
	coord := newTestCoordinator(client)

	if snap := coord.Snapshot(); snap != nil {
		t.Fatalf("expected nil snapshot before first poll, got %+v", snap)
	}

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	snap := coord.Snapshot()
	if snap == nil {
		t.Fatal("expected snapshot after refresh")
	}
	if snap.UniqueID != "bmr-hc64-test" || !snap.HDO {
		t.Fatalf("unexpected snapshot header: %+v", snap)
	}
	if len(snap.Circuits) != 2 {
		t.Fatalf("expected 2 circuits, got %d", len(snap.Circuits))
	}
	c1 := snap.Circuits[1]
	if c1.FriendlyName != "Bedroom" || !c1.Heating {
		t.Fatalf("unexpected circuit 1: %+v", c1)
	}
	if len(c1.DaySchedules) != 1 || c1.DaySchedules[0] != 7 {
		t.Fatalf("unexpected schedules: %+v", c1.DaySchedules)
	}
	if snap.FetchedAt.IsZero() {
		t.Fatal("FetchedAt not set")
	}
}

func TestRefresh_DropsImplausibleCircuit(t *testing.T) {
	client := newFakeClient()
	coord := newTestCoordinator(client)

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// circuit 1 jumps 10 degrees between polls, circuit 0 stays put
	jumped := 29.5
	c := client.circuits[1]
	c.Temperature = &jumped
	client.circuits[1] = c

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	snap := coord.Snapshot()
	if _, ok := snap.Circuits[1]; ok {
		t.Fatal("expected circuit 1 to be dropped this cycle")
	}
	if _, ok := snap.Circuits[0]; !ok {
		t.Fatal("circuit 0 must be unaffected")
	}
}

func TestRefresh_FailureKeepsOldSnapshot(t *testing.T) {
	client := newFakeClient()
	coord := newTestCoordinator(client)

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	before := coord.Snapshot()

	client.err = bmr.ErrTimeout
	err := coord.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var notReady *NotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("expected NotReadyError, got %T: %v", err, err)
	}
	if coord.Snapshot() != before {
		t.Fatal("failed poll must not replace the snapshot")
	}
}

func TestRefresh_NotifiesListeners(t *testing.T) {
	client := newFakeClient()
	coord := newTestCoordinator(client)

	var got *models.ControllerSnapshot
	remove := coord.AddListener(func(snap *models.ControllerSnapshot) { got = snap })
	defer remove()

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got == nil || got != coord.Snapshot() {
		t.Fatal("listener did not receive the new snapshot")
	}

	// removed listeners stop receiving
	remove()
	got = nil
	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got != nil {
		t.Fatal("removed listener still notified")
	}
}
