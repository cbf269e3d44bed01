package service

import (
	"context"
	"reflect"
	"testing"

	"bmrbridge/internal/config"
	"bmrbridge/internal/models"
)

func newSwitchFixture(snap *models.ControllerSnapshot) (*SwitchService, *recordingClient, *fakeRefresher) {
	client := newRecordingClient()
	coord := &fakeRefresher{snapshot: snap}
	svc := NewSwitchService(
		client,
		coord,
		&fakeEvents{},
		config.ControllerConfig{AwayTemperature: 18.0},
		[]config.CircuitConfig{
			{ID: 3, Name: "Living room"},
			{ID: 5, Name: "Bedroom"},
		},
		nil,
	)
	return svc, client, coord
}

func TestAway_ReportsLowMode(t *testing.T) {
	snap := snapshotWith(3, []int{0})
	snap.LowMode = models.LowModeState{Enabled: true, Temperature: fptr(18.0)}
	svc, _, _ := newSwitchFixture(snap)

	state, err := svc.Away()
	if err != nil {
		t.Fatalf("Away: %v", err)
	}
	if !state.On {
		t.Fatal("expected away on")
	}
	if state.Attributes["away_temperature"] == nil {
		t.Fatal("missing away_temperature attribute")
	}
}

func TestSetAway_EnableOnceOnly(t *testing.T) {
	snap := snapshotWith(3, []int{0})
	svc, client, coord := newSwitchFixture(snap)
	ctx := context.Background()

	if err := svc.SetAway(ctx, true); err != nil {
		t.Fatalf("SetAway: %v", err)
	}
	want := []string{
		"SetLowModeAssignments([3 5], true)",
		"SetLowMode(true, 18.0)",
	}
	if !reflect.DeepEqual(client.writes, want) {
		t.Fatalf("writes = %v, want %v", client.writes, want)
	}
	if coord.refreshCalls != 1 {
		t.Fatalf("refreshCalls = %d", coord.refreshCalls)
	}

	// second enable: low mode already on, assignments only
	client.writes = nil
	if err := svc.SetAway(ctx, true); err != nil {
		t.Fatalf("SetAway again: %v", err)
	}
	want = []string{"SetLowModeAssignments([3 5], true)"}
	if !reflect.DeepEqual(client.writes, want) {
		t.Fatalf("writes = %v, want %v", client.writes, want)
	}
}

func TestSetAway_DisableWaitsForLastAssignment(t *testing.T) {
	snap := snapshotWith(3, []int{0})
	svc, client, _ := newSwitchFixture(snap)
	ctx := context.Background()

	// another circuit outside this bridge's config stays assigned
	client.lowMode.Enabled = true
	client.lowAssignments[7] = true

	if err := svc.SetAway(ctx, false); err != nil {
		t.Fatalf("SetAway off: %v", err)
	}
	want := []string{"SetLowModeAssignments([3 5], false)"}
	if !reflect.DeepEqual(client.writes, want) {
		t.Fatalf("writes = %v, want %v", client.writes, want)
	}

	// once nothing remains assigned, low mode is switched off too
	client.writes = nil
	client.lowAssignments[7] = false
	if err := svc.SetAway(ctx, false); err != nil {
		t.Fatalf("SetAway off: %v", err)
	}
	want = []string{
		"SetLowModeAssignments([3 5], false)",
		"SetLowMode(false, nil)",
	}
	if !reflect.DeepEqual(client.writes, want) {
		t.Fatalf("writes = %v, want %v", client.writes, want)
	}
}

func TestPower_State(t *testing.T) {
	snap := snapshotWith(3, []int{0})
	svc, _, _ := newSwitchFixture(snap)

	// heating active by default
	state, err := svc.Power()
	if err != nil {
		t.Fatalf("Power: %v", err)
	}
	if !state.On {
		t.Fatal("expected power on")
	}

	// summer mode with every configured circuit assigned means off
	snap.SummerMode = true
	snap.SummerModeAssignments[3] = true
	snap.SummerModeAssignments[5] = true
	state, _ = svc.Power()
	if state.On {
		t.Fatal("expected power off")
	}

	// one circuit not assigned keeps the switch on
	snap.SummerModeAssignments[5] = false
	state, _ = svc.Power()
	if !state.On {
		t.Fatal("expected power on with a free circuit")
	}
}

func TestSetPower(t *testing.T) {
	snap := snapshotWith(3, []int{0})
	svc, client, coord := newSwitchFixture(snap)
	ctx := context.Background()

	if err := svc.SetPower(ctx, false); err != nil {
		t.Fatalf("SetPower off: %v", err)
	}
	want := []string{
		"SetSummerMode(true)",
		"SetSummerModeAssignments([3 5], true)",
	}
	if !reflect.DeepEqual(client.writes, want) {
		t.Fatalf("writes = %v, want %v", client.writes, want)
	}

	client.writes = nil
	if err := svc.SetPower(ctx, true); err != nil {
		t.Fatalf("SetPower on: %v", err)
	}
	want = []string{
		"SetSummerMode(false)",
		"SetSummerModeAssignments([3 5], false)",
	}
	if !reflect.DeepEqual(client.writes, want) {
		t.Fatalf("writes = %v, want %v", client.writes, want)
	}
	if coord.refreshCalls != 2 {
		t.Fatalf("refreshCalls = %d", coord.refreshCalls)
	}
}

func TestSwitches_NoSnapshot(t *testing.T) {
	svc, _, _ := newSwitchFixture(nil)
	if _, err := svc.Away(); err == nil {
		t.Fatal("expected error without snapshot")
	}
	if _, err := svc.Power(); err == nil {
		t.Fatal("expected error without snapshot")
	}
}
