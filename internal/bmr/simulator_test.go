package bmr

import (
	"context"
	"testing"
	"time"
)

// advanceClock replaces the simulator clock with a manual one and
// returns a function that moves it forward.
func advanceClock(s *Simulator) func(d time.Duration) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }
	s.lastTick = current
	return func(d time.Duration) { current = current.Add(d) }
}

func TestSimulator_RampsTowardScheduleTarget(t *testing.T) {
	s := NewSimulator([]int{0})
	advance := advanceClock(s)
	ctx := context.Background()

	// raise the schedule target well above the current temperature
	if err := s.SetSchedule(ctx, 0, "circuit 01 weekday", []ScheduleEntry{{Time: "00:00", Temperature: 24.0}}); err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}

	advance(60 * time.Second)
	c, err := s.Circuit(ctx, 0)
	if err != nil {
		t.Fatalf("Circuit: %v", err)
	}
	if !c.Heating {
		t.Fatal("expected heating toward the raised target")
	}
	if *c.Temperature <= simDefaultC {
		t.Fatalf("temperature did not rise: %v", *c.Temperature)
	}
	if *c.TargetTemperature != 24.0 {
		t.Fatalf("target = %v, want 24.0", *c.TargetTemperature)
	}

	// after long enough the circuit settles at the target and stops
	advance(24 * time.Hour)
	c, _ = s.Circuit(ctx, 0)
	if *c.Temperature != 24.0 {
		t.Fatalf("expected settled at 24.0, got %v", *c.Temperature)
	}
	advance(time.Second)
	c, _ = s.Circuit(ctx, 0)
	if c.Heating {
		t.Fatal("expected heating off once at target")
	}
}

func TestSimulator_SummerModeDriftsToAmbient(t *testing.T) {
	s := NewSimulator([]int{0})
	advance := advanceClock(s)
	ctx := context.Background()

	if err := s.SetSummerMode(ctx, true); err != nil {
		t.Fatalf("SetSummerMode: %v", err)
	}
	if err := s.SetSummerModeAssignments(ctx, []int{0}, true); err != nil {
		t.Fatalf("SetSummerModeAssignments: %v", err)
	}

	advance(24 * time.Hour)
	c, err := s.Circuit(ctx, 0)
	if err != nil {
		t.Fatalf("Circuit: %v", err)
	}
	if !c.SummerMode {
		t.Fatal("expected circuit flagged summer mode")
	}
	if *c.Temperature != simAmbientC {
		t.Fatalf("temperature = %v, want ambient %v", *c.Temperature, simAmbientC)
	}
	if c.Heating {
		t.Fatal("no heating in summer mode")
	}
}

func TestSimulator_LowModeTargetsAwayTemperature(t *testing.T) {
	s := NewSimulator([]int{0})
	advance := advanceClock(s)
	ctx := context.Background()

	away := 18.0
	if err := s.SetLowMode(ctx, true, &away); err != nil {
		t.Fatalf("SetLowMode: %v", err)
	}
	if err := s.SetLowModeAssignments(ctx, []int{0}, true); err != nil {
		t.Fatalf("SetLowModeAssignments: %v", err)
	}

	lm, err := s.LowMode(ctx)
	if err != nil {
		t.Fatalf("LowMode: %v", err)
	}
	if !lm.Enabled || lm.Temperature == nil || *lm.Temperature != away {
		t.Fatalf("unexpected low mode: %+v", lm)
	}
	if lm.StartDate == nil {
		t.Fatal("expected start date on enable")
	}

	advance(24 * time.Hour)
	c, _ := s.Circuit(ctx, 0)
	if !c.LowMode {
		t.Fatal("expected circuit flagged low mode")
	}
	if *c.TargetTemperature != away {
		t.Fatalf("target = %v, want %v", *c.TargetTemperature, away)
	}

	// disabling clears the start date
	if err := s.SetLowMode(ctx, false, nil); err != nil {
		t.Fatalf("SetLowMode off: %v", err)
	}
	lm, _ = s.LowMode(ctx)
	if lm.Enabled || lm.StartDate != nil {
		t.Fatalf("unexpected low mode after disable: %+v", lm)
	}
}

func TestSimulator_SchedulesRoundTrip(t *testing.T) {
	s := NewSimulator([]int{0, 4})
	ctx := context.Background()

	if err := s.SetCircuitSchedules(ctx, 4, []int{32}, 0); err != nil {
		t.Fatalf("SetCircuitSchedules: %v", err)
	}
	got, err := s.CircuitSchedules(ctx, 4)
	if err != nil {
		t.Fatalf("CircuitSchedules: %v", err)
	}
	if len(got.DaySchedules) != 1 || got.DaySchedules[0] != 32 || got.StartingDay != 0 {
		t.Fatalf("unexpected schedules: %+v", got)
	}

	// unknown circuits are rejected everywhere
	if _, err := s.Circuit(ctx, 9); err == nil {
		t.Fatal("expected error for unknown circuit")
	}
	if err := s.SetSummerModeAssignments(ctx, []int{99}, true); err == nil {
		t.Fatal("expected error for out-of-range assignment")
	}
}

func TestSimulator_AssignmentsLength(t *testing.T) {
	s := NewSimulator([]int{0})
	ctx := context.Background()

	low, err := s.LowModeAssignments(ctx)
	if err != nil {
		t.Fatalf("LowModeAssignments: %v", err)
	}
	summer, err := s.SummerModeAssignments(ctx)
	if err != nil {
		t.Fatalf("SummerModeAssignments: %v", err)
	}
	if len(low) != MaxCircuits || len(summer) != MaxCircuits {
		t.Fatalf("assignment lists must have %d entries, got %d and %d", MaxCircuits, len(low), len(summer))
	}
}
