// Package bmr defines the boundary to the BMR HC64 heating controller.
//
// The vendor HTTP protocol itself is not implemented here; any concrete
// client (vendor driver or the in-memory Simulator) plugs in behind the
// Client interface. All calls are blocking and serialized by the caller.
package bmr

import (
	"context"
	"time"
)

// MaxCircuits is the number of addressable circuits of an HC64
// controller. Assignment lists returned by the controller are indexed by
// circuit ID and have this length.
const MaxCircuits = 64

// ScheduleEntry is one row of a schedule body: from the given time of
// day the circuit targets the given temperature.
type ScheduleEntry struct {
	Time        string  `json:"time"` // "HH:MM"
	Temperature float64 `json:"temperature"`
}

// Schedules is the schedule assignment of a circuit: a rotation of day
// schedule IDs plus the day the rotation starts at.
type Schedules struct {
	DaySchedules []int `json:"day_schedules"`
	StartingDay  int   `json:"starting_day"`
}

// LowMode describes the controller-wide low ("away") mode.
type LowMode struct {
	Enabled     bool
	Temperature *float64
	StartDate   *time.Time
}

// Circuit is the raw per-circuit reading returned by the controller.
type Circuit struct {
	ID                int
	Name              string
	Enabled           bool
	UserOffset        float64
	MaxOffset         float64
	Warning           bool
	Heating           bool
	Cooling           bool
	LowMode           bool
	SummerMode        bool
	Temperature       *float64 // nil when the sensor reports no reading
	TargetTemperature *float64
}

// Client is the operation set of the HC64 controller. Implementations
// must return ErrTimeout for device timeouts and ErrAuthFailed (possibly
// wrapped) for rejected logins so the coordinator can classify failures.
type Client interface {
	UniqueID(ctx context.Context) (string, error)
	HDO(ctx context.Context) (bool, error)

	LowMode(ctx context.Context) (LowMode, error)
	SetLowMode(ctx context.Context, enabled bool, temperature *float64) error
	LowModeAssignments(ctx context.Context) ([]bool, error)
	SetLowModeAssignments(ctx context.Context, circuitIDs []int, assigned bool) error

	SummerMode(ctx context.Context) (bool, error)
	SetSummerMode(ctx context.Context, enabled bool) error
	SummerModeAssignments(ctx context.Context) ([]bool, error)
	SetSummerModeAssignments(ctx context.Context, circuitIDs []int, assigned bool) error

	Circuit(ctx context.Context, id int) (Circuit, error)
	CircuitSchedules(ctx context.Context, id int) (Schedules, error)
	SetCircuitSchedules(ctx context.Context, id int, scheduleIDs []int, startingDay int) error
	SetSchedule(ctx context.Context, id int, name string, entries []ScheduleEntry) error
}
