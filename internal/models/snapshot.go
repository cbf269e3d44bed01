package models

import "time"

// CircuitState is the per-poll snapshot of a single heating circuit.
// A fresh value is built on every poll; it is never mutated in place.
type CircuitState struct {
	// ID of the circuit (internal to the controller).
	ID int `json:"id"`

	// Internal name of the circuit as configured in the HC64 controller.
	Name string `json:"name"`

	// FriendlyName is the user-configured display name of the circuit.
	FriendlyName string `json:"friendly_name"`

	// Whether the circuit is enabled.
	Enabled bool `json:"enabled"`

	// User-defined target temperature offset of the circuit.
	UserOffset float64 `json:"user_offset"`

	// Maximum allowed target temperature offset of the circuit.
	MaxOffset float64 `json:"max_offset"`

	// Whether the circuit is in warning state.
	Warning bool `json:"warning"`

	// Whether the circuit is currently heating.
	Heating bool `json:"heating"`

	// Whether the circuit is currently cooling (water-based circuits only).
	Cooling bool `json:"cooling"`

	// Whether the circuit is in low mode (reduced target temperature).
	LowMode bool `json:"low_mode"`

	// Whether the circuit is in summer mode (heating disabled).
	SummerMode bool `json:"summer_mode"`

	// Measured temperature in °C. Nil when the controller reports no reading.
	Temperature *float64 `json:"temperature"`

	// Target temperature in °C. Nil when unknown.
	TargetTemperature *float64 `json:"target_temperature"`

	// DaySchedules is the schedule rotation assigned to the circuit.
	DaySchedules []int `json:"day_schedules"`

	// StartingDay is the day the rotation starts at (1 = Monday).
	StartingDay int `json:"starting_day"`
}

// LowModeState describes the controller-wide low ("away") mode.
type LowModeState struct {
	Enabled     bool       `json:"enabled"`
	Temperature *float64   `json:"temperature"`
	StartDate   *time.Time `json:"start_date"`
}

// ControllerSnapshot is the state of the whole HC64 controller at one
// poll instant. It is immutable once constructed: the coordinator
// replaces the current snapshot atomically and consumers only read it.
type ControllerSnapshot struct {
	// UniqueID of the controller device.
	UniqueID string `json:"unique_id"`

	// HDO reports the electricity tariff signal (true = low tariff).
	HDO bool `json:"hdo"`

	LowMode LowModeState `json:"low_mode"`

	// LowModeAssignments is indexed by circuit ID across all addressable
	// circuits of the controller, not just the configured ones.
	LowModeAssignments []bool `json:"low_mode_assignments"`

	SummerMode bool `json:"summer_mode"`

	// SummerModeAssignments is indexed by circuit ID, same as low mode.
	SummerModeAssignments []bool `json:"summer_mode_assignments"`

	// Circuits holds the configured circuits keyed by circuit ID. A
	// circuit that failed its plausibility check during the poll is
	// absent from the map for that cycle.
	Circuits map[int]CircuitState `json:"circuits"`

	// FetchedAt is the wall-clock time the snapshot was assembled.
	FetchedAt time.Time `json:"fetched_at"`
}

// SummerAssigned reports whether the given circuit is assigned to summer mode.
func (s *ControllerSnapshot) SummerAssigned(circuitID int) bool {
	return circuitID >= 0 && circuitID < len(s.SummerModeAssignments) && s.SummerModeAssignments[circuitID]
}

// LowAssigned reports whether the given circuit is assigned to low mode.
func (s *ControllerSnapshot) LowAssigned(circuitID int) bool {
	return circuitID >= 0 && circuitID < len(s.LowModeAssignments) && s.LowModeAssignments[circuitID]
}
