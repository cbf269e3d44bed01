package models

// HVACMode is the user-facing operating mode of a heating circuit.
type HVACMode string

const (
	ModeOff      HVACMode = "off"
	ModeAuto     HVACMode = "auto"
	ModeHeat     HVACMode = "heat"
	ModeHeatCool HVACMode = "heat_cool"
)

// HVACAction is what a circuit is doing right now, derived independently
// from the mode.
type HVACAction string

const (
	ActionOff     HVACAction = "off"
	ActionHeating HVACAction = "heating"
	ActionCooling HVACAction = "cooling"
	ActionIdle    HVACAction = "idle"
)

// Preset toggles the per-circuit low ("away") mode.
type Preset string

const (
	PresetNone Preset = "none"
	PresetAway Preset = "away"
)

// ClimateState is the derived climate view of one heating circuit.
type ClimateState struct {
	CircuitID          int        `json:"circuit_id"`
	Name               string     `json:"name"`
	Mode               HVACMode   `json:"mode"`
	Action             HVACAction `json:"action"`
	Preset             Preset     `json:"preset"`
	CurrentTemperature *float64   `json:"current_temperature"`
	TargetTemperature  *float64   `json:"target_temperature"`
	MinTemperature     float64    `json:"min_temperature"`
	MaxTemperature     float64    `json:"max_temperature"`
	AvailableModes     []HVACMode `json:"available_modes"`
}

// SensorAttributes are the auxiliary circuit flags attached to the
// temperature sensors, taken verbatim from the circuit snapshot.
type SensorAttributes struct {
	Enabled    bool    `json:"enabled"`
	UserOffset float64 `json:"user_offset"`
	MaxOffset  float64 `json:"max_offset"`
	Warning    bool    `json:"warning"`
	Heating    bool    `json:"heating"`
	Cooling    bool    `json:"cooling"`
	LowMode    bool    `json:"low_mode"`
	SummerMode bool    `json:"summer_mode"`
}

// CircuitSensors groups the two read-only temperature projections of a circuit.
type CircuitSensors struct {
	CircuitID         int              `json:"circuit_id"`
	Name              string           `json:"name"`
	Temperature       *float64         `json:"temperature"`
	TargetTemperature *float64         `json:"target_temperature"`
	Attributes        SensorAttributes `json:"attributes"`
}

// SwitchState is the state of a controller-wide switch plus descriptive
// attributes (away temperature, start date).
type SwitchState struct {
	On         bool           `json:"on"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
