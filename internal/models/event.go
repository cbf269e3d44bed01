package models

import "time"

// Event types recorded in the bridge event log.
const (
	EventPollFailed     = "POLL_FAILED"
	EventSanityRejected = "SANITY_REJECTED"
	EventModeChange     = "MODE_CHANGE"
	EventPresetChange   = "PRESET_CHANGE"
	EventTemperatureSet = "TEMPERATURE_SET"
	EventSwitchChange   = "SWITCH_CHANGE"
)

// BridgeEvent is a single entry in the append-only bridge event log.
type BridgeEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
