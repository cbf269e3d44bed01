package coordinator

import (
	"bmrbridge/internal/bmr"
	"bmrbridge/internal/models"
)

// MaxTemperatureDelta is the largest plausible difference between two
// subsequent temperature measurements of the same circuit. Bigger jumps
// are treated as sensor glitches.
const MaxTemperatureDelta = 5.0

// checkCircuit decides whether a fresh circuit reading is plausible
// given the circuit's state from the previous snapshot. A nil previous
// state (first poll) accepts unconditionally. Returns the rejection
// reason when the reading is dropped.
func checkCircuit(next bmr.Circuit, prev *models.CircuitState) (ok bool, reason string) {
	if prev == nil {
		return true, ""
	}
	if next.ID != prev.ID {
		return false, "circuit IDs don't match"
	}
	if next.Temperature == nil {
		return false, "circuit temperature is undefined"
	}
	if prev.Temperature != nil {
		delta := *next.Temperature - *prev.Temperature
		if delta < 0 {
			delta = -delta
		}
		if delta >= MaxTemperatureDelta {
			return false, "circuit temperature difference compared to its previous value is too big"
		}
	}
	return true, ""
}
