package service

import (
	"bmrbridge/internal/config"
	"bmrbridge/internal/models"
)

// MonitoringService exposes read-only projections of the latest snapshot.
type MonitoringService struct {
	coord    Refresher
	circuits map[int]config.CircuitConfig
}

func NewMonitoringService(coord Refresher, circuits []config.CircuitConfig) *MonitoringService {
	byID := make(map[int]config.CircuitConfig, len(circuits))
	for _, cc := range circuits {
		byID[cc.ID] = cc
	}
	return &MonitoringService{coord: coord, circuits: byID}
}

// Snapshot returns the latest controller snapshot.
func (s *MonitoringService) Snapshot() (*models.ControllerSnapshot, error) {
	snap := s.coord.Snapshot()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// CircuitSensors projects the two temperature sensors of a circuit with
// the auxiliary flags taken verbatim from the circuit snapshot.
func (s *MonitoringService) CircuitSensors(circuitID int) (models.CircuitSensors, error) {
	cc, ok := s.circuits[circuitID]
	if !ok {
		return models.CircuitSensors{}, ErrUnknownCircuit
	}
	snap := s.coord.Snapshot()
	if snap == nil {
		return models.CircuitSensors{}, ErrNoSnapshot
	}
	circuit, ok := snap.Circuits[circuitID]
	if !ok {
		return models.CircuitSensors{}, ErrCircuitUnavailable
	}
	return models.CircuitSensors{
		CircuitID:         circuitID,
		Name:              cc.Name,
		Temperature:       circuit.Temperature,
		TargetTemperature: circuit.TargetTemperature,
		Attributes: models.SensorAttributes{
			Enabled:    circuit.Enabled,
			UserOffset: circuit.UserOffset,
			MaxOffset:  circuit.MaxOffset,
			Warning:    circuit.Warning,
			Heating:    circuit.Heating,
			Cooling:    circuit.Cooling,
			LowMode:    circuit.LowMode,
			SummerMode: circuit.SummerMode,
		},
	}, nil
}

// Subscribe registers fn for snapshot replacements and returns the
// removal function.
func (s *MonitoringService) Subscribe(fn func(*models.ControllerSnapshot)) func() {
	return s.coord.AddListener(fn)
}

// RequestRefresh asks the coordinator for an out-of-cycle poll.
func (s *MonitoringService) RequestRefresh() {
	s.coord.RequestRefresh()
}
