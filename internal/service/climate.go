package service

import (
	"context"
	"fmt"
	"slices"

	"bmrbridge/internal/bmr"
	"bmrbridge/internal/config"
	"bmrbridge/internal/logger"
	"bmrbridge/internal/models"
	"bmrbridge/internal/repository"
)

// ClimateService projects circuits from the latest snapshot into climate
// states and translates mode/preset/temperature intents into device
// writes. Every write ends with an out-of-cycle refresh request; the new
// state is never assumed synchronously, the controller can take a while
// to reflect changes.
type ClimateService struct {
	client     bmr.Client
	coord      Refresher
	events     repository.EventRepo
	controller config.ControllerConfig
	circuits   map[int]config.CircuitConfig
	log        *logger.Logger
}

func NewClimateService(
	client bmr.Client,
	coord Refresher,
	events repository.EventRepo,
	controller config.ControllerConfig,
	circuits []config.CircuitConfig,
	log *logger.Logger,
) *ClimateService {
	byID := make(map[int]config.CircuitConfig, len(circuits))
	for _, cc := range circuits {
		byID[cc.ID] = cc
	}
	return &ClimateService{
		client:     client,
		coord:      coord,
		events:     events,
		controller: controller,
		circuits:   byID,
		log:        log,
	}
}

// State derives the climate view of a circuit from the latest snapshot.
func (s *ClimateService) State(circuitID int) (models.ClimateState, error) {
	cc, ok := s.circuits[circuitID]
	if !ok {
		return models.ClimateState{}, ErrUnknownCircuit
	}
	snap := s.coord.Snapshot()
	if snap == nil {
		return models.ClimateState{}, ErrNoSnapshot
	}
	circuit, ok := snap.Circuits[circuitID]
	if !ok {
		// The circuit failed its plausibility check this cycle.
		return models.ClimateState{}, ErrCircuitUnavailable
	}

	return models.ClimateState{
		CircuitID:          circuitID,
		Name:               cc.Name,
		Mode:               s.deriveMode(snap, &circuit, cc),
		Action:             deriveAction(snap, &circuit),
		Preset:             derivePreset(snap),
		CurrentTemperature: circuit.Temperature,
		TargetTemperature:  circuit.TargetTemperature,
		MinTemperature:     cc.MinTemperature,
		MaxTemperature:     cc.MaxTemperature,
		AvailableModes:     s.availableModes(),
	}, nil
}

// deriveMode infers the operating mode from two independent pieces of
// device state: summer-mode assignment and schedule equality with the
// manual override slot. Derived on demand, never stored, so it cannot
// diverge from the snapshot.
func (s *ClimateService) deriveMode(snap *models.ControllerSnapshot, circuit *models.CircuitState, cc config.CircuitConfig) models.HVACMode {
	switch {
	case snap.SummerAssigned(cc.ID):
		return models.ModeOff
	case slices.Equal(circuit.DaySchedules, []int{cc.ManualModeSchedule}):
		if s.controller.EnableCooling {
			return models.ModeHeatCool
		}
		return models.ModeHeat
	default:
		return models.ModeAuto
	}
}

// deriveAction reports what the circuit is doing right now, independent
// of the mode.
func deriveAction(snap *models.ControllerSnapshot, circuit *models.CircuitState) models.HVACAction {
	switch {
	case snap.SummerAssigned(circuit.ID):
		return models.ActionOff
	case circuit.Heating:
		return models.ActionHeating
	case circuit.Cooling:
		return models.ActionCooling
	default:
		return models.ActionIdle
	}
}

func derivePreset(snap *models.ControllerSnapshot) models.Preset {
	if snap.LowMode.Enabled {
		return models.PresetAway
	}
	return models.PresetNone
}

func (s *ClimateService) availableModes() []models.HVACMode {
	if s.controller.EnableCooling {
		return []models.HVACMode{models.ModeAuto, models.ModeHeatCool, models.ModeOff}
	}
	return []models.HVACMode{models.ModeAuto, models.ModeHeat, models.ModeOff}
}

func (s *ClimateService) manualMode() models.HVACMode {
	if s.controller.EnableCooling {
		return models.ModeHeatCool
	}
	return models.ModeHeat
}

// SetMode switches the operating mode of a circuit.
//
// Mode "off" adds the circuit to the summer-mode assignment set and
// turns summer mode on if it isn't already; every other mode removes the
// circuit from the set and turns summer mode off once no circuit remains
// assigned. Heat modes reassign the circuit to the manual override
// schedule; other modes restore the configured daily rotation.
func (s *ClimateService) SetMode(ctx context.Context, circuitID int, mode models.HVACMode) error {
	cc, ok := s.circuits[circuitID]
	if !ok {
		return ErrUnknownCircuit
	}
	if !slices.Contains(s.availableModes(), mode) {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	if mode == models.ModeOff {
		if err := s.client.SetSummerModeAssignments(ctx, []int{circuitID}, true); err != nil {
			return err
		}
		on, err := s.client.SummerMode(ctx)
		if err != nil {
			return err
		}
		if !on {
			if err := s.client.SetSummerMode(ctx, true); err != nil {
				return err
			}
		}
	} else {
		if err := s.client.SetSummerModeAssignments(ctx, []int{circuitID}, false); err != nil {
			return err
		}
		assignments, err := s.client.SummerModeAssignments(ctx)
		if err != nil {
			return err
		}
		if !anyAssigned(assignments) {
			if err := s.client.SetSummerMode(ctx, false); err != nil {
				return err
			}
		}
	}

	switch mode {
	case models.ModeHeat, models.ModeHeatCool:
		if err := s.client.SetCircuitSchedules(ctx, circuitID, []int{cc.ManualModeSchedule}, 0); err != nil {
			return err
		}
	default:
		// auto and off both restore the configured daily rotation, so a
		// circuit switched off in a heat mode does not resume a stale
		// override schedule once summer mode is lifted.
		if err := s.client.SetCircuitSchedules(ctx, circuitID, cc.AutoModeSchedules, cc.AutoModeStartingDay); err != nil {
			return err
		}
	}

	appendEvent(s.events, s.log, models.BridgeEvent{
		Type:        models.EventModeChange,
		Description: fmt.Sprintf("Circuit %s mode set to %s", cc.Name, mode),
		Metadata:    map[string]any{"circuit_id": circuitID, "mode": string(mode)},
	})
	s.coord.RequestRefresh()
	return nil
}

// SetPreset toggles the per-circuit low ("away") mode assignment and the
// controller-wide low-mode flag.
func (s *ClimateService) SetPreset(ctx context.Context, circuitID int, preset models.Preset) error {
	cc, ok := s.circuits[circuitID]
	if !ok {
		return ErrUnknownCircuit
	}

	switch preset {
	case models.PresetAway:
		if err := s.client.SetLowModeAssignments(ctx, []int{circuitID}, true); err != nil {
			return err
		}
		lowMode, err := s.client.LowMode(ctx)
		if err != nil {
			return err
		}
		if !lowMode.Enabled {
			temp := s.controller.AwayTemperature
			if err := s.client.SetLowMode(ctx, true, &temp); err != nil {
				return err
			}
		}
	case models.PresetNone:
		if err := s.client.SetLowModeAssignments(ctx, []int{circuitID}, false); err != nil {
			return err
		}
		assignments, err := s.client.LowModeAssignments(ctx)
		if err != nil {
			return err
		}
		if !anyAssigned(assignments) {
			if err := s.client.SetLowMode(ctx, false, nil); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPreset, preset)
	}

	appendEvent(s.events, s.log, models.BridgeEvent{
		Type:        models.EventPresetChange,
		Description: fmt.Sprintf("Circuit %s preset set to %s", cc.Name, preset),
		Metadata:    map[string]any{"circuit_id": circuitID, "preset": string(preset)},
	})
	s.coord.RequestRefresh()
	return nil
}

// SetTargetTemperature rewrites the manual override schedule to a
// constant target and, when the circuit is not already in a heat mode,
// switches it there. The normal daily schedules are never touched.
func (s *ClimateService) SetTargetTemperature(ctx context.Context, circuitID int, temperature float64) error {
	cc, ok := s.circuits[circuitID]
	if !ok {
		return ErrUnknownCircuit
	}
	if temperature < cc.MinTemperature || temperature > cc.MaxTemperature {
		return fmt.Errorf("target temperature %.1f out of range [%.1f, %.1f]", temperature, cc.MinTemperature, cc.MaxTemperature)
	}

	entries := []bmr.ScheduleEntry{{Time: "00:00", Temperature: temperature}}
	if err := s.client.SetSchedule(ctx, cc.ManualModeSchedule, cc.Name+" override", entries); err != nil {
		return err
	}

	if state, err := s.State(circuitID); err != nil || (state.Mode != models.ModeHeat && state.Mode != models.ModeHeatCool) {
		if err := s.SetMode(ctx, circuitID, s.manualMode()); err != nil {
			return err
		}
	}

	appendEvent(s.events, s.log, models.BridgeEvent{
		Type:        models.EventTemperatureSet,
		Description: fmt.Sprintf("Circuit %s target temperature set to %.1f", cc.Name, temperature),
		Metadata:    map[string]any{"circuit_id": circuitID, "temperature": temperature},
	})
	s.coord.RequestRefresh()
	return nil
}
