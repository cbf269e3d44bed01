package service

import (
	"context"
	"fmt"

	"bmrbridge/internal/bmr"
	"bmrbridge/internal/config"
	"bmrbridge/internal/logger"
	"bmrbridge/internal/models"
	"bmrbridge/internal/repository"
)

// SwitchService exposes the two controller-wide switches: "away"
// (low mode across all configured circuits) and "power" (inverse of
// summer mode across all configured circuits).
type SwitchService struct {
	client     bmr.Client
	coord      Refresher
	events     repository.EventRepo
	controller config.ControllerConfig
	circuitIDs []int
	log        *logger.Logger
}

func NewSwitchService(
	client bmr.Client,
	coord Refresher,
	events repository.EventRepo,
	controller config.ControllerConfig,
	circuits []config.CircuitConfig,
	log *logger.Logger,
) *SwitchService {
	ids := make([]int, 0, len(circuits))
	for _, cc := range circuits {
		ids = append(ids, cc.ID)
	}
	return &SwitchService{
		client:     client,
		coord:      coord,
		events:     events,
		controller: controller,
		circuitIDs: ids,
		log:        log,
	}
}

// Away reports the controller-wide away switch: on iff low mode is
// enabled. Attributes carry the configured away temperature and the
// activation timestamp.
func (s *SwitchService) Away() (models.SwitchState, error) {
	snap := s.coord.Snapshot()
	if snap == nil {
		return models.SwitchState{}, ErrNoSnapshot
	}
	return models.SwitchState{
		On: snap.LowMode.Enabled,
		Attributes: map[string]any{
			"away_temperature": snap.LowMode.Temperature,
			"away_start_date":  snap.LowMode.StartDate,
		},
	}, nil
}

// SetAway mirrors low mode and its assignment set across all configured
// circuits. Turning on enables low mode only if it wasn't enabled yet;
// turning off disables it once no circuit remains assigned. Repeated
// identical calls are idempotent.
func (s *SwitchService) SetAway(ctx context.Context, on bool) error {
	if on {
		if err := s.client.SetLowModeAssignments(ctx, s.circuitIDs, true); err != nil {
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
	} else {
		if err := s.client.SetLowModeAssignments(ctx, s.circuitIDs, false); err != nil {
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
	}

	appendEvent(s.events, s.log, models.BridgeEvent{
		Type:        models.EventSwitchChange,
		Description: fmt.Sprintf("Away switch set to %t", on),
		Metadata:    map[string]any{"switch": "away", "on": on},
	})
	s.coord.RequestRefresh()
	return nil
}

// Power reports the controller-wide power switch: on iff summer mode is
// not active or not all configured circuits are assigned to it.
func (s *SwitchService) Power() (models.SwitchState, error) {
	snap := s.coord.Snapshot()
	if snap == nil {
		return models.SwitchState{}, ErrNoSnapshot
	}
	allAssigned := true
	for _, id := range s.circuitIDs {
		if !snap.SummerAssigned(id) {
			allAssigned = false
			break
		}
	}
	return models.SwitchState{On: !(snap.SummerMode && allAssigned)}, nil
}

// SetPower turns heating on or off for the whole controller. Off assigns
// every configured circuit to summer mode and enables it; on does the
// reverse.
func (s *SwitchService) SetPower(ctx context.Context, on bool) error {
	if on {
		if err := s.client.SetSummerMode(ctx, false); err != nil {
			return err
		}
		if err := s.client.SetSummerModeAssignments(ctx, s.circuitIDs, false); err != nil {
			return err
		}
	} else {
		if err := s.client.SetSummerMode(ctx, true); err != nil {
			return err
		}
		if err := s.client.SetSummerModeAssignments(ctx, s.circuitIDs, true); err != nil {
			return err
		}
	}

	appendEvent(s.events, s.log, models.BridgeEvent{
		Type:        models.EventSwitchChange,
		Description: fmt.Sprintf("Power switch set to %t", on),
		Metadata:    map[string]any{"switch": "power", "on": on},
	})
	s.coord.RequestRefresh()
	return nil
}
