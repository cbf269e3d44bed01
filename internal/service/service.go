package service

import (
	"context"
	"errors"
	"time"

	"bmrbridge/internal/bmr"
	"bmrbridge/internal/config"
	"bmrbridge/internal/logger"
	"bmrbridge/internal/models"
	"bmrbridge/internal/repository"
)

// Shared service errors.
var (
	ErrNoSnapshot         = errors.New("no controller snapshot available yet")
	ErrUnknownCircuit     = errors.New("circuit is not configured")
	ErrCircuitUnavailable = errors.New("circuit has no data in the current snapshot")
	ErrInvalidMode        = errors.New("invalid mode")
	ErrInvalidPreset      = errors.New("invalid preset: must be none or away")
)

// Refresher is the coordinator contract the entity adapters consume:
// read the latest snapshot, force an out-of-cycle poll after a write,
// and subscribe to snapshot replacements.
type Refresher interface {
	Snapshot() *models.ControllerSnapshot
	RequestRefresh()
	AddListener(fn func(*models.ControllerSnapshot)) func()
}

// Climate exposes per-circuit climate projections and write actions.
type Climate interface {
	State(circuitID int) (models.ClimateState, error)
	SetMode(ctx context.Context, circuitID int, mode models.HVACMode) error
	SetPreset(ctx context.Context, circuitID int, preset models.Preset) error
	SetTargetTemperature(ctx context.Context, circuitID int, temperature float64) error
}

// Switches exposes the controller-wide away and power switches.
type Switches interface {
	Away() (models.SwitchState, error)
	SetAway(ctx context.Context, on bool) error
	Power() (models.SwitchState, error)
	SetPower(ctx context.Context, on bool) error
}

// Monitoring exposes read-only snapshot projections and the manual
// refresh trigger.
type Monitoring interface {
	Snapshot() (*models.ControllerSnapshot, error)
	CircuitSensors(circuitID int) (models.CircuitSensors, error)
	Subscribe(fn func(*models.ControllerSnapshot)) func()
	RequestRefresh()
}

// LogFilter narrows event log queries by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string
}

// EventLog exposes the append-only bridge event log.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.BridgeEvent, error)
}

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Service aggregates all sub-services.
type Service struct {
	Climate
	Switches
	Monitoring
	EventLog
	Authorization
}

// Deps carries everything the sub-services need.
type Deps struct {
	Client      bmr.Client
	Coordinator Refresher
	Repos       *repository.Repository
	Controller  config.ControllerConfig
	Circuits    []config.CircuitConfig
	Auth        config.AuthConfig
	Log         *logger.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		Climate:       NewClimateService(d.Client, d.Coordinator, d.Repos.EventRepo, d.Controller, d.Circuits, d.Log),
		Switches:      NewSwitchService(d.Client, d.Coordinator, d.Repos.EventRepo, d.Controller, d.Circuits, d.Log),
		Monitoring:    NewMonitoringService(d.Coordinator, d.Circuits),
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
	}
}

func anyAssigned(assignments []bool) bool {
	for _, a := range assignments {
		if a {
			return true
		}
	}
	return false
}

// appendEvent records a user action best-effort; write actions never
// fail because the event log is unavailable.
func appendEvent(events repository.EventRepo, log *logger.Logger, e models.BridgeEvent) {
	if events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := events.Append(ctx, e); err != nil && log != nil {
		log.Warnw("event_append_failed", "err", err, "type", e.Type)
	}
}
