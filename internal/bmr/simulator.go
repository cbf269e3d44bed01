package bmr

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Simulation constants.
const (
	simAmbientC     = 18.0 // temperature circuits drift to with heating off
	simDefaultC     = 21.0 // initial circuit temperature and fallback target
	simRampCPerSec  = 0.02 // °C per second when heating
	simDriftCPerSec = 0.01 // °C per second cooling drift
	simToleranceC   = 0.2  // band around target treated as "at target"
)

type simCircuit struct {
	circuit   Circuit
	schedules Schedules
}

type simSchedule struct {
	name    string
	entries []ScheduleEntry
}

// Simulator is an in-memory HC64 controller implementing Client. It is
// used for local development and tests; real deployments replace it with
// a vendor driver behind the same interface.
type Simulator struct {
	mu sync.Mutex

	uniqueID          string
	lowMode           LowMode
	lowAssignments    [MaxCircuits]bool
	summerMode        bool
	summerAssignments [MaxCircuits]bool
	circuits          map[int]*simCircuit
	schedules         map[int]simSchedule

	lastTick time.Time
	now      func() time.Time
}

// NewSimulator creates a simulated controller with the given circuit IDs.
func NewSimulator(circuitIDs []int) *Simulator {
	s := &Simulator{
		uniqueID:  "SIM-HC64-0001",
		circuits:  make(map[int]*simCircuit, len(circuitIDs)),
		schedules: make(map[int]simSchedule),
		now:       time.Now,
	}
	s.lastTick = s.now()
	for _, id := range circuitIDs {
		temp := simDefaultC
		target := simDefaultC
		s.circuits[id] = &simCircuit{
			circuit: Circuit{
				ID:                id,
				Name:              fmt.Sprintf("circuit %02d", id),
				Enabled:           true,
				MaxOffset:         5.0,
				Temperature:       &temp,
				TargetTemperature: &target,
			},
			schedules: Schedules{DaySchedules: []int{id}, StartingDay: 1},
		}
		s.schedules[id] = simSchedule{
			name:    fmt.Sprintf("circuit %02d weekday", id),
			entries: []ScheduleEntry{{Time: "00:00", Temperature: simDefaultC}},
		}
	}
	return s
}

var _ Client = (*Simulator)(nil)

func (s *Simulator) UniqueID(ctx context.Context) (string, error) {
	return s.uniqueID, nil
}

// HDO simulates the night low-tariff window.
func (s *Simulator) HDO(ctx context.Context) (bool, error) {
	h := s.now().Hour()
	return h >= 22 || h < 6, nil
}

func (s *Simulator) LowMode(ctx context.Context) (LowMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lowMode, nil
}

func (s *Simulator) SetLowMode(ctx context.Context, enabled bool, temperature *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lowMode.Enabled = enabled
	if enabled {
		if temperature != nil {
			t := *temperature
			s.lowMode.Temperature = &t
		}
		start := s.now()
		s.lowMode.StartDate = &start
	} else {
		s.lowMode.StartDate = nil
	}
	return nil
}

func (s *Simulator) LowModeAssignments(ctx context.Context) ([]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]bool, MaxCircuits)
	copy(out, s.lowAssignments[:])
	return out, nil
}

func (s *Simulator) SetLowModeAssignments(ctx context.Context, circuitIDs []int, assigned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range circuitIDs {
		if id < 0 || id >= MaxCircuits {
			return fmt.Errorf("%w: %d", ErrUnknownCircuit, id)
		}
		s.lowAssignments[id] = assigned
	}
	return nil
}

func (s *Simulator) SummerMode(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summerMode, nil
}

func (s *Simulator) SetSummerMode(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summerMode = enabled
	return nil
}

func (s *Simulator) SummerModeAssignments(ctx context.Context) ([]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]bool, MaxCircuits)
	copy(out, s.summerAssignments[:])
	return out, nil
}

func (s *Simulator) SetSummerModeAssignments(ctx context.Context, circuitIDs []int, assigned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range circuitIDs {
		if id < 0 || id >= MaxCircuits {
			return fmt.Errorf("%w: %d", ErrUnknownCircuit, id)
		}
		s.summerAssignments[id] = assigned
	}
	return nil
}

func (s *Simulator) Circuit(ctx context.Context, id int) (Circuit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	sc, ok := s.circuits[id]
	if !ok {
		return Circuit{}, fmt.Errorf("%w: %d", ErrUnknownCircuit, id)
	}
	c := sc.circuit
	if c.Temperature != nil {
		t := *c.Temperature
		c.Temperature = &t
	}
	if c.TargetTemperature != nil {
		t := *c.TargetTemperature
		c.TargetTemperature = &t
	}
	return c, nil
}

func (s *Simulator) CircuitSchedules(ctx context.Context, id int) (Schedules, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.circuits[id]
	if !ok {
		return Schedules{}, fmt.Errorf("%w: %d", ErrUnknownCircuit, id)
	}
	out := Schedules{
		DaySchedules: append([]int(nil), sc.schedules.DaySchedules...),
		StartingDay:  sc.schedules.StartingDay,
	}
	return out, nil
}

func (s *Simulator) SetCircuitSchedules(ctx context.Context, id int, scheduleIDs []int, startingDay int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.circuits[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCircuit, id)
	}
	sc.schedules = Schedules{
		DaySchedules: append([]int(nil), scheduleIDs...),
		StartingDay:  startingDay,
	}
	return nil
}

func (s *Simulator) SetSchedule(ctx context.Context, id int, name string, entries []ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[id] = simSchedule{
		name:    name,
		entries: append([]ScheduleEntry(nil), entries...),
	}
	return nil
}

// advance moves every circuit temperature toward its effective target
// based on wall-clock time since the previous read. Callers hold s.mu.
func (s *Simulator) advance() {
	now := s.now()
	elapsed := now.Sub(s.lastTick).Seconds()
	s.lastTick = now
	if elapsed <= 0 {
		return
	}

	for id, sc := range s.circuits {
		target := s.effectiveTarget(id, sc)
		sc.circuit.TargetTemperature = &target

		temp := *sc.circuit.Temperature
		switch {
		case temp < target-simToleranceC:
			temp = minFloat(temp+simRampCPerSec*elapsed, target)
			sc.circuit.Heating = true
		case temp > target+simToleranceC:
			temp = maxFloat(temp-simDriftCPerSec*elapsed, target)
			sc.circuit.Heating = false
		default:
			sc.circuit.Heating = false
		}
		sc.circuit.Temperature = &temp
		sc.circuit.LowMode = s.lowMode.Enabled && s.lowAssignments[id]
		sc.circuit.SummerMode = s.summerMode && s.summerAssignments[id]
	}
}

// effectiveTarget resolves the target temperature of a circuit from
// summer mode, low mode, and the assigned schedule, in that order.
func (s *Simulator) effectiveTarget(id int, sc *simCircuit) float64 {
	if s.summerMode && s.summerAssignments[id] {
		return simAmbientC
	}
	if s.lowMode.Enabled && s.lowAssignments[id] && s.lowMode.Temperature != nil {
		return *s.lowMode.Temperature
	}
	if len(sc.schedules.DaySchedules) > 0 {
		if sched, ok := s.schedules[sc.schedules.DaySchedules[0]]; ok && len(sched.entries) > 0 {
			return sched.entries[0].Temperature
		}
	}
	return simDefaultC
}

func minFloat(a, b float64) float64 {
	if a <= b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}
