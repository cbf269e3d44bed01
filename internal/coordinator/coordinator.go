// Package coordinator owns the polling cadence and the single current
// controller snapshot. It serializes polls, validates circuit readings
// and pushes fresh snapshots to registered listeners.
package coordinator

import (
	"context"
	"sync"
	"time"

	"bmrbridge/internal/bmr"
	"bmrbridge/internal/config"
	"bmrbridge/internal/logger"
	"bmrbridge/internal/metrics"
	"bmrbridge/internal/models"
)

// EventRecorder receives noteworthy poll outcomes for the event log.
type EventRecorder interface {
	Append(ctx context.Context, e models.BridgeEvent) error
}

// Options configures a Coordinator. Events and Metrics are optional.
type Options struct {
	Client   bmr.Client
	Circuits []config.CircuitConfig
	Interval time.Duration
	Timeout  time.Duration
	Log      *logger.Logger
	Events   EventRecorder
	Metrics  *metrics.Metrics
}

// Coordinator polls the controller on a fixed interval while at least
// one listener is attached, plus on demand after writes.
type Coordinator struct {
	client   bmr.Client
	circuits []config.CircuitConfig
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger
	events   EventRecorder
	metrics  *metrics.Metrics

	// pollMu guarantees at most one poll in flight.
	pollMu sync.Mutex

	mu       sync.RWMutex
	snapshot *models.ControllerSnapshot

	listenerMu sync.Mutex
	listeners  map[int]func(*models.ControllerSnapshot)
	nextID     int

	refreshCh chan struct{}
}

func New(opts Options) *Coordinator {
	return &Coordinator{
		client:    opts.Client,
		circuits:  opts.Circuits,
		interval:  opts.Interval,
		timeout:   opts.Timeout,
		log:       opts.Log,
		events:    opts.Events,
		metrics:   opts.Metrics,
		listeners: make(map[int]func(*models.ControllerSnapshot)),
		refreshCh: make(chan struct{}, 1),
	}
}

// Snapshot returns the latest published snapshot, or nil before the
// first successful poll. The returned value must be treated read-only.
func (c *Coordinator) Snapshot() *models.ControllerSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// AddListener registers fn and returns its removal function. Listeners
// must not block and must not mutate the snapshot. Scheduled polling
// runs only while at least one listener is registered.
func (c *Coordinator) AddListener(fn func(*models.ControllerSnapshot)) func() {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.listenerMu.Lock()
		defer c.listenerMu.Unlock()
		delete(c.listeners, id)
	}
}

// RequestRefresh asks for an immediate out-of-cycle poll. Requests made
// while a poll is already pending coalesce into one.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// Run drives the polling loop until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.listenerCount() == 0 {
				continue
			}
			_ = c.Refresh(ctx)
		case <-c.refreshCh:
			_ = c.Refresh(ctx)
		}
	}
}

// Refresh performs one full poll. On success the stored snapshot is
// replaced atomically and listeners are notified; on failure the stored
// snapshot is left untouched and the classified error is returned.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()

	snap, err := c.fetch(ctx)
	if err != nil {
		cerr := Classify(err, time.Now())
		c.recordFailure(cerr)
		return cerr
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	c.metrics.RecordPoll(metrics.ResultOK)
	c.metrics.ObserveSnapshot(snap)
	c.notify(snap)
	return nil
}

// fetch assembles a complete snapshot from the device. The vendor API
// has no batch read, so the calls run sequentially under one host-level
// timeout.
func (c *Coordinator) fetch(ctx context.Context) (*models.ControllerSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	uniqueID, err := c.client.UniqueID(ctx)
	if err != nil {
		return nil, err
	}
	hdo, err := c.client.HDO(ctx)
	if err != nil {
		return nil, err
	}
	lowMode, err := c.client.LowMode(ctx)
	if err != nil {
		return nil, err
	}
	lowAssignments, err := c.client.LowModeAssignments(ctx)
	if err != nil {
		return nil, err
	}
	summerMode, err := c.client.SummerMode(ctx)
	if err != nil {
		return nil, err
	}
	summerAssignments, err := c.client.SummerModeAssignments(ctx)
	if err != nil {
		return nil, err
	}

	prev := c.Snapshot()
	circuits := make(map[int]models.CircuitState, len(c.circuits))
	for _, cc := range c.circuits {
		raw, err := c.client.Circuit(ctx, cc.ID)
		if err != nil {
			return nil, err
		}
		schedules, err := c.client.CircuitSchedules(ctx, cc.ID)
		if err != nil {
			return nil, err
		}

		var prevCircuit *models.CircuitState
		if prev != nil {
			if p, ok := prev.Circuits[cc.ID]; ok {
				prevCircuit = &p
			}
		}
		if ok, reason := checkCircuit(raw, prevCircuit); !ok {
			c.rejectCircuit(cc, reason)
			continue
		}

		circuits[cc.ID] = models.CircuitState{
			ID:                raw.ID,
			Name:              raw.Name,
			FriendlyName:      cc.Name,
			Enabled:           raw.Enabled,
			UserOffset:        raw.UserOffset,
			MaxOffset:         raw.MaxOffset,
			Warning:           raw.Warning,
			Heating:           raw.Heating,
			Cooling:           raw.Cooling,
			LowMode:           raw.LowMode,
			SummerMode:        raw.SummerMode,
			Temperature:       raw.Temperature,
			TargetTemperature: raw.TargetTemperature,
			DaySchedules:      schedules.DaySchedules,
			StartingDay:       schedules.StartingDay,
		}
	}

	return &models.ControllerSnapshot{
		UniqueID: uniqueID,
		HDO:      hdo,
		LowMode: models.LowModeState{
			Enabled:     lowMode.Enabled,
			Temperature: lowMode.Temperature,
			StartDate:   lowMode.StartDate,
		},
		LowModeAssignments:    lowAssignments,
		SummerMode:            summerMode,
		SummerModeAssignments: summerAssignments,
		Circuits:              circuits,
		FetchedAt:             time.Now().UTC(),
	}, nil
}

// rejectCircuit logs and records a reading dropped by the plausibility
// check. The circuit is simply absent from this cycle's snapshot.
func (c *Coordinator) rejectCircuit(cc config.CircuitConfig, reason string) {
	if c.log != nil {
		c.log.Warnw("circuit_sanity_check_failed", "circuit", cc.ID, "name", cc.Name, "reason", reason)
	}
	c.metrics.RecordSanityRejection()
	c.appendEvent(models.BridgeEvent{
		Type:        models.EventSanityRejected,
		Description: "Circuit reading rejected: " + reason,
		Metadata:    map[string]any{"circuit_id": cc.ID, "circuit_name": cc.Name},
	})
}

func (c *Coordinator) recordFailure(err error) {
	result := metrics.ResultError
	switch err.(type) {
	case *NotReadyError:
		result = metrics.ResultNotReady
		if c.log != nil {
			c.log.Warnw("controller_poll_failed", "err", err)
		}
	case *AuthError:
		result = metrics.ResultAuthFailed
		if c.log != nil {
			c.log.Errorw("controller_auth_failed", "err", err)
		}
	default:
		if c.log != nil {
			c.log.Errorw("controller_poll_failed", "err", err)
		}
	}
	c.metrics.RecordPoll(result)
	c.appendEvent(models.BridgeEvent{
		Type:        models.EventPollFailed,
		Description: err.Error(),
		Metadata:    map[string]any{"result": result},
	})
}

// appendEvent records best-effort; the poll result never depends on the
// event log being writable.
func (c *Coordinator) appendEvent(e models.BridgeEvent) {
	if c.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.events.Append(ctx, e); err != nil && c.log != nil {
		c.log.Warnw("event_append_failed", "err", err, "type", e.Type)
	}
}

func (c *Coordinator) listenerCount() int {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	return len(c.listeners)
}

func (c *Coordinator) notify(snap *models.ControllerSnapshot) {
	c.listenerMu.Lock()
	fns := make([]func(*models.ControllerSnapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenerMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
