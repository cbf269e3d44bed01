package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"bmrbridge/internal/models"
)

// Poll result labels.
const (
	ResultOK         = "ok"
	ResultNotReady   = "not_ready"
	ResultAuthFailed = "auth_failed"
	ResultError      = "error"
)

// Metrics holds the bridge's Prometheus collectors.
type Metrics struct {
	pollsTotal            *prometheus.CounterVec
	sanityRejectionsTotal prometheus.Counter
	circuitTemperature    *prometheus.GaugeVec
	circuitTarget         *prometheus.GaugeVec
	hdo                   prometheus.Gauge
	lastPollTimestamp     prometheus.Gauge
}

// New registers the bridge collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bmrbridge",
			Name:      "polls_total",
			Help:      "Controller polls by result",
		}, []string{"result"}),
		sanityRejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bmrbridge",
			Name:      "sanity_rejections_total",
			Help:      "Circuit readings dropped by the plausibility check",
		}),
		circuitTemperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bmrbridge",
			Name:      "circuit_temperature_celsius",
			Help:      "Measured circuit temperature",
		}, []string{"circuit"}),
		circuitTarget: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bmrbridge",
			Name:      "circuit_target_temperature_celsius",
			Help:      "Circuit target temperature",
		}, []string{"circuit"}),
		hdo: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bmrbridge",
			Name:      "hdo",
			Help:      "Electricity tariff signal (1 = low tariff)",
		}),
		lastPollTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bmrbridge",
			Name:      "last_successful_poll_timestamp_seconds",
			Help:      "Unix time of the last successful poll",
		}),
	}
	reg.MustRegister(
		m.pollsTotal,
		m.sanityRejectionsTotal,
		m.circuitTemperature,
		m.circuitTarget,
		m.hdo,
		m.lastPollTimestamp,
	)
	return m
}

// RecordPoll counts one poll outcome.
func (m *Metrics) RecordPoll(result string) {
	if m == nil {
		return
	}
	m.pollsTotal.WithLabelValues(result).Inc()
}

// RecordSanityRejection counts one dropped circuit reading.
func (m *Metrics) RecordSanityRejection() {
	if m == nil {
		return
	}
	m.sanityRejectionsTotal.Inc()
}

// ObserveSnapshot updates the gauges from a fresh snapshot.
func (m *Metrics) ObserveSnapshot(snap *models.ControllerSnapshot) {
	if m == nil || snap == nil {
		return
	}
	for id, circuit := range snap.Circuits {
		label := strconv.Itoa(id)
		if circuit.Temperature != nil {
			m.circuitTemperature.WithLabelValues(label).Set(*circuit.Temperature)
		}
		if circuit.TargetTemperature != nil {
			m.circuitTarget.WithLabelValues(label).Set(*circuit.TargetTemperature)
		}
	}
	if snap.HDO {
		m.hdo.Set(1)
	} else {
		m.hdo.Set(0)
	}
	m.lastPollTimestamp.Set(float64(snap.FetchedAt.Unix()))
}
