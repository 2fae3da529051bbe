// Package metrics exposes the decoder and clock health as Prometheus
// metrics.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sweeney/sunrise-clock/internal/alarm"
	"github.com/sweeney/sunrise-clock/internal/clock"
	"github.com/sweeney/sunrise-clock/internal/datetime"
	"github.com/sweeney/sunrise-clock/internal/dcf77"
)

const namespace = "sunrise_clock"

var phaseKinds = []string{
	datetime.Default{}.Kind(),
	datetime.Dawn{}.Kind(),
	datetime.SunRise{}.Kind(),
}

// Metrics holds the collectors, registered on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	decoderErrors *prometheus.CounterVec // by error kind
	symbols       *prometheus.CounterVec // by symbol
	radioSyncs    prometheus.Counter
	lastSync      prometheus.Gauge // unix time of the last decoded minute
	rtcErrors     *prometheus.CounterVec // by operation
	phase         *prometheus.GaugeVec   // 1 for the current phase kind
	quarters      prometheus.Gauge       // -1 when unknown
	alarmEvents   *prometheus.CounterVec // by event type
	mqttConnected prometheus.Gauge
}

// New creates the collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		reg: reg,
		decoderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decoder_errors_total",
			Help:      "DCF77 decoder errors, each followed by a decoder reset.",
		}, []string{"kind"}),
		symbols: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_total",
			Help:      "Radio seconds received, by symbol.",
		}, []string{"symbol"}),
		radioSyncs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "radio_syncs_total",
			Help:      "Minutes decoded from the radio signal.",
		}),
		lastSync: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_radio_sync_timestamp_seconds",
			Help:      "Unix time of the last decoded minute.",
		}),
		rtcErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rtc_errors_total",
			Help:      "Failed real-time clock accesses.",
		}, []string{"op"}),
		phase: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase",
			Help:      "Current phase of the day (1 for the active kind).",
		}, []string{"kind"}),
		quarters: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quarters_since_sync",
			Help:      "Quarters of an hour since the last radio sync, -1 when unknown.",
		}),
		alarmEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_events_total",
			Help:      "Alarm events published, by type.",
		}, []string{"type"}),
		mqttConnected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mqtt_connected",
			Help:      "MQTT broker connection status (1=connected, 0=disconnected).",
		}),
	}

	// Export every series from the start so rates work after a restart.
	for _, k := range phaseKinds {
		m.phase.WithLabelValues(k).Set(0)
	}
	m.phase.WithLabelValues(datetime.Default{}.Kind()).Set(1)
	m.quarters.Set(-1)
	for _, op := range []string{"read", "write"} {
		m.rtcErrors.WithLabelValues(op)
	}
	return m
}

// Observe records the outcome of one clock update.
func (m *Metrics) Observe(clk *clock.Clock, rep clock.Report, now time.Time) {
	if rep.Symbol != dcf77.NoSymbol {
		m.symbols.WithLabelValues(rep.Symbol.Label()).Inc()
	}
	if rep.DecodeErr != nil {
		m.decoderErrors.WithLabelValues(errorLabel(rep.DecodeErr)).Inc()
	}
	if rep.Synced != nil {
		m.radioSyncs.Inc()
		m.lastSync.Set(float64(now.Unix()))
	}
	if rep.WriteErr != nil {
		m.rtcErrors.WithLabelValues("write").Inc()
	}
	if rep.ReadErr != nil {
		m.rtcErrors.WithLabelValues("read").Inc()
	}

	kind := clk.Phase.Kind()
	for _, k := range phaseKinds {
		v := 0.0
		if k == kind {
			v = 1
		}
		m.phase.WithLabelValues(k).Set(v)
	}

	if q, ok := clk.QuartersSinceLastSync(); ok {
		m.quarters.Set(float64(q))
	} else {
		m.quarters.Set(-1)
	}
}

// Events counts published alarm events.
func (m *Metrics) Events(events []alarm.Event) {
	for _, e := range events {
		m.alarmEvents.WithLabelValues(string(e.Type)).Inc()
	}
}

// SetMQTTConnected records the broker connection status.
func (m *Metrics) SetMQTTConnected(connected bool) {
	if connected {
		m.mqttConnected.Set(1)
	} else {
		m.mqttConnected.Set(0)
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func errorLabel(err error) string {
	var de *dcf77.Error
	if errors.As(err, &de) {
		return de.Kind.Label()
	}
	return "other"
}
