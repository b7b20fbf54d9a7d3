package status

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports tracker state to Prometheus. A nil *Metrics is a no-op.
type Metrics struct {
	events        *prometheus.CounterVec
	configured    *prometheus.GaugeVec
	failed        *prometheus.GaugeVec
	mqttConnected prometheus.Gauge
	mqttBacklog   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "touch_port_events_total",
			Help: "Records emitted per port and event type.",
		}, []string{"port", "type"}),
		configured: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "touch_port_configured",
			Help: "1 once the port has accepted its configuration and is polling.",
		}, []string{"port"}),
		failed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "touch_port_failed",
			Help: "1 once the port has stopped on an error.",
		}, []string{"port"}),
		mqttConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "touch_port_mqtt_connected",
			Help: "1 while the MQTT broker connection is up.",
		}),
		mqttBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "touch_port_mqtt_backlog",
			Help: "Records held while the MQTT broker is unreachable.",
		}),
	}

	reg.MustRegister(m.events, m.configured, m.failed, m.mqttConnected, m.mqttBacklog)

	return m
}

func (m *Metrics) countEvent(port, typ string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(port, typ).Inc()
}

func (m *Metrics) setConfigured(port string, configured bool) {
	if m == nil {
		return
	}
	m.configured.WithLabelValues(port).Set(boolToFloat(configured))
}

func (m *Metrics) setFailed(port string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(port).Set(1)
}

func (m *Metrics) setMQTTBacklog(n int) {
	if m == nil {
		return
	}
	m.mqttBacklog.Set(float64(n))
}

func (m *Metrics) setMQTTConnected(connected bool) {
	if m == nil {
		return
	}
	m.mqttConnected.Set(boolToFloat(connected))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
