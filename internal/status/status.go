// Package status provides a thread-safe status tracker for the touch-port daemon.
// It is fed by the kernel (as a record sink and failure reporter) and by ports
// (as an observer), and read by the HTTP handlers.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/sweeney/touch-port/internal/config"
	"github.com/sweeney/touch-port/internal/event"
)

// Config contains daemon configuration for display.
type Config struct {
	Broker   string
	Topic    string
	HTTPAddr string
}

// PortInfo is the state of one port.
type PortInfo struct {
	ID          string
	Type        string
	Configured  bool
	LineID      uint16
	Chip        string
	PollMs      int64
	Simulate    bool
	Failed      bool
	Error       string
	Started     int
	Ended       int
	LastType    string
	LastEventAt time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Ports         []PortInfo
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	MQTTBacklog   int
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	startTime     time.Time
	cfg           Config
	ports         map[string]*PortInfo
	mqttConnected bool
	mqttBacklog   int
	metrics       *Metrics
}

// NewTracker creates a Tracker with the given start time and config.
// metrics may be nil.
func NewTracker(startTime time.Time, cfg Config, metrics *Metrics) *Tracker {
	return &Tracker{
		startTime: startTime,
		cfg:       cfg,
		ports:     make(map[string]*PortInfo),
		metrics:   metrics,
	}
}

// AddPort registers a port before it is configured.
func (t *Tracker) AddPort(id, typ string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.ports[id]; !ok {
		t.ports[id] = &PortInfo{ID: id, Type: typ}
	}
	t.metrics.setConfigured(id, false)
}

// PortConfigured records the accepted configuration of a port.
func (t *Tracker) PortConfigured(id string, cfg config.Port) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.port(id)
	p.Configured = true
	p.LineID = cfg.LineID
	p.Chip = cfg.Chip
	p.PollMs = cfg.PollInterval.Milliseconds()
	p.Simulate = cfg.Simulate

	t.metrics.setConfigured(id, true)
}

// PortFailed marks a port as stopped by err. Its counts are kept.
func (t *Tracker) PortFailed(id string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.port(id)
	p.Failed = true
	if err != nil {
		p.Error = err.Error()
	}

	t.metrics.setFailed(id)
}

// Failed returns the ids of failed ports, sorted.
func (t *Tracker) Failed() []string {
	t.mu.RLock()
	var ids []string
	for id, p := range t.ports {
		if p.Failed {
			ids = append(ids, id)
		}
	}
	t.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Publish counts a record. It never fails.
func (t *Tracker) Publish(rec event.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.port(rec.SourcePortID)
	switch rec.Type {
	case event.TypePressStarted:
		p.Started++
	case event.TypePressEnded:
		p.Ended++
	}
	p.LastType = rec.Type
	p.LastEventAt = rec.Time

	t.metrics.countEvent(rec.SourcePortID, rec.Type)

	return nil
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.mqttConnected = connected
	t.mu.Unlock()

	t.metrics.setMQTTConnected(connected)
}

// SetMQTTBacklog sets the number of records waiting for the broker.
func (t *Tracker) SetMQTTBacklog(n int) {
	t.mu.Lock()
	t.mqttBacklog = n
	t.mu.Unlock()

	t.metrics.setMQTTBacklog(n)
}

// Snapshot returns a point-in-time copy of the daemon state, ports sorted by id.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := Snapshot{
		Ports:         make([]PortInfo, 0, len(t.ports)),
		StartTime:     t.startTime,
		MQTTConnected: t.mqttConnected,
		MQTTBacklog:   t.mqttBacklog,
		Config:        t.cfg,
	}
	for _, p := range t.ports {
		s.Ports = append(s.Ports, *p)
	}
	t.mu.RUnlock()

	sort.Slice(s.Ports, func(i, j int) bool { return s.Ports[i].ID < s.Ports[j].ID })
	s.Now = time.Now()
	return s
}

// port returns the entry for id, creating it. Caller holds t.mu.
func (t *Tracker) port(id string) *PortInfo {
	p, ok := t.ports[id]
	if !ok {
		p = &PortInfo{ID: id}
		t.ports[id] = p
	}
	return p
}
