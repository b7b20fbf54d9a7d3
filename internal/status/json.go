package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Ports         []PortJSON `json:"ports"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Backlog   int    `json:"backlog"`
	Broker    string `json:"broker"`
	Topic     string `json:"topic"`
}

// PortJSON is the JSON representation of one port.
type PortJSON struct {
	ID          string     `json:"id"`
	Type        string     `json:"type,omitempty"`
	Configured  bool       `json:"configured"`
	LineID      uint16     `json:"line_id"`
	Chip        string     `json:"chip,omitempty"`
	PollMs      int64      `json:"poll_ms"`
	Simulate    bool       `json:"simulate"`
	Failed      bool       `json:"failed"`
	Error       string     `json:"error,omitempty"`
	Counts      CountsJSON `json:"event_counts"`
	LastEvent   string     `json:"last_event,omitempty"`
	LastEventAt string     `json:"last_event_at,omitempty"`
}

// CountsJSON is the JSON representation of per-port event counts.
type CountsJSON struct {
	Started int `json:"started"`
	Ended   int `json:"ended"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	HTTPAddr string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Backlog:   snap.MQTTBacklog,
			Broker:    snap.Config.Broker,
			Topic:     snap.Config.Topic,
		},
		Ports: make([]PortJSON, 0, len(snap.Ports)),
		Config: ConfigJSON{
			Broker:   snap.Config.Broker,
			Topic:    snap.Config.Topic,
			HTTPAddr: snap.Config.HTTPAddr,
		},
	}

	for _, p := range snap.Ports {
		pj := PortJSON{
			ID:         p.ID,
			Type:       p.Type,
			Configured: p.Configured,
			LineID:     p.LineID,
			Chip:       p.Chip,
			PollMs:     p.PollMs,
			Simulate:   p.Simulate,
			Failed:     p.Failed,
			Error:      p.Error,
			Counts:     CountsJSON{Started: p.Started, Ended: p.Ended},
			LastEvent:  p.LastType,
		}
		if !p.LastEventAt.IsZero() {
			pj.LastEventAt = p.LastEventAt.UTC().Format(time.RFC3339)
		}
		inner.Ports = append(inner.Ports, pj)
	}

	return inner
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
