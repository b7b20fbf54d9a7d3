// Package mqtt publishes touch port records to an MQTT broker, with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/touch-port/internal/event"
)

// SpecVersion is the CloudEvents version of every payload.
const SpecVersion = "1.0"

// Publisher publishes records to MQTT.
type Publisher interface {
	// Publish sends a record to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(rec event.Record) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active and how many
// records are waiting for it.
type ConnectionStatus interface {
	IsConnected() bool
	Pending() int
}

// Payload is a record in CloudEvents structured JSON form. Fields that are
// not part of the CloudEvents core are carried as extension attributes.
type Payload struct {
	SpecVersion string `json:"specversion"`
	ID          string `json:"id"`
	Type        string `json:"type"`
	Source      string `json:"source"`
	Time        string `json:"time"`
	RoutingID   string `json:"routingid"`
	PortID      string `json:"portid"`
	Delivery    string `json:"delivery"`
}

// FormatPayload creates the JSON payload for a record.
func FormatPayload(rec event.Record) ([]byte, error) {
	return json.Marshal(Payload{
		SpecVersion: SpecVersion,
		ID:          rec.ID,
		Type:        rec.Type,
		Source:      rec.Source,
		Time:        rec.Time.UTC().Format(time.RFC3339Nano),
		RoutingID:   rec.RoutingID,
		PortID:      rec.SourcePortID,
		Delivery:    string(rec.Delivery),
	})
}

// QoS returns the MQTT quality of service for a delivery mode.
// Best-effort maps to at-most-once; anything else to at-least-once.
func QoS(mode event.DeliveryMode) byte {
	if mode == event.DeliveryBestEffort {
		return 0
	}
	return 1
}
