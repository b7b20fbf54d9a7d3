// Package event builds the outgoing records a touch port emits for each detected edge.
package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/sweeney/touch-port/internal/logic"
)

// Type names under the device-button namespace.
const (
	TypePressStarted = "io.caru.device.button_press.started"
	TypePressEnded   = "io.caru.device.button_press.ended"
)

// SourceTag names the producing device class.
const SourceTag = "crn:io.caru.device.button"

// DeliveryMode tells the routing layer how hard to try delivering a record.
type DeliveryMode string

// DeliveryBestEffort means the record may be dropped.
const DeliveryBestEffort DeliveryMode = "best-effort"

// Record is an outgoing event. It is immutable once built.
type Record struct {
	ID           string
	RoutingID    string
	SourcePortID string
	Type         string
	Time         time.Time
	Source       string
	Delivery     DeliveryMode
}

// TypeFor returns the type name of a transition.
func TypeFor(t logic.Transition) string {
	if t == logic.TransitionStarted {
		return TypePressStarted
	}
	return TypePressEnded
}

// Factory builds records on behalf of one port.
type Factory struct {
	portID string
	now    func() time.Time
	newID  func() string
}

// NewFactory returns a Factory stamping records with portID.
func NewFactory(portID string) *Factory {
	return &Factory{
		portID: portID,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// New builds a record of the given type with a fresh id and the current UTC time.
func (f *Factory) New(typeName string) Record {
	id := f.newID()
	return Record{
		ID:           id,
		RoutingID:    id,
		SourcePortID: f.portID,
		Type:         typeName,
		Time:         f.now().UTC(),
		Source:       SourceTag,
		Delivery:     DeliveryBestEffort,
	}
}

// ForTransition builds the record for a detected transition.
func (f *Factory) ForTransition(t logic.Transition) Record {
	return f.New(TypeFor(t))
}
