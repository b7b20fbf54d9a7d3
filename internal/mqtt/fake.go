package mqtt

import (
	"sync"

	"github.com/sweeney/touch-port/internal/event"
)

// FakePublisher records published records for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Records contains all records that were published.
	Records []event.Record

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	// Backlog controls the return value of Pending.
	Backlog int
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the event.
func (f *FakePublisher) Publish(rec event.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(rec)
	if err != nil {
		return err
	}
	f.Records = append(f.Records, rec)
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Pending returns Backlog.
func (f *FakePublisher) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Backlog
}

// Published returns a copy of the recorded records.
func (f *FakePublisher) Published() []event.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]event.Record(nil), f.Records...)
}

// Reset clears recorded records.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records = nil
	f.Payloads = nil
	f.Closed = false
	f.PublishError = nil
	f.Connected = false
	f.Backlog = 0
}
