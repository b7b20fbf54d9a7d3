package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/touch-port/internal/logic"
)

// FakeReader is a test double that returns scripted levels.
// It is safe to read from one goroutine while another inspects it.
type FakeReader struct {
	mu sync.Mutex

	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	samples []logic.Level

	// index tracks current position in samples
	index int

	// reads counts calls to Read
	reads int

	closed bool

	// readErr, if set, will be returned by Read()
	readErr error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...logic.Level) *FakeReader {
	return &FakeReader{samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (logic.Level, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++

	if f.readErr != nil {
		return logic.Low, f.readErr
	}

	if len(f.samples) == 0 {
		return logic.Low, errors.New("no samples configured")
	}

	sample := f.samples[f.index]
	if f.index < len(f.samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// SetReadError makes every subsequent Read fail with err.
func (f *FakeReader) SetReadError(err error) {
	f.mu.Lock()
	f.readErr = err
	f.mu.Unlock()
}

// Reads returns how many times Read has been called.
func (f *FakeReader) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Closed reports whether Close was called.
func (f *FakeReader) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset rewinds the reader to the first sample.
func (f *FakeReader) Reset() {
	f.mu.Lock()
	f.index = 0
	f.reads = 0
	f.closed = false
	f.mu.Unlock()
}
