package kernel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/touch-port/internal/config"
	"github.com/sweeney/touch-port/internal/event"
)

// scriptedComponent records the messages it receives and emits one record per ConfigUpdated.
type scriptedComponent struct {
	id  string
	out chan<- event.Record
	err error

	mu       sync.Mutex
	received []string
}

func (c *scriptedComponent) Run(ctx context.Context, inbox <-chan Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-inbox:
			c.mu.Lock()
			c.received = append(c.received, msg.Kind())
			c.mu.Unlock()

			if _, ok := msg.(ConfigUpdated); ok {
				if c.err != nil {
					return c.err
				}
				c.out <- event.NewFactory(c.id).New(event.TypePressStarted)
			}
		}
	}
}

func (c *scriptedComponent) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.received...)
}

type memorySink struct {
	mu   sync.Mutex
	recs []event.Record
	err  error
}

func (s *memorySink) Publish(rec event.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return s.err
}

func (s *memorySink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

// failureSink also records port failures.
type failureSink struct {
	memorySink
	failed map[string]error
}

func (s *failureSink) PortFailed(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = make(map[string]error)
	}
	s.failed[id] = err
}

func (s *failureSink) failure(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed[id]
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	c := func(string, chan<- event.Record) Component { return &scriptedComponent{} }

	require.NoError(t, reg.Register("touch", c))
	require.NoError(t, reg.Register("another", c))
	require.ErrorIs(t, reg.Register("touch", c), ErrAlreadyRegistered)
	require.Error(t, reg.Register("", c))
	require.Error(t, reg.Register("nil", nil))

	_, err := reg.Lookup("touch")
	require.NoError(t, err)

	_, err = reg.Lookup("missing")
	require.ErrorIs(t, err, ErrUnknownComponent)

	require.Equal(t, []string{"another", "touch"}, reg.Names())
}

func TestKernelRoutesEvents(t *testing.T) {
	t.Parallel()

	var (
		mu         sync.Mutex
		components []*scriptedComponent
	)
	reg := NewRegistry()
	require.NoError(t, reg.Register("touch", func(id string, out chan<- event.Record) Component {
		c := &scriptedComponent{id: id, out: out}
		mu.Lock()
		components = append(components, c)
		mu.Unlock()
		return c
	}))

	first, second := &memorySink{}, &memorySink{err: errors.New("broker down")}
	k := New(reg, first, second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- k.Run(ctx, []config.PortSpec{
			{ID: "a", Type: "touch", Config: map[string]any{"line_id": 1}},
			{ID: "b", Type: "touch", Config: map[string]any{"line_id": 2}},
		})
	}()

	require.Eventually(t, func() bool { return first.len() == 2 && second.len() == 2 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, components, 2)
	for _, c := range components {
		require.Equal(t, []string{"Init", "ConfigUpdated"}, c.kinds())
	}
}

func TestKernelUnknownType(t *testing.T) {
	t.Parallel()

	k := New(NewRegistry())
	err := k.Run(context.Background(), []config.PortSpec{{ID: "a", Type: "relay"}})
	require.ErrorIs(t, err, ErrUnknownComponent)
}

func TestKernelFatalComponent(t *testing.T) {
	t.Parallel()

	fatal := errors.New("invalid config")
	reg := NewRegistry()
	require.NoError(t, reg.Register("touch", func(id string, out chan<- event.Record) Component {
		return &scriptedComponent{id: id, out: out, err: fatal}
	}))

	err := New(reg).Run(context.Background(), []config.PortSpec{{ID: "a", Type: "touch"}})
	require.ErrorIs(t, err, fatal)
	require.ErrorContains(t, err, `port "a"`)
}

func TestKernelIsolatesFailedPort(t *testing.T) {
	t.Parallel()

	fatal := errors.New("invalid config")
	var (
		mu      sync.Mutex
		healthy *scriptedComponent
	)
	reg := NewRegistry()
	require.NoError(t, reg.Register("touch", func(id string, out chan<- event.Record) Component {
		if id == "bad" {
			return &scriptedComponent{id: id, out: out, err: fatal}
		}
		mu.Lock()
		defer mu.Unlock()
		healthy = &scriptedComponent{id: id, out: out}
		return healthy
	}))

	sink := &failureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(reg, sink).Run(ctx, []config.PortSpec{
			{ID: "bad", Type: "touch"},
			{ID: "good", Type: "touch"},
		})
	}()

	require.Eventually(t, func() bool { return sink.failure("bad") != nil }, time.Second, time.Millisecond)
	require.ErrorIs(t, sink.failure("bad"), fatal)
	require.NoError(t, sink.failure("good"))
	require.Eventually(t, func() bool { return sink.len() == 1 }, time.Second, time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("kernel stopped with a healthy port left: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"Init", "ConfigUpdated"}, healthy.kinds())
}

func TestKernelAllPortsFailed(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Register("touch", func(id string, out chan<- event.Record) Component {
		return &scriptedComponent{id: id, out: out, err: errors.New(id + " broken")}
	}))

	err := New(reg).Run(context.Background(), []config.PortSpec{
		{ID: "a", Type: "touch"},
		{ID: "b", Type: "touch"},
	})
	require.ErrorContains(t, err, `port "a": a broken`)
	require.ErrorContains(t, err, `port "b": b broken`)
}

func TestMessageKinds(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Init", Init{}.Kind())
	require.Equal(t, "ConfigUpdated", ConfigUpdated{}.Kind())
}
