// Package port implements the touch port: a component that waits for its
// configuration, then polls one binary input line and emits a record for
// every press start and press end.
package port

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/touch-port/internal/config"
	"github.com/sweeney/touch-port/internal/event"
	"github.com/sweeney/touch-port/internal/gpio"
	"github.com/sweeney/touch-port/internal/kernel"
	"github.com/sweeney/touch-port/internal/logger"
)

// Name is the component name the touch port registers under.
const Name = "touch"

// Opener opens the input line described by cfg.
type Opener func(cfg config.Port) (gpio.Reader, error)

// Observer is told when a port accepts its configuration and when its
// listener stops on an error.
type Observer interface {
	PortConfigured(id string, cfg config.Port)
	PortFailed(id string, err error)
}

// Option customises an Actor.
type Option func(*Actor)

// WithHardware replaces the opener used when simulate is false.
func WithHardware(o Opener) Option {
	return func(a *Actor) { a.openHardware = o }
}

// WithSimulated replaces the opener used when simulate is true.
func WithSimulated(o Opener) Option {
	return func(a *Actor) { a.openSimulated = o }
}

// WithObserver registers an observer for configuration changes.
func WithObserver(o Observer) Option {
	return func(a *Actor) { a.observer = o }
}

// Actor is the touch port message loop. It starts at most one listener per
// lifetime, on the first accepted ConfigUpdated.
type Actor struct {
	id            string
	out           chan<- event.Record
	factory       *event.Factory
	openHardware  Opener
	openSimulated Opener
	observer      Observer

	mu  sync.Mutex
	cfg *config.Port
}

// New returns an idle touch port that sends its records to out.
func New(id string, out chan<- event.Record, opts ...Option) *Actor {
	a := &Actor{
		id:            id,
		out:           out,
		factory:       event.NewFactory(id),
		openHardware:  openHardware,
		openSimulated: openSimulated,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Constructor returns a kernel.Constructor building touch ports with opts.
func Constructor(opts ...Option) kernel.Constructor {
	return func(id string, out chan<- event.Record) kernel.Component {
		return New(id, out, opts...)
	}
}

// Open opens the input source cfg selects, hardware or simulated.
func Open(cfg config.Port) (gpio.Reader, error) {
	if cfg.Simulate {
		return openSimulated(cfg)
	}
	return openHardware(cfg)
}

func openHardware(cfg config.Port) (gpio.Reader, error) {
	r, err := gpio.NewRealReader(cfg.Chip, int(cfg.LineID))
	if err != nil {
		return nil, err
	}
	return r, nil
}

func openSimulated(config.Port) (gpio.Reader, error) {
	return gpio.NewSimReader(nil), nil
}

// ID returns the port id.
func (a *Actor) ID() string {
	return a.id
}

// Config returns the accepted configuration, if any.
func (a *Actor) Config() (config.Port, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cfg == nil {
		return config.Port{}, false
	}
	return *a.cfg, true
}

// Run consumes inbox until ctx is cancelled. It returns an error when the
// configuration is invalid or the input line cannot be opened.
// A read failure ends the listener only: the port stays configured and keeps
// rejecting further ConfigUpdated messages. A closed inbox stops message
// handling but not a running listener.
func (a *Actor) Run(ctx context.Context, inbox <-chan kernel.Message) error {
	logger.InfoKV(ctx, "start touch port", "id", a.id)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.receive(gctx, g, inbox)
	})

	return g.Wait()
}

func (a *Actor) receive(ctx context.Context, g *errgroup.Group, inbox <-chan kernel.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbox:
			if !ok {
				logger.DebugKV(ctx, "inbox closed", "id", a.id)
				return nil
			}
			if err := a.handle(ctx, g, msg); err != nil {
				return err
			}
		}
	}
}

func (a *Actor) handle(ctx context.Context, g *errgroup.Group, msg kernel.Message) error {
	switch m := msg.(type) {
	case kernel.Init:
		logger.InfoKV(ctx, "port initiated", "id", a.id)

	case kernel.ConfigUpdated:
		logger.InfoKV(ctx, "received ConfigUpdated", "id", a.id)

		if _, ok := a.Config(); ok {
			logger.ErrorKV(ctx, "config for touch port can't be updated dynamically", "id", a.id)
			return nil
		}

		cfg, err := config.ParsePort(m.Config)
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		open := a.openHardware
		if cfg.Simulate {
			open = a.openSimulated
		}
		reader, err := open(cfg)
		if err != nil {
			return fmt.Errorf("open line %d: %w", cfg.LineID, err)
		}

		a.mu.Lock()
		a.cfg = &cfg
		a.mu.Unlock()

		if a.observer != nil {
			a.observer.PortConfigured(a.id, cfg)
		}

		logger.InfoKV(ctx, "listening",
			"line", cfg.LineID, "chip", cfg.Chip, "interval", cfg.PollInterval, "simulate", cfg.Simulate)

		g.Go(func() error {
			if err := a.listen(ctx, cfg, reader); err != nil {
				logger.ErrorKV(ctx, "listener stopped", "id", a.id, "line", cfg.LineID, "error", err)
				if a.observer != nil {
					a.observer.PortFailed(a.id, err)
				}
			}
			return nil
		})

	default:
		logger.WarnKV(ctx, "event not implemented", "id", a.id, "kind", msg.Kind())
	}

	return nil
}
