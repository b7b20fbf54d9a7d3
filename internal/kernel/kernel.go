package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/touch-port/internal/config"
	"github.com/sweeney/touch-port/internal/event"
	"github.com/sweeney/touch-port/internal/logger"
)

// inboxSize fits the two lifecycle messages, so starting a port never blocks.
const inboxSize = 2

// Sink receives every record emitted by any component, in emission order per component.
type Sink interface {
	// Publish delivers one record. Errors are logged, never fatal.
	Publish(rec event.Record) error
}

// FailureReporter is implemented by sinks that track ports stopped by an error.
type FailureReporter interface {
	PortFailed(id string, err error)
}

// Kernel starts components and routes their records.
type Kernel struct {
	registry *Registry
	sinks    []Sink
	events   chan event.Record
}

// New returns a kernel that builds components from registry and forwards records to sinks.
func New(registry *Registry, sinks ...Sink) *Kernel {
	return &Kernel{
		registry: registry,
		sinks:    sinks,
		events:   make(chan event.Record, 64),
	}
}

// Run starts one component per port spec, sends it Init followed by
// ConfigUpdated, and routes records until ctx is cancelled.
//
// A component that fails is logged and reported to every sink implementing
// FailureReporter; its siblings keep running. Run returns the joined errors
// once every component has failed, and nil when ctx is cancelled.
func (k *Kernel) Run(ctx context.Context, ports []config.PortSpec) error {
	type started struct {
		spec      config.PortSpec
		component Component
	}

	// Resolve every constructor before starting anything.
	components := make([]started, 0, len(ports))
	for _, spec := range ports {
		newComponent, err := k.registry.Lookup(spec.Type)
		if err != nil {
			return fmt.Errorf("port %q: %w", spec.ID, err)
		}
		components = append(components, started{spec: spec, component: newComponent(spec.ID, k.events)})
	}

	ctx = logger.WithName(ctx, "kernel")
	routeCtx, stopRoute := context.WithCancel(ctx)
	defer stopRoute()

	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures []error
		running  = len(components)
	)

	g.Go(func() error {
		k.route(routeCtx)
		return nil
	})

	for _, c := range components {
		inbox := make(chan Message, inboxSize)
		inbox <- Init{}
		inbox <- ConfigUpdated{Config: c.spec.Config}

		portCtx := logger.WithKV(logger.WithName(ctx, c.spec.Type), "port", c.spec.ID)
		component := c.component
		id := c.spec.ID

		g.Go(func() error {
			err := component.Run(portCtx, inbox)
			if err != nil {
				err = fmt.Errorf("port %q: %w", id, err)
				logger.ErrorKV(portCtx, "port failed", "error", err)
				k.reportFailure(id, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
			}
			running--
			if running == 0 {
				stopRoute()
			}
			return nil
		})
	}

	logger.InfoKV(ctx, "kernel started", "ports", len(components))

	_ = g.Wait()

	if ctx.Err() == nil && len(failures) > 0 && len(failures) == len(components) {
		return errors.Join(failures...)
	}
	return nil
}

func (k *Kernel) reportFailure(id string, err error) {
	for _, s := range k.sinks {
		if r, ok := s.(FailureReporter); ok {
			r.PortFailed(id, err)
		}
	}
}

// route forwards records to every sink until ctx is done, then delivers
// whatever is still buffered.
func (k *Kernel) route(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case rec := <-k.events:
					k.deliver(ctx, rec)
				default:
					return
				}
			}
		case rec := <-k.events:
			k.deliver(ctx, rec)
		}
	}
}

func (k *Kernel) deliver(ctx context.Context, rec event.Record) {
	logger.DebugKV(ctx, "event", "type", rec.Type, "port", rec.SourcePortID, "id", rec.ID)
	for _, s := range k.sinks {
		if err := s.Publish(rec); err != nil {
			// Don't crash on publish failure.
			logger.ErrorKV(ctx, "publish failed", "port", rec.SourcePortID, "id", rec.ID, "error", err)
		}
	}
}
