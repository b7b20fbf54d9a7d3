package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweeney/touch-port/internal/config"
	"github.com/sweeney/touch-port/internal/kernel"
	"github.com/sweeney/touch-port/internal/logger"
	"github.com/sweeney/touch-port/internal/mqtt"
	"github.com/sweeney/touch-port/internal/port"
	"github.com/sweeney/touch-port/internal/status"
	"github.com/sweeney/touch-port/internal/web"
)

// connectionPoll is how often the MQTT connection state and backlog are copied into the tracker.
const connectionPoll = 5 * time.Second

// run wires the daemon together and blocks until ctx is cancelled or a port
// fails. publisher may be nil when publishing is disabled.
func run(ctx context.Context, settings *config.Settings, publisher mqtt.Publisher, opts ...port.Option) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tracker := status.NewTracker(time.Now(), status.Config{
		Broker:   settings.Broker,
		Topic:    settings.Topic,
		HTTPAddr: settings.HTTPAddr,
	}, status.NewMetrics(promRegistry))
	for _, spec := range settings.Ports {
		tracker.AddPort(spec.ID, spec.Type)
	}

	sinks := []kernel.Sink{tracker}
	if publisher != nil {
		defer publisher.Close()
		sinks = append(sinks, publisher)

		if cs, ok := publisher.(mqtt.ConnectionStatus); ok {
			go watchConnection(ctx, cs, tracker, connectionPoll)
		}
	}

	if !settings.HTTPDisabled() {
		srv := web.New(settings.HTTPAddr, tracker, promRegistry)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorKV(ctx, "http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.InfoKV(ctx, "http status server listening", "addr", settings.HTTPAddr)
	}

	registry := kernel.NewRegistry()
	opts = append([]port.Option{port.WithObserver(tracker)}, opts...)
	if err := registry.Register(port.Name, port.Constructor(opts...)); err != nil {
		return err
	}

	logger.InfoKV(ctx, "started", "broker", settings.Broker, "topic", settings.Topic, "ports", len(settings.Ports))

	err := kernel.New(registry, sinks...).Run(ctx, settings.Ports)
	if err != nil {
		logger.ErrorKV(ctx, "stopped", "error", err)
		return err
	}

	logger.Info(ctx, "shutdown complete")
	return nil
}

// watchConnection copies the connection state into tracker every period until ctx is done.
func watchConnection(ctx context.Context, cs mqtt.ConnectionStatus, tracker *status.Tracker, period time.Duration) {
	update := func() {
		tracker.SetMQTTConnected(cs.IsConnected())
		tracker.SetMQTTBacklog(cs.Pending())
	}
	update()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
