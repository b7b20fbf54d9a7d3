// Command touch-port polls GPIO button lines and publishes press events to MQTT.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sweeney/touch-port/internal/config"
	"github.com/sweeney/touch-port/internal/logger"
	"github.com/sweeney/touch-port/internal/mqtt"
	"github.com/sweeney/touch-port/internal/port"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		printState bool
	)

	cmd := &cobra.Command{
		Use:   "touch-port",
		Short: "Poll GPIO button lines and publish press events.",
		Long: `Starts one touch port per entry in the settings file. Each port polls its
GPIO line (or a simulated one) and emits a press-started event on every rising
edge and a press-ended event on every falling edge. Events are published to the
configured MQTT topic as CloudEvents JSON.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				settings.LogLevel = logLevel
			}
			if err := applyLogLevel(settings.LogLevel); err != nil {
				return err
			}

			if printState {
				return printLines(cmd.OutOrStdout(), settings)
			}

			var publisher mqtt.Publisher
			if !settings.PublishingDisabled() {
				publisher = mqtt.NewRealPublisher(ctx, settings.Broker, settings.ClientID, settings.Topic)
			}

			return run(ctx, settings, publisher)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultSettingsFilename, "path to settings file")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&printState, "print-state", false, "print the current level of every configured line and exit")

	return cmd
}

func applyLogLevel(s string) error {
	lvl, ok := logger.ParseLogLevel(s)
	if !ok {
		return fmt.Errorf("unknown log level %q", s)
	}
	logger.SetLevel(lvl)
	return nil
}

// printLines opens every configured line once and prints its level.
func printLines(w io.Writer, settings *config.Settings) error {
	for _, spec := range settings.Ports {
		cfg, err := config.ParsePort(spec.Config)
		if err != nil {
			return fmt.Errorf("port %q: %w", spec.ID, err)
		}
		level, err := readOnce(cfg)
		if err != nil {
			return fmt.Errorf("port %q: %w", spec.ID, err)
		}
		fmt.Fprintf(w, "%s: line %d %s\n", spec.ID, cfg.LineID, level)
	}
	return nil
}

func readOnce(cfg config.Port) (fmt.Stringer, error) {
	reader, err := port.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open line %d: %w", cfg.LineID, err)
	}
	defer reader.Close()

	level, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read line %d: %w", cfg.LineID, err)
	}
	return level, nil
}
