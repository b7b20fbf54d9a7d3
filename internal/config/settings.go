package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultSettingsFilename is the settings file read when no path is given.
	DefaultSettingsFilename = "touch-port.yaml"
	// DefaultBroker is the MQTT broker used when none is configured.
	DefaultBroker = "tcp://localhost:1883"
	// DefaultClientID is the MQTT client id.
	DefaultClientID = "touch-port"
	// DefaultTopic receives every emitted event.
	DefaultTopic = "devices/button/events"
	// DefaultHTTPAddr serves the status page.
	DefaultHTTPAddr = ":8080"
	// DefaultPortType is the registered component used when a port omits its type.
	DefaultPortType = "touch"
)

// Environment variables that override the settings file.
const (
	EnvBroker   = "TOUCH_PORT_BROKER"
	EnvHTTPAddr = "TOUCH_PORT_HTTP_ADDR"
	EnvLogLevel = "TOUCH_PORT_LOG_LEVEL"
)

var (
	errNoPorts         = errors.New("at least one port must be configured")
	errPortIDRequired  = errors.New("port id must be set")
	errDuplicatePortID = errors.New("duplicate port id")
)

// Settings holds the daemon configuration.
type Settings struct {
	// Broker is the MQTT broker URL; "off" disables publishing.
	Broker string `yaml:"broker"`
	// ClientID is the MQTT client id.
	ClientID string `yaml:"client_id"`
	// Topic is the MQTT topic events are published to.
	Topic string `yaml:"topic"`
	// HTTPAddr is the status server address; "off" disables it.
	HTTPAddr string `yaml:"http_addr"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Ports lists the components to start.
	Ports []PortSpec `yaml:"ports"`
}

// PortSpec names one component instance and carries its untyped configuration.
type PortSpec struct {
	// ID identifies the port instance; it becomes source_port_id on every event.
	ID string `yaml:"id"`
	// Type is the registered component name.
	Type string `yaml:"type"`
	// Config is handed to the component unparsed.
	Config any `yaml:"config"`
}

// Load reads settings from path, applies .env and environment overrides, and validates them.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultSettingsFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(contents, &s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()
	s.applyEnv()

	if err := Validate(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

func (s *Settings) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBroker)); v != "" {
		s.Broker = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHTTPAddr)); v != "" {
		s.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		s.LogLevel = v
	}
}

// Validate fills defaults and checks the settings for required fields.
// Port configuration blocks are not inspected; each port validates its own.
func Validate(s *Settings) error {
	if s.Broker == "" {
		s.Broker = DefaultBroker
	}
	if s.ClientID == "" {
		s.ClientID = DefaultClientID
	}
	if s.Topic == "" {
		s.Topic = DefaultTopic
	}
	if s.HTTPAddr == "" {
		s.HTTPAddr = DefaultHTTPAddr
	}

	if !s.PublishingDisabled() {
		if _, err := url.Parse(s.Broker); err != nil {
			return fmt.Errorf("invalid broker: %w", err)
		}
	}

	if len(s.Ports) == 0 {
		return errNoPorts
	}

	seen := make(map[string]bool, len(s.Ports))
	for i := range s.Ports {
		p := &s.Ports[i]
		if p.ID == "" {
			return fmt.Errorf("port %d: %w", i, errPortIDRequired)
		}
		if seen[p.ID] {
			return fmt.Errorf("port %q: %w", p.ID, errDuplicatePortID)
		}
		seen[p.ID] = true
		if p.Type == "" {
			p.Type = DefaultPortType
		}
	}

	return nil
}

// HTTPDisabled reports whether the status server is switched off.
func (s *Settings) HTTPDisabled() bool {
	return s.HTTPAddr == "off"
}

// PublishingDisabled reports whether MQTT publishing is switched off.
func (s *Settings) PublishingDisabled() bool {
	return s.Broker == "off"
}
