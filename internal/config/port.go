package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultPollInterval is used when a port does not set interval_millis.
const DefaultPollInterval = 100 * time.Millisecond

// Recognised keys of a port configuration mapping. Each key has a legacy alias.
const (
	KeyLineID      = "line_id"
	KeyLineIDAlias = "gpio_num"
	KeyInterval    = "interval_millis"
	KeyIntervalAlt = "poll_interval"
	KeySimulate    = "simulate"
	KeySimulateAlt = "dummy"
	KeyChip        = "chip"
)

var (
	// ErrNotMapping is returned when the configuration value is not a key/value mapping.
	ErrNotMapping = errors.New("config is not a mapping")
	// ErrMissingLineID is returned when neither line_id nor gpio_num is present.
	ErrMissingLineID = errors.New("line_id is required")
	// ErrInvalidField is returned when a recognised key holds a value of the wrong type or range.
	ErrInvalidField = errors.New("invalid config field")
)

// Port is the validated configuration of a single touch port.
// It is immutable once returned by ParsePort.
type Port struct {
	// LineID is the GPIO line offset on Chip.
	LineID uint16
	// Chip is the GPIO character device name, e.g. "gpiochip0".
	// Empty means the gpio package default.
	Chip string
	// PollInterval is the time between two samples.
	PollInterval time.Duration
	// Simulate selects the simulated input source instead of hardware.
	Simulate bool
}

// ParsePort validates an untyped configuration value and returns the port configuration.
// It has no side effects.
func ParsePort(value any) (Port, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return Port{}, fmt.Errorf("%w: got %T", ErrNotMapping, value)
	}

	cfg := Port{PollInterval: DefaultPollInterval}

	key, raw, ok := lookup(m, KeyLineID, KeyLineIDAlias)
	if !ok {
		return Port{}, ErrMissingLineID
	}
	lineID, ok := toUint(raw, math.MaxUint16)
	if !ok {
		return Port{}, fmt.Errorf("%w: %s must be an unsigned 16-bit integer, got %v (%T)", ErrInvalidField, key, raw, raw)
	}
	cfg.LineID = uint16(lineID)

	if key, raw, ok := lookup(m, KeyInterval, KeyIntervalAlt); ok {
		ms, ok := toUint(raw, math.MaxUint32)
		if !ok || ms == 0 {
			return Port{}, fmt.Errorf("%w: %s must be a positive 32-bit millisecond count, got %v (%T)", ErrInvalidField, key, raw, raw)
		}
		cfg.PollInterval = time.Duration(ms) * time.Millisecond
	}

	if key, raw, ok := lookup(m, KeySimulate, KeySimulateAlt); ok {
		b, ok := raw.(bool)
		if !ok {
			return Port{}, fmt.Errorf("%w: %s must be a boolean, got %v (%T)", ErrInvalidField, key, raw, raw)
		}
		cfg.Simulate = b
	}

	if raw, ok := m[KeyChip]; ok {
		s, ok := raw.(string)
		if !ok {
			return Port{}, fmt.Errorf("%w: %s must be a string, got %v (%T)", ErrInvalidField, KeyChip, raw, raw)
		}
		cfg.Chip = s
	}

	return cfg, nil
}

// lookup returns the value of the first key present in m.
func lookup(m map[string]any, keys ...string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return k, v, true
		}
	}
	return "", nil, false
}

// toUint converts any integer value in [0, limit] to uint64.
// Floats are accepted when integral, since JSON decodes every number as float64.
func toUint(v any, limit uint64) (uint64, bool) {
	var n uint64
	switch x := v.(type) {
	case int:
		if x < 0 {
			return 0, false
		}
		n = uint64(x)
	case int8:
		if x < 0 {
			return 0, false
		}
		n = uint64(x)
	case int16:
		if x < 0 {
			return 0, false
		}
		n = uint64(x)
	case int32:
		if x < 0 {
			return 0, false
		}
		n = uint64(x)
	case int64:
		if x < 0 {
			return 0, false
		}
		n = uint64(x)
	case uint:
		n = uint64(x)
	case uint8:
		n = uint64(x)
	case uint16:
		n = uint64(x)
	case uint32:
		n = uint64(x)
	case uint64:
		n = x
	case float64:
		if x < 0 || x != math.Trunc(x) || x > float64(limit) {
			return 0, false
		}
		n = uint64(x)
	default:
		return 0, false
	}
	if n > limit {
		return 0, false
	}
	return n, true
}
