//go:build linux

package gpio

import (
	"fmt"

	"github.com/sweeney/touch-port/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads a line from actual hardware using the Linux GPIO character device.
type RealReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealReader requests the given line offset on chip as an input.
// Failure to open the chip or request the line is returned to the caller.
func NewRealReader(chipName string, offset int) (*RealReader, error) {
	if chipName == "" {
		chipName = DefaultChip
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	// Pull-down keeps an unconnected button reading Low.
	line, err := chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request line %d: %w", offset, err)
	}

	return &RealReader{
		chip: chip,
		line: line,
	}, nil
}

// Read returns the level of the line. Raw 1 is High.
func (r *RealReader) Read() (logic.Level, error) {
	raw, err := r.line.Value()
	if err != nil {
		return logic.Low, fmt.Errorf("read line: %w", err)
	}
	return logic.Level(raw != 0), nil
}

// Close releases the line and the chip.
// The line is reconfigured to input with pull-down first so it is left in the
// same state the Pi boots with.
func (r *RealReader) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
