// Package gpio provides binary input line reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The simulated and fake implementations allow running and testing without hardware.
package gpio

import "github.com/sweeney/touch-port/internal/logic"

// Reader reads the current level of a single input line.
type Reader interface {
	// Read returns the current level of the line.
	// Reads block only for the duration of the underlying hardware access.
	Read() (logic.Level, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"
