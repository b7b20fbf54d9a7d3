package gpio

import (
	"time"

	"github.com/sweeney/touch-port/internal/logic"
)

// SimReader is a hardware-free input line. By default it is High during even
// wall-clock seconds and Low during odd ones, which produces one press per
// two seconds. It never fails to open or read.
type SimReader struct {
	level func() logic.Level
}

// NewSimReader returns a SimReader driven by level.
// A nil level selects the wall-clock toggle.
func NewSimReader(level func() logic.Level) *SimReader {
	if level == nil {
		level = ClockToggle(time.Now, time.Second)
	}
	return &SimReader{level: level}
}

// ClockToggle returns a level function that is High during even multiples of
// period since the Unix epoch and Low otherwise.
func ClockToggle(now func() time.Time, period time.Duration) func() logic.Level {
	if period <= 0 {
		period = time.Second
	}
	return func() logic.Level {
		n := now().UnixNano() / int64(period)
		return logic.Level(n%2 == 0)
	}
}

// Read returns the simulated level.
func (s *SimReader) Read() (logic.Level, error) {
	return s.level(), nil
}

// Close is a no-op.
func (s *SimReader) Close() error {
	return nil
}
