// Package logic contains the pure edge-detection state machine for a binary input line.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
package logic

// Level is a single binary sample of an input line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// String returns "HIGH" or "LOW".
func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Transition is a detected edge on the input line.
type Transition string

const (
	// TransitionStarted is a Low -> High edge (press started).
	TransitionStarted Transition = "STARTED"
	// TransitionEnded is a High -> Low edge (press ended).
	TransitionEnded Transition = "ENDED"
)

// Counts tracks the number of each transition since the detector was created.
type Counts struct {
	Started int
	Ended   int
}
