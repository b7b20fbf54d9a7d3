package logic

// Detector compares each new sample with the previous one and reports edges.
// The previous sample starts Low and there is no baseline phase: a line that
// is already High on the first poll reports Started straight away.
type Detector struct {
	last    Level
	samples int
	counts  Counts
}

// NewDetector creates a detector whose previous sample is Low.
func NewDetector() *Detector {
	return &Detector{last: Low}
}

// Process records a new sample and returns the transition it completes, if any.
//
//	prev  new   emitted
//	Low   Low   -
//	Low   High  Started
//	High  High  -
//	High  Low   Ended
func (d *Detector) Process(sample Level) (Transition, bool) {
	prev := d.last
	d.last = sample
	d.samples++

	switch {
	case prev == Low && sample == High:
		d.counts.Started++
		return TransitionStarted, true
	case prev == High && sample == Low:
		d.counts.Ended++
		return TransitionEnded, true
	}
	return "", false
}

// Last returns the most recently processed sample (Low before the first one).
func (d *Detector) Last() Level {
	return d.last
}

// Samples returns how many samples have been processed.
func (d *Detector) Samples() int {
	return d.samples
}

// CountsSnapshot returns a copy of the transition counts.
func (d *Detector) CountsSnapshot() Counts {
	return d.counts
}
