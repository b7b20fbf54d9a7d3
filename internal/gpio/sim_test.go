package gpio

import (
	"testing"
	"time"

	"github.com/sweeney/touch-port/internal/logic"
)

func TestClockToggle(t *testing.T) {
	base := time.Unix(100, 0)
	now := base
	level := ClockToggle(func() time.Time { return now }, time.Second)

	tests := []struct {
		offset time.Duration
		want   logic.Level
	}{
		{0, logic.High},
		{500 * time.Millisecond, logic.High},
		{time.Second, logic.Low},
		{1999 * time.Millisecond, logic.Low},
		{2 * time.Second, logic.High},
	}

	for _, tt := range tests {
		now = base.Add(tt.offset)
		if got := level(); got != tt.want {
			t.Errorf("offset %v: got %s, want %s", tt.offset, got, tt.want)
		}
	}
}

func TestSimReaderScripted(t *testing.T) {
	levels := []logic.Level{logic.Low, logic.High}
	i := 0
	s := NewSimReader(func() logic.Level {
		l := levels[i%len(levels)]
		i++
		return l
	})

	for n, want := range []logic.Level{logic.Low, logic.High, logic.Low} {
		got, err := s.Read()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", n, err)
		}
		if got != want {
			t.Errorf("read %d: got %s, want %s", n, got, want)
		}
	}

	if err := s.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestSimReaderDefaultNeverFails(t *testing.T) {
	s := NewSimReader(nil)
	for i := 0; i < 5; i++ {
		if _, err := s.Read(); err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
	}
}
