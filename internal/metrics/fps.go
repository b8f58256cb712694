// Frame rate measurement
package metrics

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultFPSWindow is the number of frame intervals averaged
const DefaultFPSWindow = 30

// FPSCounter reports the frame rate as the inverse of the mean interval over
// a rolling window
type FPSCounter struct {
	intervals []float64
	next      int
	filled    bool
	last      time.Time
	now       func() time.Time
}

// NewFPSCounter creates a counter over the last window intervals
func NewFPSCounter(window int) *FPSCounter {
	if window < 1 {
		window = DefaultFPSWindow
	}
	return &FPSCounter{
		intervals: make([]float64, window),
		now:       time.Now,
	}
}

// Tick records a frame
func (f *FPSCounter) Tick() {
	t := f.now()
	if !f.last.IsZero() {
		f.intervals[f.next] = t.Sub(f.last).Seconds()
		f.next++
		if f.next == len(f.intervals) {
			f.next = 0
			f.filled = true
		}
	}
	f.last = t
}

// FPS returns the current rate, 0 before two ticks
func (f *FPSCounter) FPS() float64 {
	n := f.next
	if f.filled {
		n = len(f.intervals)
	}
	if n == 0 {
		return 0
	}
	mean := stat.Mean(f.intervals[:n], nil)
	if mean <= 0 {
		return 0
	}
	return 1 / mean
}
