// Package delay holds the fixed latency-compensation delay used to line
// up parallel paths with the oversampled tube stages.
package delay

import (
	"errors"
	"fmt"
)

// ErrNegative reports a negative delay length.
var ErrNegative = errors.New("delay: negative length")

// Line delays a signal by a fixed whole number of samples.
type Line struct {
	ring []float64
	head int
}

// New returns a line delaying by samples. A zero-length line copies its
// input.
func New(samples int) (*Line, error) {
	if samples < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegative, samples)
	}

	return &Line{ring: make([]float64, samples)}, nil
}

// Len returns the delay in samples.
func (d *Line) Len() int {
	return len(d.ring)
}

// ProcessBlock writes src delayed by Len() samples to dst. dst and src may
// be the same slice.
func (d *Line) ProcessBlock(dst, src []float64) {
	n := len(d.ring)
	if n == 0 {
		copy(dst, src)
		return
	}

	ring, head := d.ring, d.head

	for i, x := range src {
		dst[i], ring[head] = ring[head], x

		if head++; head == n {
			head = 0
		}
	}

	d.head = head
}

// Reset fills the line with silence. The engine calls it when a new
// source is attached.
func (d *Line) Reset() {
	clear(d.ring)
	d.head = 0
}
