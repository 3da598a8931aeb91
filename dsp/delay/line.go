// Package delay provides the circular delay line behind the audio graph's
// delay node.
package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rack/dsp/interp"
)

// Line is a circular delay line.
//
// Delays are counted from the most recently written sample: Read(0) returns
// the last Write, Read(1) the one before it.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}

	return &Line{buffer: make([]float64, size)}, nil
}

// ForDuration returns a line able to serve fractional reads of up to
// maxSeconds at sampleRate.
func ForDuration(maxSeconds, sampleRate float64) (*Line, error) {
	if maxSeconds <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("delay duration and sample rate must be > 0: %v s @ %v Hz", maxSeconds, sampleRate)
	}

	// Hermite reads need two samples beyond the integer part.
	return New(int(math.Ceil(maxSeconds*sampleRate)) + 3)
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// MaxDelay returns the longest fractional delay ReadFractional honours.
func (d *Line) MaxDelay() float64 {
	return float64(len(d.buffer) - 3)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	if delay < 0 {
		delay = 0
	}

	if delay >= size {
		delay = size - 1
	}

	readPos := d.writePos - 1 - delay
	if readPos < 0 {
		readPos += size
	}

	return d.buffer[readPos]
}

// ReadFractional reads with cubic Hermite interpolation.
// The delay is clamped to [0, MaxDelay()].
func (d *Line) ReadFractional(delay float64) float64 {
	if delay < 0 || math.IsNaN(delay) {
		delay = 0
	}

	if maxDelay := d.MaxDelay(); delay > maxDelay {
		delay = maxDelay
	}

	p := int(math.Floor(delay))
	t := delay - float64(p)

	if t == 0 {
		return d.Read(p)
	}

	// The newer neighbour of sample p is p-1; at p == 0 there is none yet.
	xm1 := d.Read(max(0, p-1))
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	x2 := d.Read(p + 2)

	return interp.Hermite4(t, xm1, x0, x1, x2)
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}

	d.writePos = 0
}
