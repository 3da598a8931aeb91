package main

import (
	"encoding/binary"
	"math"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

// pcmReader renders the audio graph as mono little-endian float32 PCM for
// the sound card.
type pcmReader struct {
	audio *audiograph.Context
	buf   []float64
}

func (p *pcmReader) Read(b []byte) (int, error) {
	frames := len(b) / 4
	if frames == 0 {
		return 0, nil
	}

	if cap(p.buf) < frames {
		p.buf = make([]float64, frames)
	}

	samples := p.buf[:frames]
	p.audio.Render(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(float32(s)))
	}

	return frames * 4, nil
}
