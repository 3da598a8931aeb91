package impulse

import (
	"fmt"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/dsp/resample"
)

// Resample returns buf converted to rate. Buffers already at rate, or with
// an unknown (zero) rate, are returned as is.
func Resample(buf *audiograph.Buffer, rate float64) (*audiograph.Buffer, error) {
	if buf == nil || buf.SampleRate <= 0 || buf.SampleRate == rate {
		return buf, nil
	}

	out := &audiograph.Buffer{SampleRate: rate, Channels: make([][]float64, len(buf.Channels))}

	for ch, samples := range buf.Channels {
		converted, err := resample.Signal(samples, buf.SampleRate, rate)
		if err != nil {
			return nil, fmt.Errorf("impulse: resample %v -> %v Hz: %w", buf.SampleRate, rate, err)
		}

		out.Channels[ch] = converted
	}

	return out, nil
}
