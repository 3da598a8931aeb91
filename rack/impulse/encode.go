package impulse

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

const wavFormatPCM = 1

// EncodeWAV writes buf as integer PCM with the given bit depth (16, 24 or
// 32). Samples outside [-1, 1] are clipped.
func EncodeWAV(w io.WriteSeeker, buf *audiograph.Buffer, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("impulse: unsupported bit depth %d", bitDepth)
	}

	if buf == nil || len(buf.Channels) == 0 {
		return fmt.Errorf("impulse: nothing to encode")
	}

	channels := len(buf.Channels)
	frames := buf.Len()
	peak := float64(int64(1)<<(bitDepth-1)) - 1

	data := make([]int, frames*channels)

	for ch, samples := range buf.Channels {
		for i := range frames {
			var v float64
			if i < len(samples) {
				v = samples[i]
			}

			v = math.Max(-1, math.Min(1, v))
			data[i*channels+ch] = int(math.Round(v * peak))
		}
	}

	enc := wav.NewEncoder(w, int(buf.SampleRate), bitDepth, channels, wavFormatPCM)

	pcm := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  int(buf.SampleRate),
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("impulse: writing wav: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("impulse: closing wav: %w", err)
	}

	return nil
}
