package impulse

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

// Decoding errors.
var (
	ErrUnknownFormat = errors.New("impulse: unknown audio format")
	ErrInvalidWAV    = errors.New("impulse: invalid wav data")
	ErrNotFound      = errors.New("impulse: entry not found in library")
)

// Decode turns WAV or IRLB bytes into a buffer. For IRLB libraries the
// first entry is returned.
func Decode(data []byte) (*audiograph.Buffer, error) {
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return DecodeWAV(data)
	case bytes.HasPrefix(data, irlbMagic[:]):
		irs, err := DecodeLibrary(data)
		if err != nil {
			return nil, err
		}

		if len(irs) == 0 {
			return nil, fmt.Errorf("%w: empty library", ErrNotFound)
		}

		return irs[0].Buffer, nil
	default:
		return nil, ErrUnknownFormat
	}
}

// DecodeNamed returns the IRLB library entry called name.
func DecodeNamed(data []byte, name string) (*audiograph.Buffer, error) {
	irs, err := DecodeLibrary(data)
	if err != nil {
		return nil, err
	}

	for _, ir := range irs {
		if ir.Name == name {
			return ir.Buffer, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// DecodeWAV decodes integer PCM RIFF/WAVE data into [-1, 1] samples.
func DecodeWAV(data []byte) (*audiograph.Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)

	if channels <= 0 || bitDepth <= 0 || bitDepth > 32 || dec.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %d channels, %d bit, %d Hz", ErrInvalidWAV, channels, bitDepth, dec.SampleRate)
	}

	frames := len(pcm.Data) / channels
	if frames == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidWAV)
	}

	scale := 1 / float64(int64(1)<<(bitDepth-1))

	buf := &audiograph.Buffer{
		SampleRate: float64(dec.SampleRate),
		Channels:   make([][]float64, channels),
	}

	for ch := range channels {
		samples := make([]float64, frames)
		for i := range samples {
			samples[i] = float64(pcm.Data[i*channels+ch]) * scale
		}

		buf.Channels[ch] = samples
	}

	return buf, nil
}
