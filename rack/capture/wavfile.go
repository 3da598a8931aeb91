package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/rack/impulse"
)

// ErrEmptyFile is returned when a WAV file holds no samples.
var ErrEmptyFile = errors.New("capture: empty audio file")

// WAVFile loops the first channel of a WAV file, resampled to SampleRate.
type WAVFile struct {
	Path string
	// FS is read instead of the OS file system when set.
	FS fs.FS
	// SampleRate is the rate the stream is rendered at; 0 keeps the file's.
	SampleRate float64
	// Once stops the stream at the end of the file instead of looping.
	Once bool
}

// Open reads and decodes the whole file.
func (w WAVFile) Open(ctx context.Context) (audiograph.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)

	if w.FS != nil {
		data, err = fs.ReadFile(w.FS, w.Path)
	} else {
		data, err = os.ReadFile(w.Path)
	}

	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	buf, err := impulse.DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("capture: %s: %w", w.Path, err)
	}

	if w.SampleRate > 0 {
		buf, err = impulse.Resample(buf, w.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("capture: %s: %w", w.Path, err)
		}
	}

	if len(buf.Channels) == 0 || len(buf.Channels[0]) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, w.Path)
	}

	return &loopStream{samples: buf.Channels[0], once: w.Once}, nil
}

type loopStream struct {
	samples []float64
	pos     int
	once    bool
}

func (s *loopStream) Read(dst []float64) (int, error) {
	n := 0

	for n < len(dst) {
		if s.pos == len(s.samples) {
			if s.once {
				return n, io.EOF
			}

			s.pos = 0
		}

		c := copy(dst[n:], s.samples[s.pos:])
		n += c
		s.pos += c
	}

	return n, nil
}
