package capture

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/dsp/delay"
)

// OpenStrings are the standard-tuning guitar strings, E2 to E4, in Hz.
var OpenStrings = []float64{82.41, 110.00, 146.83, 196.00, 246.94, 329.63}

// ErrInvalidPluck is wrapped by Pluck configuration errors.
var ErrInvalidPluck = errors.New("capture: invalid pluck settings")

// Pluck synthesises plucked strings with the Karplus-Strong algorithm: a
// noise burst circulating through a delay line with an averaging, slightly
// lossy feedback filter.
type Pluck struct {
	SampleRate float64
	// Tempo is in plucks per minute; 0 means 120.
	Tempo float64
	// Notes are cycled through in order; empty means OpenStrings.
	Notes []float64
	// Decay is the loop feedback in (0, 1); 0 means 0.996.
	Decay float64
	// Level scales the excitation burst; 0 means 0.5.
	Level float64
	Seed  uint64
}

// Open validates the settings and returns a fresh stream.
func (p Pluck) Open(ctx context.Context) (audiograph.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := p.withDefaults()

	if !(cfg.SampleRate > 0) || !(cfg.Tempo > 0) || !(cfg.Decay > 0 && cfg.Decay < 1) {
		return nil, fmt.Errorf("%w: rate %v, tempo %v, decay %v", ErrInvalidPluck, cfg.SampleRate, cfg.Tempo, cfg.Decay)
	}

	lowest := math.Inf(1)

	for _, f := range cfg.Notes {
		if !(f > 0) || f >= cfg.SampleRate/2 {
			return nil, fmt.Errorf("%w: note %v Hz", ErrInvalidPluck, f)
		}

		lowest = math.Min(lowest, f)
	}

	line, err := delay.New(int(math.Ceil(cfg.SampleRate/lowest)) + 2)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	return &pluckStream{
		cfg:      cfg,
		line:     line,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		interval: max(1, int(math.Round(cfg.SampleRate*60/cfg.Tempo))),
	}, nil
}

func (p Pluck) withDefaults() Pluck {
	if p.Tempo == 0 {
		p.Tempo = 120
	}

	if len(p.Notes) == 0 {
		p.Notes = OpenStrings
	}

	if p.Decay == 0 {
		p.Decay = 0.996
	}

	if p.Level == 0 {
		p.Level = 0.5
	}

	return p
}

type pluckStream struct {
	cfg  Pluck
	line *delay.Line
	rng  *rand.Rand

	interval int
	until    int // samples until the next pluck
	period   int
	note     int
}

func (s *pluckStream) Read(dst []float64) (int, error) {
	for i := range dst {
		if s.until == 0 {
			s.excite()
			s.until = s.interval
		}

		s.until--

		// y[n] = decay * (y[n-P] + y[n-P-1]) / 2
		y := s.cfg.Decay * 0.5 * (s.line.Read(s.period-1) + s.line.Read(s.period))
		s.line.Write(y)
		dst[i] = y
	}

	return len(dst), nil
}

// excite loads one period of noise for the next note.
func (s *pluckStream) excite() {
	f := s.cfg.Notes[s.note%len(s.cfg.Notes)]
	s.note++

	s.period = max(2, int(math.Round(s.cfg.SampleRate/f)))
	s.line.Reset()

	for range s.period + 1 {
		s.line.Write(s.cfg.Level * (2*s.rng.Float64() - 1))
	}
}
