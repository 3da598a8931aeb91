package resample

import (
	"errors"
	"math"
)

var (
	// ErrInvalidRatio is returned for non-positive up/down factors.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate is returned for non-positive or NaN sample rates.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
)

// Quality selects the anti-aliasing filter.
type Quality int

const (
	// QualityFast trades stopband attenuation for speed.
	QualityFast Quality = iota
	// QualityBalanced is the default.
	QualityBalanced
	// QualityBest uses the longest filter.
	QualityBest
)

type filterSpec struct {
	taps   int // per polyphase branch
	cutoff float64
	beta   float64
}

func (q Quality) spec() filterSpec {
	switch q {
	case QualityFast:
		return filterSpec{taps: 16, cutoff: 0.88, beta: 5}
	case QualityBest:
		return filterSpec{taps: 64, cutoff: 0.96, beta: 9}
	default:
		return filterSpec{taps: 32, cutoff: 0.92, beta: 7.5}
	}
}

type config struct {
	quality Quality
	taps    int
	maxDen  int
}

// Option configures a Converter.
type Option func(*config)

// WithQuality selects a filter preset.
func WithQuality(q Quality) Option {
	return func(c *config) { c.quality = q }
}

// WithTaps overrides the taps per polyphase branch.
func WithTaps(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.taps = n
		}
	}
}

// WithMaxDenominator bounds the fraction used to approximate a rate ratio.
func WithMaxDenominator(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDen = n
		}
	}
}

func newConfig(opts []Option) config {
	c := config{quality: QualityBalanced, maxDen: 4096}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	return c
}

// Converter is a streaming rational-ratio sample-rate converter.
type Converter struct {
	up, down int

	// branches[p][k] is prototype tap p + k*up.
	branches [][]float64
	order    int

	phase int // sub-sample phase of the next output, in [0, up)
	pos   int // absolute input index of the next output
	seen  int // input samples consumed so far
	hist  []float64
}

// New returns a converter from inRate to outRate.
func New(inRate, outRate float64, opts ...Option) (*Converter, error) {
	if !(inRate > 0) || !(outRate > 0) || math.IsInf(inRate, 0) || math.IsInf(outRate, 0) {
		return nil, ErrInvalidRate
	}

	cfg := newConfig(opts)
	up, down := approximateRatio(outRate/inRate, cfg.maxDen)

	return newConverter(up, down, cfg)
}

// NewRational returns a converter producing up samples per down inputs.
func NewRational(up, down int, opts ...Option) (*Converter, error) {
	return newConverter(up, down, newConfig(opts))
}

func newConverter(up, down int, cfg config) (*Converter, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRatio
	}

	g := gcd(up, down)
	up, down = up/g, down/g

	spec := cfg.quality.spec()
	if cfg.taps > 0 {
		spec.taps = cfg.taps
	}

	branches, err := designBranches(up, down, spec)
	if err != nil {
		return nil, err
	}

	order := 0
	for _, b := range branches {
		order = max(order, len(b))
	}

	return &Converter{up: up, down: down, branches: branches, order: order}, nil
}

// Ratio returns the reduced conversion factors.
func (c *Converter) Ratio() (up, down int) {
	return c.up, c.down
}

// Reset forgets all history.
func (c *Converter) Reset() {
	c.phase, c.pos, c.seen = 0, 0, 0
	c.hist = c.hist[:0]
}

// OutputLen returns how many samples the next Process call of n inputs
// produces.
func (c *Converter) OutputLen(n int) int {
	if n <= 0 {
		return 0
	}

	last := c.seen + n - 1
	count := 0

	for pos, phase := c.pos, c.phase; pos <= last; count++ {
		phase += c.down
		pos += phase / c.up
		phase %= c.up
	}

	return count
}

// Process converts one block. Output for the same total input is
// independent of how it is split into blocks.
func (c *Converter) Process(in []float64) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, 0, c.OutputLen(len(in)))

	// window holds history followed by the new block; window[0] is
	// absolute input index first.
	window := append(c.hist, in...)
	first := c.seen - len(c.hist)
	last := c.seen + len(in) - 1

	for c.pos <= last {
		var y float64

		for k, h := range c.branches[c.phase] {
			idx := c.pos - k
			if idx < first {
				break
			}

			y += h * window[idx-first]
		}

		out = append(out, y)

		c.phase += c.down
		c.pos += c.phase / c.up
		c.phase %= c.up
	}

	c.seen += len(in)

	keep := min(c.order, len(window))
	c.hist = append(c.hist[:0:0], window[len(window)-keep:]...)

	return out
}

// Signal converts a whole signal in one call. Equal rates return a copy.
func Signal(in []float64, inRate, outRate float64, opts ...Option) ([]float64, error) {
	if inRate == outRate && inRate > 0 {
		return append([]float64(nil), in...), nil
	}

	c, err := New(inRate, outRate, opts...)
	if err != nil {
		return nil, err
	}

	return c.Process(in), nil
}
