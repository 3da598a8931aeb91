package rack

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

// Distortion curve parameters.
const (
	CurveSamples = 2048
	MinAmount    = 0.01
	MaxAmount    = 0.985

	levelScale = 0.5
)

// Distortion is a level stage into a soft-knee waveshaper.
type Distortion struct {
	unitBase

	level  *audiograph.GainNode
	shaper *audiograph.WaveShaperNode
	amount float64
	curve  []float64
}

// NewDistortion builds a Distortion unit.
func NewDistortion(r *Rack) (*Distortion, error) {
	u := &Distortion{
		level:  r.audio.NewGain(),
		shaper: r.audio.NewWaveShaper(),
		curve:  make([]float64, CurveSamples),
	}
	u.in, u.out = u.level, u.shaper
	u.own(u.level, u.shaper)
	u.status = func() string { return fmt.Sprintf("amount %.3f", u.amount) }

	err := u.level.Connect(u.shaper)
	if err == nil {
		err = u.init(r, KindDistortion, 1, []knobDecl{
			{name: "distortion", initial: 0.5},
			{name: "level", initial: 0.5},
		}, map[string]func(float64){
			"distortion": u.setAmount,
			"level":      func(v float64) { u.level.Gain.SetValue(v * levelScale) },
		})
	}

	if err != nil {
		r.audio.Release(u.nodes...)
		return nil, fmt.Errorf("rack: distortion: %w", err)
	}

	return u, nil
}

// Amount returns the clamped distortion amount.
func (u *Distortion) Amount() float64 { return u.amount }

// Level returns the applied input gain.
func (u *Distortion) Level() float64 { return u.level.Gain.Value() }

// Curve returns a copy of the current transfer curve.
func (u *Distortion) Curve() []float64 {
	return append([]float64(nil), u.curve...)
}

func (u *Distortion) setAmount(v float64) {
	u.amount = math.Max(MinAmount, math.Min(MaxAmount, v))
	ComputeCurve(u.curve, u.amount)
	u.shaper.SetCurve(u.curve)
}

// ComputeCurve fills curve with y = (1+k)x / (1+k|x|), k = 2a/(1-a),
// sampled at x = i*2/len(curve) - 1. a must be below 1.
func ComputeCurve(curve []float64, a float64) {
	n := float64(len(curve))
	k := 2 * a / (1 - a)

	for i := range curve {
		x := float64(i)*2/n - 1
		curve[i] = (1 + k) * x / (1 + k*math.Abs(x))
	}
}
