package rack

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

// Delay tap pool parameters.
const (
	MaxDelays       = 10
	MaxDelaySeconds = 5.0
)

type tap struct {
	line *audiograph.DelayNode
	gain *audiograph.GainNode
}

// Delay is a multi-tap echo. Every tap of a fixed pool reads the input;
// only the first ActiveTaps taps feed the output. The dry signal always
// passes from input to output.
type Delay struct {
	unitBase

	inGain, outGain *audiograph.GainNode
	taps            [MaxDelays]tap

	active  int
	spacing float64
}

// NewDelay builds a Delay unit.
func NewDelay(r *Rack) (*Delay, error) {
	u := &Delay{inGain: r.audio.NewGain(), outGain: r.audio.NewGain()}
	u.in, u.out = u.inGain, u.outGain
	u.own(u.inGain, u.outGain)
	u.status = func() string { return fmt.Sprintf("%d taps @ %.2fs", u.active, u.spacing) }

	err := u.build(r)
	if err == nil {
		err = u.init(r, KindDelay, 1, []knobDecl{
			{name: "taps", initial: 0.3},
			{name: "time", initial: 0.1},
		}, map[string]func(float64){
			"taps": func(v float64) {
				u.active = int(math.Floor(v * MaxDelays))
				u.deriveTaps()
			},
			"time": func(v float64) {
				u.spacing = v * MaxDelaySeconds
				u.deriveTaps()
			},
		})
	}

	if err != nil {
		r.audio.Release(u.nodes...)
		return nil, fmt.Errorf("rack: delay: %w", err)
	}

	return u, nil
}

func (u *Delay) build(r *Rack) error {
	err := u.inGain.Connect(u.outGain)
	if err != nil {
		return err
	}

	for i := range u.taps {
		line, err := r.audio.NewDelay(MaxDelaySeconds)
		if err != nil {
			return err
		}

		gain := r.audio.NewGain()
		u.own(line, gain)
		u.taps[i] = tap{line: line, gain: gain}

		if err := u.inGain.Connect(line); err != nil {
			return err
		}

		if err := line.Connect(gain); err != nil {
			return err
		}
	}

	return nil
}

// deriveTaps connects taps [0, N) with delay T*i and gain 1 - i/N and
// disconnects the rest. The loop bound keeps N = 0 free of division.
func (u *Delay) deriveTaps() {
	n := u.active

	for i := range u.taps {
		t := u.taps[i]

		if i >= n {
			t.gain.Disconnect()
			continue
		}

		t.line.DelayTime.SetValue(math.Min(u.spacing*float64(i), MaxDelaySeconds))
		t.gain.Gain.SetValue(1 - float64(i)/float64(n))

		if err := t.gain.Connect(u.outGain); err != nil {
			u.rack.reportError(fmt.Errorf("rack: delay tap %d: %w", i, err))
		}
	}
}

// ActiveTaps returns the number of taps feeding the output.
func (u *Delay) ActiveTaps() int { return u.active }

// Spacing returns the time between taps in seconds.
func (u *Delay) Spacing() float64 { return u.spacing }

// TapGains returns the gains of the active taps.
func (u *Delay) TapGains() []float64 {
	gains := make([]float64, u.active)
	for i := range gains {
		gains[i] = u.taps[i].gain.Gain.Value()
	}

	return gains
}

// TapDelays returns the delay times of the active taps in seconds.
func (u *Delay) TapDelays() []float64 {
	delays := make([]float64, u.active)
	for i := range delays {
		delays[i] = u.taps[i].line.DelayTime.Value()
	}

	return delays
}

// ConnectedTaps counts taps whose gain stage is wired to the output.
func (u *Delay) ConnectedTaps() int {
	n := 0

	for _, t := range u.taps {
		if len(t.gain.Outputs()) > 0 {
			n++
		}
	}

	return n
}
