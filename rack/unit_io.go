package rack

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

const ioGainScale = 10.0

// Input originates the chain's signal from the rack's capture device. Its
// output is a gain stage that the source feeds once capture is granted.
type Input struct {
	unitBase

	gain   *audiograph.GainNode
	source *audiograph.SourceNode
	err    error
}

// NewInput builds an Input unit. It does not start acquisition; the rack
// does that once the chain exists.
func NewInput(r *Rack) (*Input, error) {
	u := &Input{gain: r.audio.NewGain()}
	u.out = u.gain
	u.own(u.gain)
	u.status = u.describe

	err := u.init(r, KindInput, 1, []knobDecl{{name: "gain", initial: 0.1}}, map[string]func(float64){
		"gain": func(v float64) { u.gain.Gain.SetValue(v * ioGainScale) },
	})
	if err != nil {
		r.audio.Release(u.nodes...)
		return nil, err
	}

	return u, nil
}

// Gain returns the applied input gain.
func (u *Input) Gain() float64 { return u.gain.Gain.Value() }

// Err returns the acquisition failure, if any.
func (u *Input) Err() error { return u.err }

// Source returns the capture source node once granted, or nil.
func (u *Input) Source() *audiograph.SourceNode { return u.source }

func (u *Input) acquire(ctx context.Context) {
	dev := u.rack.capture
	if dev == nil {
		u.rack.post(func() { u.denied(ErrNoCaptureDevice) })
		return
	}

	go func() {
		stream, err := dev.Open(ctx)
		u.rack.post(func() {
			if err != nil {
				u.denied(err)
				return
			}

			u.granted(stream)
		})
	}()
}

func (u *Input) granted(stream audiograph.Stream) {
	if u.closed {
		return
	}

	u.source = u.rack.audio.NewSource(stream)
	u.own(u.source)

	err := u.source.Connect(u.gain)
	if err != nil {
		u.denied(err)
		return
	}

	u.rack.log.Info("capture granted")
	u.rack.SetReady(true)
}

// denied is terminal: the unit never retries.
func (u *Input) denied(err error) {
	u.err = fmt.Errorf("%w: %w", ErrNoInput, err)
	u.rack.SetReady(false)
	u.rack.reportError(u.err)
}

func (u *Input) describe() string {
	switch {
	case u.err != nil:
		return "no input"
	case u.source == nil:
		return "waiting for input"
	default:
		return "live"
	}
}

// Output terminates the chain into the audio context's destination.
type Output struct {
	unitBase

	gain *audiograph.GainNode
}

// NewOutput builds an Output unit.
func NewOutput(r *Rack) (*Output, error) {
	u := &Output{gain: r.audio.NewGain()}
	u.in = u.gain
	u.own(u.gain)

	err := u.gain.Connect(r.audio.Destination())
	if err == nil {
		err = u.init(r, KindOutput, 1, []knobDecl{{name: "gain", initial: 0.1}}, map[string]func(float64){
			"gain": func(v float64) { u.gain.Gain.SetValue(v * ioGainScale) },
		})
	}

	if err != nil {
		r.audio.Release(u.nodes...)
		return nil, fmt.Errorf("rack: output: %w", err)
	}

	return u, nil
}

// Gain returns the applied output gain.
func (u *Output) Gain() float64 { return u.gain.Gain.Value() }
