package rack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/rack/impulse"
)

var errEmptyImpulse = errors.New("empty impulse")

// Reverb convolves its input with an impulse from the rack's catalog. All
// catalog entries load in parallel; the convolver is wired in, and the
// first loaded entry selected, only once every load has finished. Until
// then the unit passes no signal. Failed loads are reported and left out.
type Reverb struct {
	unitBase

	inGain, outGain *audiograph.GainNode
	conv            *audiograph.ConvolverNode

	cancel context.CancelFunc

	names    []string
	buffers  []*audiograph.Buffer
	pending  int
	active   bool
	selected int
	loaded   []int
}

// NewReverb builds a Reverb unit and starts loading the catalog.
func NewReverb(r *Rack) (*Reverb, error) {
	u := &Reverb{
		inGain:   r.audio.NewGain(),
		outGain:  r.audio.NewGain(),
		conv:     r.audio.NewConvolver(),
		names:    r.catalog.Names(),
		selected: -1,
	}
	u.in, u.out = u.inGain, u.outGain
	u.own(u.inGain, u.outGain, u.conv)
	u.status = u.describe
	u.buffers = make([]*audiograph.Buffer, len(u.names))

	err := u.init(r, KindReverb, 2, []knobDecl{{name: "impulse", initial: 0}}, map[string]func(float64){
		"impulse": u.turn,
	})
	if err != nil {
		r.audio.Release(u.nodes...)
		return nil, fmt.Errorf("rack: reverb: %w", err)
	}

	var ctx context.Context
	ctx, u.cancel = context.WithCancel(r.ctx)

	u.load(ctx)

	return u, nil
}

func (u *Reverb) load(ctx context.Context) {
	entries := u.rack.catalog.Entries()
	u.pending = len(entries)

	if u.pending == 0 {
		u.rack.post(u.activate)
		return
	}

	for i, e := range entries {
		go func() {
			buf, err := u.rack.loader.Load(ctx, e.Locator)
			u.rack.post(func() { u.complete(i, buf, err) })
		}()
	}
}

// complete records one finished load. The last one activates the unit.
func (u *Reverb) complete(i int, buf *audiograph.Buffer, err error) {
	if u.closed || u.pending == 0 {
		return
	}

	if err == nil && buf.Len() == 0 {
		err = errEmptyImpulse
	}

	if err == nil {
		buf, err = impulse.Resample(buf, u.rack.audio.SampleRate())
	}

	if err != nil {
		u.rack.report(slog.LevelWarn, fmt.Errorf("rack: reverb: impulse %q: %w", u.names[i], err))
	} else {
		u.buffers[i] = buf
	}

	u.pending--
	if u.pending == 0 {
		u.activate()
	}
}

func (u *Reverb) activate() {
	if u.closed || u.active {
		return
	}

	u.loaded = u.loaded[:0]
	for i, b := range u.buffers {
		if b != nil {
			u.loaded = append(u.loaded, i)
		}
	}

	if len(u.loaded) == 0 {
		u.rack.reportError(fmt.Errorf("%w: %d catalog entries", ErrNoImpulses, len(u.names)))
		u.rack.Render()

		return
	}

	err := u.inGain.Connect(u.conv)
	if err == nil {
		err = u.conv.Connect(u.outGain)
	}

	if err != nil {
		u.rack.reportError(fmt.Errorf("rack: reverb: %w", err))
		return
	}

	u.active = true
	u.rack.log.Debug("reverb active", "impulses", len(u.loaded))

	err = u.SelectImpulse(0)
	if err != nil {
		u.rack.reportError(err)
	}
}

// SelectImpulse installs the i-th available impulse, counting in catalog
// order, and moves the knob to match.
func (u *Reverb) SelectImpulse(i int) error {
	if !u.active {
		return ErrNotActive
	}

	if i < 0 || i >= len(u.loaded) {
		return fmt.Errorf("%w: impulse %d of %d", ErrIndexOutOfRange, i, len(u.loaded))
	}

	err := u.conv.SetBuffer(u.buffers[u.loaded[i]])
	if err != nil {
		return fmt.Errorf("rack: reverb: %w", err)
	}

	u.selected = i

	k := u.Knob("impulse")
	if n := len(u.loaded); n > 1 {
		k.value = float64(i) / float64(n-1)
	} else {
		k.value = 0
	}

	u.rack.Render()

	return nil
}

func (u *Reverb) turn(v float64) {
	if !u.active {
		return
	}

	i := int(math.Round(v * float64(len(u.loaded)-1)))
	if i == u.selected {
		return
	}

	err := u.SelectImpulse(i)
	if err != nil {
		u.rack.reportError(err)
	}
}

// Active reports whether the convolver is wired in.
func (u *Reverb) Active() bool { return u.active }

// Pending returns the number of loads still outstanding.
func (u *Reverb) Pending() int { return u.pending }

// Selected returns the selected impulse index, or -1 before activation.
func (u *Reverb) Selected() int { return u.selected }

// SelectedName returns the catalog name of the selected impulse.
func (u *Reverb) SelectedName() string {
	if u.selected < 0 {
		return ""
	}

	return u.names[u.loaded[u.selected]]
}

// Impulses returns the names of the loaded impulses in catalog order.
func (u *Reverb) Impulses() []string {
	names := make([]string, len(u.loaded))
	for i, idx := range u.loaded {
		names[i] = u.names[idx]
	}

	return names
}

// Close stops outstanding loads and releases the unit's nodes.
func (u *Reverb) Close() {
	if u.cancel != nil {
		u.cancel()
	}

	u.unitBase.Close()
}

func (u *Reverb) describe() string {
	switch {
	case u.active:
		return "impulse " + u.SelectedName()
	case u.pending > 0:
		return fmt.Sprintf("loading %d/%d", len(u.names)-u.pending, len(u.names))
	default:
		return "no impulses"
	}
}
