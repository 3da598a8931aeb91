package rack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/rack/impulse"
)

// CaptureDevice supplies the rack's input signal. Open may block, e.g.
// waiting for a permission prompt; it runs off the rack's goroutine.
type CaptureDevice interface {
	Open(ctx context.Context) (audiograph.Stream, error)
}

// Rack is the ordered chain of units between Input and Output.
type Rack struct {
	audio *audiograph.Context

	exec     Executor
	log      *slog.Logger
	surface  Surface
	capture  CaptureDevice
	loader   impulse.Loader
	catalog  impulse.Catalog
	registry *Registry
	onError  func(error)

	ctx    context.Context
	cancel context.CancelFunc

	units  []Unit
	input  *Input
	output *Output
	ready  bool
	closed bool

	rendering bool
	dirty     bool
	renders   int
}

// New builds a rack with an Input and an Output unit on audio and starts
// acquiring the capture device. The rack stays silent until the device is
// granted.
func New(audio *audiograph.Context, opts ...Option) (*Rack, error) {
	if audio == nil {
		return nil, errors.New("rack: nil audio context")
	}

	r := &Rack{audio: audio}
	for _, opt := range opts {
		opt(r)
	}

	if r.exec == nil {
		r.exec = defaultExecutor()
	}

	if r.log == nil {
		r.log = slog.Default()
	}

	if r.loader == nil {
		r.loader = &impulse.FetchLoader{}
	}

	if r.registry == nil {
		r.registry = DefaultRegistry()
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())

	in, err := NewInput(r)
	if err != nil {
		r.cancel()
		return nil, err
	}

	out, err := NewOutput(r)
	if err != nil {
		in.Close()
		r.cancel()

		return nil, err
	}

	r.input, r.output = in, out
	r.units = []Unit{in, out}
	r.Rewire()

	in.acquire(r.ctx)

	return r, nil
}

// Audio returns the audio context the rack builds on.
func (r *Rack) Audio() *audiograph.Context { return r.audio }

// Logger returns the rack's logger.
func (r *Rack) Logger() *slog.Logger { return r.log }

// Catalog returns the reverb impulse catalog.
func (r *Rack) Catalog() impulse.Catalog { return r.catalog }

// Registry returns the registry used by AddKind.
func (r *Rack) Registry() *Registry { return r.registry }

// InputUnit returns the fixed first unit.
func (r *Rack) InputUnit() *Input { return r.input }

// OutputUnit returns the fixed last unit.
func (r *Rack) OutputUnit() *Output { return r.output }

// Len returns the number of units, Input and Output included.
func (r *Rack) Len() int { return len(r.units) }

// Units returns the chain in order.
func (r *Rack) Units() []Unit {
	return slices.Clone(r.units)
}

// Unit returns the unit at index i, or nil.
func (r *Rack) Unit(i int) Unit {
	if i < 0 || i >= len(r.units) {
		return nil
	}

	return r.units[i]
}

// IndexOf returns the position of u, or -1.
func (r *Rack) IndexOf(u Unit) int {
	for i, cur := range r.units {
		if cur == u {
			return i
		}
	}

	return -1
}

// AddUnit inserts u just before the Output unit and rewires.
func (r *Rack) AddUnit(u Unit) error {
	switch {
	case r.closed:
		return ErrClosed
	case u == nil:
		return fmt.Errorf("rack: add: %w: nil unit", ErrUnitNotFound)
	case u.base().rack != r:
		return ErrForeignUnit
	case u.base().closed:
		return fmt.Errorf("%w: %s unit was released", ErrClosed, u.Kind())
	case r.IndexOf(u) >= 0:
		return fmt.Errorf("%w: %s", ErrUnitExists, u.Kind())
	}

	r.units = slices.Insert(r.units, len(r.units)-1, u)
	r.log.Debug("unit added", "kind", u.Kind(), "slot", len(r.units)-2)
	r.Rewire()

	return nil
}

// AddKind builds a unit through the registry and adds it.
func (r *Rack) AddKind(kind string) (Unit, error) {
	if r.closed {
		return nil, ErrClosed
	}

	factory := r.registry.Lookup(kind)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, kind)
	}

	u, err := factory(r)
	if err != nil {
		return nil, fmt.Errorf("rack: build %s: %w", kind, err)
	}

	err = r.AddUnit(u)
	if err != nil {
		u.Close()
		return nil, err
	}

	return u, nil
}

// RemoveUnit removes u by identity, closes it and rewires. Input and
// Output cannot be removed.
func (r *Rack) RemoveUnit(u Unit) error {
	i := r.IndexOf(u)

	switch {
	case u == nil || i < 0:
		return ErrUnitNotFound
	case i == 0 || i == len(r.units)-1:
		return fmt.Errorf("%w: cannot remove %s", ErrFixedUnit, u.Kind())
	}

	r.units = slices.Delete(r.units, i, i+1)
	u.Close()
	r.log.Debug("unit removed", "kind", u.Kind(), "slot", i)
	r.Rewire()

	return nil
}

// MoveUnit relocates the unit at from so it ends up at index to, then
// rewires. Equal indices are a no-op. Neither index may address Input or
// Output.
func (r *Rack) MoveUnit(from, to int) error {
	if from == to {
		return nil
	}

	last := len(r.units) - 1

	if from < 0 || from > last || to < 0 || to > last {
		return fmt.Errorf("%w: move %d -> %d with %d units", ErrIndexOutOfRange, from, to, len(r.units))
	}

	if from == 0 || from == last || to == 0 || to == last {
		return fmt.Errorf("%w: move %d -> %d", ErrFixedUnit, from, to)
	}

	u := r.units[from]
	r.units = slices.Delete(r.units, from, from+1)
	r.units = slices.Insert(r.units, to, u)
	r.log.Debug("unit moved", "kind", u.Kind(), "from", from, "to", to)
	r.Rewire()

	return nil
}

// SetReady records readiness and rewires.
func (r *Rack) SetReady(ready bool) {
	if r.ready != ready {
		r.log.Debug("rack readiness changed", "ready", ready)
	}

	r.ready = ready
	r.Rewire()
}

// Ready reports whether audio flows through the chain.
func (r *Rack) Ready() bool { return r.ready }

// Rewire disconnects every unit output and, when ready, connects each
// unit to its successor. Repeated calls yield the same wiring.
func (r *Rack) Rewire() {
	for i := 0; i < len(r.units)-1; i++ {
		out := r.units[i].Output()
		if out == nil {
			continue
		}

		out.Disconnect()

		if !r.ready {
			continue
		}

		in := r.units[i+1].Input()
		if in == nil {
			continue
		}

		err := out.Connect(in)
		if err != nil {
			r.reportError(fmt.Errorf("rack: wire %s -> %s: %w", r.units[i].Kind(), r.units[i+1].Kind(), err))
		}
	}

	r.log.Debug("rack rewired", "units", len(r.units), "ready", r.ready)
	r.Render()
}

// Render redraws every unit. A render requested while one is in progress
// is folded into another full pass once the current one finishes.
func (r *Rack) Render() {
	if r.rendering {
		r.dirty = true
		return
	}

	r.rendering = true
	defer func() { r.rendering = false }()

	for {
		r.dirty = false
		r.renders++

		if r.surface != nil {
			r.surface.BeginFrame()

			for i, u := range r.units {
				u.Render(r.surface, i)
			}

			r.surface.EndFrame()
		}

		if !r.dirty {
			return
		}
	}
}

// Dispatch runs the asynchronous completions waiting in the rack's default
// Queue executor and returns how many ran. It must be called from the
// goroutine that owns the rack. With any other executor it does nothing.
func (r *Rack) Dispatch() int {
	q, ok := r.exec.(*Queue)
	if !ok {
		return 0
	}

	return q.Drain()
}

// Posted receives a value when completions are waiting for Dispatch. It
// returns nil, which never receives, for executors other than Queue.
func (r *Rack) Posted() <-chan struct{} {
	if q, ok := r.exec.(*Queue); ok {
		return q.Notify()
	}

	return nil
}

// Renders returns how many full render passes ran.
func (r *Rack) Renders() int { return r.renders }

// Close cancels pending acquisitions and releases every unit.
func (r *Rack) Close() {
	if r.closed {
		return
	}

	r.closed = true
	r.cancel()

	for _, u := range r.units {
		u.Close()
	}

	r.ready = false
}

// post hands fn to the executor unless the rack has been closed by then.
func (r *Rack) post(fn func()) {
	r.exec.Post(func() {
		if r.closed {
			return
		}

		fn()
	})
}

func (r *Rack) reportError(err error) {
	r.report(slog.LevelError, err)
}

func (r *Rack) report(level slog.Level, err error) {
	r.log.Log(r.ctx, level, "rack error", "err", err)

	if r.onError != nil {
		r.onError(err)
	}
}
