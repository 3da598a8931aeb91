package rack

import (
	"fmt"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

// Unit kinds.
const (
	KindInput      = "input"
	KindOutput     = "output"
	KindDelay      = "delay"
	KindDistortion = "distortion"
	KindReverb     = "reverb"
)

// Unit is one processing stage of the rack. The set of units is closed:
// only the types in this package implement it.
type Unit interface {
	KnobOwner

	// Kind returns the registry identifier of the unit type.
	Kind() string
	// Size returns the height in rack units.
	Size() int
	// Knobs returns the unit's knobs in panel order.
	Knobs() []*Knob
	// Knob returns the knob called name, or nil.
	Knob(name string) *Knob
	// Input is where the previous unit connects; nil for the Input unit.
	Input() audiograph.Node
	// Output feeds the next unit; nil for the Output unit.
	Output() audiograph.Node
	// Render draws the unit at the given chain position.
	Render(s Surface, slot int)
	// Close disconnects and releases the unit's nodes.
	Close()

	base() *unitBase
}

// knobDecl declares one knob and its initial value.
type knobDecl struct {
	name    string
	initial float64
}

// unitBase carries what every unit shares. Variants embed it and provide a
// handler per declared knob.
type unitBase struct {
	rack *Rack
	kind string
	size int

	knobs    []*Knob
	handlers map[string]func(float64)
	nodes    []audiograph.Node

	in, out audiograph.Node
	status  func() string
	closed  bool
}

// init declares knobs and their handlers. Every knob must have a handler
// and every handler a knob. Handlers run once with the initial values so
// the subgraph starts consistent; no render is requested for that.
func (b *unitBase) init(r *Rack, kind string, size int, decls []knobDecl, handlers map[string]func(float64)) error {
	b.rack = r
	b.kind = kind
	b.size = size
	b.handlers = handlers

	seen := make(map[string]struct{}, len(decls))

	for _, d := range decls {
		if _, dup := seen[d.name]; dup {
			return fmt.Errorf("rack: %s: duplicate knob %q", kind, d.name)
		}

		seen[d.name] = struct{}{}

		if handlers[d.name] == nil {
			return fmt.Errorf("%w: %s.%s", ErrMissingHandler, kind, d.name)
		}

		b.knobs = append(b.knobs, NewKnob(d.name, d.initial, b))
	}

	for name := range handlers {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("rack: %s: handler for undeclared knob %q", kind, name)
		}
	}

	for _, k := range b.knobs {
		b.handlers[k.name](k.value)
	}

	return nil
}

// own records nodes released on Close.
func (b *unitBase) own(nodes ...audiograph.Node) {
	b.nodes = append(b.nodes, nodes...)
}

func (b *unitBase) base() *unitBase { return b }

// Kind returns the registry kind of the unit.
func (b *unitBase) Kind() string { return b.kind }

// Size returns the unit height in rack units.
func (b *unitBase) Size() int { return b.size }

// Knobs returns the unit's knobs in declaration order.
func (b *unitBase) Knobs() []*Knob {
	return append([]*Knob(nil), b.knobs...)
}

// Knob returns the knob called name, or nil.
func (b *unitBase) Knob(name string) *Knob {
	for _, k := range b.knobs {
		if k.name == name {
			return k
		}
	}

	return nil
}

// Input returns the node the previous unit connects into.
func (b *unitBase) Input() audiograph.Node { return b.in }

// Output returns the node that feeds the next unit.
func (b *unitBase) Output() audiograph.Node { return b.out }

// OnKnobValueChanged dispatches to the knob's handler and repaints.
func (b *unitBase) OnKnobValueChanged(k *Knob, v float64) {
	if b.closed {
		return
	}

	h := b.handlers[k.name]
	if h == nil {
		return
	}

	h(v)
	b.rack.Render()
}

// OnKnobDone repaints so the dragging marker disappears.
func (b *unitBase) OnKnobDone(*Knob) {
	if b.closed {
		return
	}

	b.rack.Render()
}

// Render draws a snapshot of the unit at slot.
func (b *unitBase) Render(s Surface, slot int) {
	if s == nil {
		return
	}

	view := UnitView{
		Slot:  slot,
		Kind:  b.kind,
		Size:  b.size,
		Knobs: make([]KnobView, len(b.knobs)),
	}

	for i, k := range b.knobs {
		view.Knobs[i] = KnobView{Name: k.name, Value: k.value, Dragging: k.dragging}
	}

	if b.status != nil {
		view.Status = b.status()
	}

	s.DrawUnit(view)
}

// Close releases the unit's nodes. Knob changes are ignored afterwards.
func (b *unitBase) Close() {
	if b.closed {
		return
	}

	b.closed = true
	b.rack.audio.Release(b.nodes...)
}
