package rack

import "math"

// DragScale is the vertical pointer travel, in pixels, that spans the full
// knob range.
const DragScale = 40

// KnobOwner receives knob notifications.
type KnobOwner interface {
	OnKnobValueChanged(k *Knob, v float64)
	OnKnobDone(k *Knob)
}

// Knob is a normalized [0, 1] control bound to one parameter of its owner.
type Knob struct {
	name  string
	value float64
	owner KnobOwner

	dragging  bool
	baseValue float64
	baseY     float64
}

// NewKnob returns a knob holding clamp(value). The owner is not notified.
func NewKnob(name string, value float64, owner KnobOwner) *Knob {
	return &Knob{name: name, value: clamp01(value), owner: owner}
}

// Name returns the knob name, unique within its unit.
func (k *Knob) Name() string { return k.name }

// Value returns the stored value.
func (k *Knob) Value() float64 { return k.value }

// Dragging reports whether a drag is in progress.
func (k *Knob) Dragging() bool { return k.dragging }

// SetValue clamps raw to [0, 1], stores it and notifies the owner.
func (k *Knob) SetValue(raw float64) {
	v := clamp01(raw)
	k.value = v

	if k.owner != nil {
		k.owner.OnKnobValueChanged(k, v)
	}
}

// StartDrag records the current value and pointer y as the drag baseline.
func (k *Knob) StartDrag(y float64) {
	k.dragging = true
	k.baseValue = k.value
	k.baseY = y
}

// Drag moves the knob to baseline + (baselineY - y)/DragScale. Moving up
// (smaller y) increases the value. Ignored unless dragging.
func (k *Knob) Drag(y float64) {
	if !k.dragging {
		return
	}

	k.SetValue(k.baseValue + (k.baseY-y)/DragScale)
}

// EndDrag finishes a drag and tells the owner the interaction is complete.
func (k *Knob) EndDrag() {
	if !k.dragging {
		return
	}

	k.dragging = false

	if k.owner != nil {
		k.owner.OnKnobDone(k)
	}
}

// clamp01 maps NaN to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return math.Max(0, math.Min(1, v))
}
