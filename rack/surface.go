package rack

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// KnobView is a knob snapshot handed to a Surface.
type KnobView struct {
	Name     string
	Value    float64
	Dragging bool
}

// UnitView is a unit snapshot handed to a Surface.
type UnitView struct {
	Slot   int
	Kind   string
	Size   int
	Knobs  []KnobView
	Status string
}

// Surface draws the rack. Every frame is a full redraw: BeginFrame, one
// DrawUnit per unit in chain order, EndFrame.
type Surface interface {
	BeginFrame()
	DrawUnit(v UnitView)
	EndFrame()
}

// TextSurface renders each frame as a table.
type TextSurface struct {
	w  io.Writer
	tw *tabwriter.Writer
}

// NewTextSurface returns a surface writing frames to w.
func NewTextSurface(w io.Writer) *TextSurface {
	return &TextSurface{w: w}
}

// BeginFrame starts a new table with its header row.
func (t *TextSurface) BeginFrame() {
	t.tw = tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(t.tw, "Slot\tUnit\tSize\tKnobs\tStatus\n")
	_, _ = fmt.Fprintf(t.tw, "----\t----\t----\t-----\t------\n")
}

// DrawUnit writes one row; a dragging knob is marked with "*".
func (t *TextSurface) DrawUnit(v UnitView) {
	if t.tw == nil {
		t.BeginFrame()
	}

	knobs := make([]string, len(v.Knobs))
	for i, k := range v.Knobs {
		mark := ""
		if k.Dragging {
			mark = "*"
		}

		knobs[i] = fmt.Sprintf("%s%s=%.2f", mark, k.Name, k.Value)
	}

	_, _ = fmt.Fprintf(t.tw, "%d\t%s\t%dU\t%s\t%s\n", v.Slot, v.Kind, v.Size, strings.Join(knobs, " "), v.Status)
}

// EndFrame flushes the aligned table to the writer.
func (t *TextSurface) EndFrame() {
	if t.tw == nil {
		return
	}

	_ = t.tw.Flush()
	t.tw = nil
}

// RecordingSurface keeps the most recent complete frame.
type RecordingSurface struct {
	Frames int
	Last   []UnitView

	cur []UnitView
}

// BeginFrame discards any partial frame.
func (r *RecordingSurface) BeginFrame() { r.cur = nil }

// DrawUnit appends v to the frame being recorded.
func (r *RecordingSurface) DrawUnit(v UnitView) { r.cur = append(r.cur, v) }

// EndFrame publishes the recorded frame as Last.
func (r *RecordingSurface) EndFrame() {
	r.Frames++
	r.Last = r.cur
	r.cur = nil
}
