package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/cwbudde/algo-rack/rack"
)

// dragStep is how far one arrow key press moves the pointer, in pixels.
const dragStep = 2.0

var errNoTerminal = errors.New("-interactive needs a terminal on stdin")

const keyHelp = "1-9 unit  left/right knob  up/down turn  d/x/r add delay/distortion/reverb  </> move  backspace remove  q quit"

// console drives a rack from single key presses and redraws it as a table.
// All methods except start run on the rack's event loop.
type console struct {
	out    io.Writer
	quit   func()
	table  *rack.TextSurface
	r      *rack.Rack
	unit   int
	knob   int
	y      float64
	drag   *rack.Knob
	escape []byte
	note   string
}

func newConsole(w io.Writer, quit func()) *console {
	out := crlfWriter{w}
	return &console{out: out, quit: quit, table: rack.NewTextSurface(out), unit: 1}
}

func (c *console) attach(r *rack.Rack) {
	c.r = r
	c.clampSelection()
	r.Render()
}

// start puts the terminal into raw mode and feeds key presses to the loop.
// The returned function restores the terminal.
func (c *console) start(loop *rack.EventLoop) (func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errNoTerminal
	}

	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	go func() {
		buf := make([]byte, 16)

		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}

			keys := bytes.Clone(buf[:n])
			loop.Post(func() {
				for _, b := range keys {
					c.key(b)
				}
			})
		}
	}()

	return func() { _ = term.Restore(fd, old) }, nil
}

// key handles one input byte. Arrow keys arrive as ESC [ A..D.
func (c *console) key(b byte) {
	if c.r == nil {
		return
	}

	if len(c.escape) > 0 || b == 0x1b {
		c.escape = append(c.escape, b)

		switch {
		case len(c.escape) < 3:
			return
		case c.escape[1] == '[':
			c.arrow(c.escape[2])
		}

		c.escape = c.escape[:0]

		return
	}

	c.note = ""

	switch b {
	case 'q', 0x03:
		c.endDrag()
		c.quit()

		return
	case 'k':
		c.arrow('A')
		return
	case 'j':
		c.arrow('B')
		return
	case 'l':
		c.arrow('C')
		return
	case 'h':
		c.arrow('D')
		return
	}

	c.endDrag()

	switch {
	case b >= '1' && b <= '9':
		c.unit = int(b - '1')
	case b == 'd':
		c.add(rack.KindDelay)
	case b == 'x':
		c.add(rack.KindDistortion)
	case b == 'r':
		c.add(rack.KindReverb)
	case b == '<':
		c.move(-1)
	case b == '>':
		c.move(1)
	case b == 0x7f || b == 0x08:
		c.remove()
	}

	c.clampSelection()
	c.r.Render()
}

func (c *console) arrow(dir byte) {
	switch dir {
	case 'A', 'B':
		k := c.selectedKnob()
		if k == nil {
			return
		}

		if c.drag != k {
			c.endDrag()
			c.y = 0
			k.StartDrag(c.y)
			c.drag = k
		}

		if dir == 'A' {
			c.y -= dragStep
		} else {
			c.y += dragStep
		}

		k.Drag(c.y)
	case 'C', 'D':
		c.endDrag()

		if dir == 'C' {
			c.knob++
		} else {
			c.knob--
		}

		c.clampSelection()
		c.r.Render()
	}
}

func (c *console) endDrag() {
	if c.drag != nil {
		c.drag.EndDrag()
		c.drag = nil
	}
}

func (c *console) selectedKnob() *rack.Knob {
	knobs := c.r.Unit(c.unit).Knobs()
	if len(knobs) == 0 {
		return nil
	}

	return knobs[c.knob]
}

func (c *console) add(kind string) {
	if _, err := c.r.AddKind(kind); err != nil {
		c.note = err.Error()
		return
	}

	c.unit = c.r.Len() - 2
	c.knob = 0
}

func (c *console) move(delta int) {
	to := c.unit + delta
	if err := c.r.MoveUnit(c.unit, to); err != nil {
		c.note = err.Error()
		return
	}

	c.unit = to
}

func (c *console) remove() {
	if err := c.r.RemoveUnit(c.r.Unit(c.unit)); err != nil {
		c.note = err.Error()
	}
}

func (c *console) clampSelection() {
	c.unit = max(0, min(c.unit, c.r.Len()-1))

	n := len(c.r.Unit(c.unit).Knobs())
	c.knob = max(0, min(c.knob, n-1))
}

func (c *console) BeginFrame() {
	fmt.Fprint(c.out, "\x1b[H\x1b[2J")
	c.table.BeginFrame()
}

func (c *console) DrawUnit(v rack.UnitView) {
	if c.r != nil && v.Slot == c.unit {
		v.Kind = "> " + v.Kind

		if c.knob < len(v.Knobs) {
			v.Knobs[c.knob].Name = "[" + v.Knobs[c.knob].Name + "]"
		}
	}

	c.table.DrawUnit(v)
}

func (c *console) EndFrame() {
	c.table.EndFrame()

	fmt.Fprintf(c.out, "\n%s\n", keyHelp)

	if c.note != "" {
		fmt.Fprintf(c.out, "%s\n", c.note)
	}
}

// crlfWriter turns LF into CRLF for a terminal in raw mode.
type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}

	return len(p), nil
}
