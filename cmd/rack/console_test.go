package main

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/rack"
)

func newTestConsole(t *testing.T) (*console, *rack.Rack, *bytes.Buffer, *bool) {
	t.Helper()

	audio, err := audiograph.NewContext(8000)
	if err != nil {
		t.Fatal(err)
	}

	var (
		out  bytes.Buffer
		quit bool
	)

	con := newConsole(&out, func() { quit = true })

	r, err := rack.New(audio, rack.WithLogger(discard()), rack.WithSurface(con))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(r.Close)
	con.attach(r)

	return con, r, &out, &quit
}

func typeKeys(c *console, keys string) {
	for i := range len(keys) {
		c.key(keys[i])
	}
}

func chain(r *rack.Rack) string {
	kinds := make([]string, 0, r.Len())
	for _, u := range r.Units() {
		kinds = append(kinds, u.Kind())
	}

	return strings.Join(kinds, ",")
}

func TestConsoleEditsChain(t *testing.T) {
	t.Parallel()

	con, r, _, quit := newTestConsole(t)

	typeKeys(con, "xd")

	if got := chain(r); got != "input,distortion,delay,output" {
		t.Fatalf("chain = %s", got)
	}

	typeKeys(con, "<")

	if got := chain(r); got != "input,delay,distortion,output" {
		t.Fatalf("after move chain = %s", got)
	}

	typeKeys(con, "\x7f")

	if got := chain(r); got != "input,distortion,output" {
		t.Fatalf("after remove chain = %s", got)
	}

	typeKeys(con, "q")

	if !*quit {
		t.Fatal("q did not quit")
	}
}

func TestConsoleDragsKnob(t *testing.T) {
	t.Parallel()

	con, r, _, _ := newTestConsole(t)

	typeKeys(con, "x")

	k := r.Unit(1).Knob("distortion")

	typeKeys(con, "\x1b[A")

	if !k.Dragging() || math.Abs(k.Value()-0.55) > 1e-9 {
		t.Fatalf("after up: dragging=%v value=%v", k.Dragging(), k.Value())
	}

	typeKeys(con, "kk")

	if math.Abs(k.Value()-0.65) > 1e-9 {
		t.Fatalf("after two more: value=%v, want 0.65", k.Value())
	}

	// Selecting the next knob releases the drag.
	typeKeys(con, "l")

	if k.Dragging() {
		t.Fatal("knob still dragging")
	}

	typeKeys(con, "jjj")

	level := r.Unit(1).Knob("level")
	if math.Abs(level.Value()-0.35) > 1e-9 || math.Abs(k.Value()-0.65) > 1e-9 {
		t.Fatalf("level=%v distortion=%v", level.Value(), k.Value())
	}
}

func TestConsoleDraws(t *testing.T) {
	t.Parallel()

	con, _, out, _ := newTestConsole(t)

	typeKeys(con, "x")
	out.Reset()
	typeKeys(con, "1\x7f")

	text := out.String()

	for _, want := range []string{"> input", "[gain]", "fixed", "\r\n", keyHelp} {
		if !strings.Contains(text, want) {
			t.Fatalf("frame lacks %q:\n%s", want, text)
		}
	}

	if strings.Contains(strings.ReplaceAll(text, "\r\n", ""), "\n") {
		t.Fatal("bare LF in raw-mode output")
	}
}
