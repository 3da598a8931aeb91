package capture_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/capture"
)

var (
	_ rack.CaptureDevice = capture.Pluck{}
	_ rack.CaptureDevice = capture.WAVFile{}
	_ rack.CaptureDevice = (*capture.Ring)(nil)
)

// startRack runs a rack on an event loop and returns a function that
// polls cond on the loop until it holds.
func startRack(t *testing.T, dev rack.CaptureDevice) (*rack.Rack, func(cond func() bool)) {
	t.Helper()

	audio, err := audiograph.NewContext(8000, audiograph.WithRenderQuantum(64), audiograph.WithSmoothingTime(0))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	loop := rack.NewEventLoop(16)

	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()

	var (
		r      *rack.Rack
		newErr error
	)

	err = loop.Do(ctx, func() {
		r, newErr = rack.New(audio,
			rack.WithExecutor(loop),
			rack.WithCaptureDevice(dev),
			rack.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		)
	})
	if err == nil {
		err = newErr
	}

	if err != nil {
		cancel()
		<-done
		t.Fatalf("rack.New: %v", err)
	}

	t.Cleanup(func() {
		_ = loop.Do(ctx, r.Close)
		cancel()
		<-done
	})

	until := func(cond func() bool) {
		t.Helper()

		deadline := time.Now().Add(5 * time.Second)

		for {
			var ok bool
			if err := loop.Do(ctx, func() { ok = cond() }); err != nil {
				t.Fatal(err)
			}

			if ok {
				return
			}

			if time.Now().After(deadline) {
				t.Fatal("condition not reached")
			}

			time.Sleep(time.Millisecond)
		}
	}

	return r, until
}

func TestRingFeedsRack(t *testing.T) {
	t.Parallel()

	ring := capture.NewRing(1024)
	r, until := startRack(t, ring)

	ring.Grant()
	until(r.Ready)

	in := make([]float64, 64)
	for i := range in {
		in[i] = 0.5
	}

	ring.Push(in)

	out := make([]float64, 64)
	until(func() bool {
		r.Audio().Render(out)
		return out[63] != 0
	})

	// Input and output gains default to 0.1 * 10 each.
	if got := out[63]; got < 0.49 || got > 0.51 {
		t.Fatalf("output = %v, want about 0.5", got)
	}
}

func TestDeniedRingLeavesRackSilent(t *testing.T) {
	t.Parallel()

	ring := capture.NewRing(16)
	r, until := startRack(t, ring)

	ring.Deny(nil)
	until(func() bool { return r.InputUnit().Err() != nil })

	if err := r.InputUnit().Err(); !errors.Is(err, rack.ErrNoInput) || !errors.Is(err, capture.ErrDenied) {
		t.Fatalf("input error = %v", err)
	}

	if r.Ready() {
		t.Fatal("rack ready after denial")
	}
}
