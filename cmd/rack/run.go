package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/capture"
	"github.com/cwbudde/algo-rack/rack/impulse"
)

const (
	settleTimeout = 30 * time.Second
	pollInterval  = 10 * time.Millisecond
	renderChunk   = 4096
)

var errInputUnavailable = errors.New("input unavailable")

func newDevice(cfg config) rack.CaptureDevice {
	if cfg.input == "pluck" {
		return capture.Pluck{SampleRate: cfg.sampleRate, Tempo: cfg.tempo, Seed: cfg.seed}
	}

	return capture.WAVFile{Path: cfg.input, SampleRate: cfg.sampleRate}
}

// run builds the rack on an event loop and then either renders offline or
// plays until ctx is done.
func run(ctx context.Context, cfg config, log *slog.Logger, stdout io.Writer) error {
	audio, err := audiograph.NewContext(cfg.sampleRate)
	if err != nil {
		return err
	}

	catalog, err := impulse.NewCatalog(cfg.impulses...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	loop := rack.NewEventLoop(64)

	g.Go(func() error {
		if err := loop.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}

		return nil
	})

	var con *console
	if cfg.interactive {
		con = newConsole(stdout, cancel)
	}

	r, err := buildRack(gctx, loop, audio, cfg, catalog, log, con)
	if err != nil {
		cancel()
		_ = g.Wait()

		return err
	}

	defer r.Close()

	g.Go(func() error {
		defer cancel()

		if err := settle(gctx, loop, r); err != nil {
			return err
		}

		if cfg.out != "" {
			return renderOffline(gctx, audio, cfg, log)
		}

		return play(gctx, loop, audio, con, log)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}

	return err
}

func buildRack(ctx context.Context, loop *rack.EventLoop, audio *audiograph.Context, cfg config,
	catalog impulse.Catalog, log *slog.Logger, con *console,
) (*rack.Rack, error) {
	opts := []rack.Option{
		rack.WithExecutor(loop),
		rack.WithLogger(log),
		rack.WithCaptureDevice(newDevice(cfg)),
		rack.WithImpulseCatalog(catalog),
	}

	if con != nil {
		opts = append(opts, rack.WithSurface(con))
	}

	var (
		r   *rack.Rack
		err error
	)

	doErr := loop.Do(ctx, func() {
		r, err = rack.New(audio, opts...)
		if err != nil {
			return
		}

		for _, kind := range cfg.units {
			if _, err = r.AddKind(kind); err != nil {
				r.Close()
				r = nil

				return
			}
		}

		if con != nil {
			con.attach(r)
		}

		log.Info("rack built", "chain", unitList(r))
	})
	if doErr != nil {
		return nil, doErr
	}

	if err != nil {
		return nil, err
	}

	return r, nil
}

// settle waits until the input is live and every reverb has finished
// loading its impulses.
func settle(ctx context.Context, loop *rack.EventLoop, r *rack.Rack) error {
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()

	for {
		var (
			done bool
			err  error
		)

		doErr := loop.Do(ctx, func() {
			if err = r.InputUnit().Err(); err != nil {
				return
			}

			done = r.Ready()

			for _, u := range r.Units() {
				if rv, ok := u.(*rack.Reverb); ok && rv.Pending() > 0 {
					done = false
				}
			}
		})

		switch {
		case doErr != nil:
			return doErr
		case err != nil:
			return fmt.Errorf("%w: %w", errInputUnavailable, err)
		case done:
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func renderOffline(ctx context.Context, audio *audiograph.Context, cfg config, log *slog.Logger) error {
	frames := int(cfg.seconds * cfg.sampleRate)
	out := make([]float64, frames)

	for off := 0; off < frames; off += renderChunk {
		if err := ctx.Err(); err != nil {
			return err
		}

		audio.Render(out[off:min(frames, off+renderChunk)])
	}

	f, err := os.Create(cfg.out)
	if err != nil {
		return err
	}

	buf := &audiograph.Buffer{SampleRate: cfg.sampleRate, Channels: [][]float64{out}}
	if err := impulse.EncodeWAV(f, buf, cfg.bitDepth); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	log.Info("rendered", "file", cfg.out, "frames", frames, "bits", cfg.bitDepth)

	return nil
}

func play(ctx context.Context, loop *rack.EventLoop, audio *audiograph.Context, con *console, log *slog.Logger) error {
	p, err := newPlayer(audio)
	if err != nil {
		return err
	}
	defer p.Close()

	if con != nil {
		restore, err := con.start(loop)
		if err != nil {
			return err
		}
		defer restore()
	}

	log.Info("playing", "rate", audio.SampleRate())
	<-ctx.Done()

	return ctx.Err()
}
