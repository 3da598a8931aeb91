// Command rack runs a guitar effects rack on a synthetic or recorded
// input. It either plays through the sound card or renders to a WAV file.
//
// Usage:
//
//	rack [flags]
//
// Examples:
//
//	rack -units distortion,delay
//	rack -units reverb -ir hall=irs/hall.wav -ir plate=irs/lib.irlb#plate
//	rack -input riff.wav -units distortion,reverb -ir room=room.wav -out out.wav -seconds 10
//	rack -interactive -units delay,distortion
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/impulse"
)

type config struct {
	sampleRate  float64
	units       []string
	impulses    []impulse.Entry
	input       string
	tempo       float64
	seed        uint64
	out         string
	seconds     float64
	bitDepth    int
	interactive bool
	verbose     bool
}

// entryList collects repeated -ir flags.
type entryList []impulse.Entry

func (l *entryList) String() string {
	names := make([]string, len(*l))
	for i, e := range *l {
		names[i] = e.Name
	}

	return strings.Join(names, ",")
}

func (l *entryList) Set(s string) error {
	e, err := impulse.ParseEntry(s)
	if err != nil {
		return err
	}

	*l = append(*l, e)

	return nil
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var (
		cfg   config
		units string
		irs   entryList
	)

	fs := flag.NewFlagSet("rack", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Float64Var(&cfg.sampleRate, "sr", 48000, "sample rate in Hz")
	fs.StringVar(&units, "units", "", "comma separated effect units, in chain order (delay, distortion, reverb)")
	fs.Var(&irs, "ir", "reverb impulse as name=locator; repeatable, order is knob order")
	fs.StringVar(&cfg.input, "input", "pluck", `"pluck" for a synthetic guitar or a WAV file path`)
	fs.Float64Var(&cfg.tempo, "tempo", 120, "plucks per minute for the synthetic input")
	fs.Uint64Var(&cfg.seed, "seed", 1, "noise seed for the synthetic input")
	fs.StringVar(&cfg.out, "out", "", "render to this WAV file instead of playing")
	fs.Float64Var(&cfg.seconds, "seconds", 5, "length of an offline render")
	fs.IntVar(&cfg.bitDepth, "bits", 16, "bit depth of an offline render (16, 24 or 32)")
	fs.BoolVar(&cfg.interactive, "interactive", false, "adjust knobs from the keyboard while playing")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: rack [flags]\n\n")
		fmt.Fprintf(stderr, "Runs a guitar effects rack between an input and the sound card.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	for _, u := range strings.Split(units, ",") {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			cfg.units = append(cfg.units, u)
		}
	}

	cfg.impulses = irs

	switch {
	case !(cfg.sampleRate > 0):
		return cfg, fmt.Errorf("sample rate must be > 0: %v", cfg.sampleRate)
	case cfg.out != "" && !(cfg.seconds > 0):
		return cfg, fmt.Errorf("render length must be > 0: %v", cfg.seconds)
	case cfg.out != "" && cfg.interactive:
		return cfg, errors.New("-interactive cannot be combined with -out")
	}

	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logger := newLogger(os.Stderr, cfg.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("rack failed", "err", err)
		os.Exit(1)
	}
}

// unitList formats the chain for the startup log line.
func unitList(r *rack.Rack) string {
	kinds := make([]string, 0, r.Len())
	for _, u := range r.Units() {
		kinds = append(kinds, u.Kind())
	}

	return strings.Join(kinds, " > ")
}
