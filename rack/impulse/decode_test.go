package impulse

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/internal/testutil"
)

func TestDecodeWAVRoundTrip(t *testing.T) {
	t.Parallel()

	for _, depth := range []int{16, 24, 32} {
		in := &audiograph.Buffer{
			SampleRate: 48000,
			Channels: [][]float64{
				{0, 0.5, -0.5, 0.25, 1},
				{1, 0, -1, 0.125, 0},
			},
		}

		buf, err := Decode(encodeWAVBytes(t, in, depth))
		if err != nil {
			t.Fatalf("%d bit: Decode: %v", depth, err)
		}

		if buf.SampleRate != 48000 {
			t.Fatalf("%d bit: SampleRate = %v", depth, buf.SampleRate)
		}

		if len(buf.Channels) != 2 {
			t.Fatalf("%d bit: channels = %d", depth, len(buf.Channels))
		}

		for ch := range in.Channels {
			testutil.RequireSliceNearlyEqual(t, buf.Channels[ch], in.Channels[ch], 1e-4)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte("hello world")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}

	if _, err := Decode([]byte("RIFF\x00\x00")); !errors.Is(err, ErrInvalidWAV) {
		t.Fatalf("err = %v, want ErrInvalidWAV", err)
	}
}

func TestEncodeWAVValidation(t *testing.T) {
	t.Parallel()

	buf := &audiograph.Buffer{SampleRate: 8000, Channels: [][]float64{{0}}}
	if err := EncodeWAV(nil, buf, 12); err == nil {
		t.Fatal("expected error for 12 bit")
	}

	if err := EncodeWAV(nil, &audiograph.Buffer{}, 16); err == nil {
		t.Fatal("expected error for empty buffer")
	}
}

func TestDecodeLibrary(t *testing.T) {
	t.Parallel()

	data := buildLibrary(
		libEntry{name: "Room", rate: 44100, samples: [][]float64{{1, 0.5, 0.25}}},
		libEntry{name: "Broken", rate: 44100, samples: [][]float64{{1}}, corrupt: true},
		libEntry{name: "Hall", rate: 48000, samples: [][]float64{{0.5, -0.5}, {0.25, -0.25}}},
	)

	irs, err := DecodeLibrary(data)
	if err != nil {
		t.Fatalf("DecodeLibrary: %v", err)
	}

	if len(irs) != 2 {
		t.Fatalf("decoded %d entries, want 2 (corrupt one skipped)", len(irs))
	}

	if irs[0].Name != "Room" || irs[1].Name != "Hall" {
		t.Fatalf("names = %q, %q", irs[0].Name, irs[1].Name)
	}

	if irs[1].Category != "cat" {
		t.Fatalf("category = %q", irs[1].Category)
	}

	testutil.RequireSliceNearlyEqual(t, irs[0].Buffer.Channels[0], []float64{1, 0.5, 0.25}, 1e-3)
	testutil.RequireSliceNearlyEqual(t, irs[1].Buffer.Channels[1], []float64{0.25, -0.25}, 1e-3)

	if irs[1].Buffer.SampleRate != 48000 {
		t.Fatalf("SampleRate = %v", irs[1].Buffer.SampleRate)
	}

	first, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if first.Len() != 3 {
		t.Fatalf("Decode returned %d frames, want first entry", first.Len())
	}

	hall, err := DecodeNamed(data, "Hall")
	if err != nil {
		t.Fatalf("DecodeNamed: %v", err)
	}

	if len(hall.Channels) != 2 {
		t.Fatalf("Hall channels = %d", len(hall.Channels))
	}

	if _, err := DecodeNamed(data, "Broken"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDecodeLibraryBadHeader(t *testing.T) {
	t.Parallel()

	data := buildLibrary(libEntry{name: "x", rate: 1, samples: [][]float64{{1}}})
	data[4] = 2 // version

	if _, err := DecodeLibrary(data); !errors.Is(err, ErrInvalidLibrary) {
		t.Fatalf("err = %v, want ErrInvalidLibrary", err)
	}

	if _, err := DecodeLibrary(data[:10]); !errors.Is(err, ErrInvalidLibrary) {
		t.Fatalf("truncated: err = %v, want ErrInvalidLibrary", err)
	}
}

func TestDecodeF16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		h    uint16
		want float64
	}{
		{0x0000, 0},
		{0x3C00, 1},
		{0xBC00, -1},
		{0x3800, 0.5},
		{0x7BFF, 65504},
		{0x0001, math.Ldexp(1, -24)},
		{0x0200, math.Ldexp(1, -15)},
	}

	for _, tt := range tests {
		if got := float64(decodeF16(tt.h)); got != tt.want {
			t.Errorf("decodeF16(%#04x) = %g, want %g", tt.h, got, tt.want)
		}
	}

	if !math.IsInf(float64(decodeF16(0x7C00)), 1) {
		t.Error("0x7C00 should be +Inf")
	}
}

func TestResampleBuffer(t *testing.T) {
	t.Parallel()

	buf := &audiograph.Buffer{SampleRate: 24000, Channels: [][]float64{make([]float64, 240), make([]float64, 240)}}

	same, err := Resample(buf, 24000)
	if err != nil || same != buf {
		t.Fatalf("same rate: %v, %v", same, err)
	}

	up, err := Resample(buf, 48000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}

	if up.SampleRate != 48000 || len(up.Channels) != 2 {
		t.Fatalf("got %v Hz, %d channels", up.SampleRate, len(up.Channels))
	}

	if n := up.Len(); n < 479 || n > 481 {
		t.Fatalf("Len = %d, want ~480", n)
	}

	if _, err := Resample(buf, -1); err == nil {
		t.Fatal("expected error for negative rate")
	}
}
