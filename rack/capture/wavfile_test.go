package capture

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/rack/impulse"
)

func writeWAV(t *testing.T, rate float64, samples []float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "riff.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	buf := &audiograph.Buffer{SampleRate: rate, Channels: [][]float64{samples}}
	if err := impulse.EncodeWAV(f, buf, 16); err != nil {
		f.Close()
		t.Fatalf("EncodeWAV: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	return path
}

func TestWAVFileLoops(t *testing.T) {
	t.Parallel()

	path := writeWAV(t, 1000, []float64{0.5, -0.5, 0.25})

	s, err := WAVFile{Path: path}.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	dst := make([]float64, 7)

	n, err := s.Read(dst)
	if err != nil || n != 7 {
		t.Fatalf("Read = %d, %v", n, err)
	}

	want := []float64{0.5, -0.5, 0.25, 0.5, -0.5, 0.25, 0.5}
	for i := range want {
		if d := dst[i] - want[i]; d > 1e-4 || d < -1e-4 {
			t.Fatalf("sample %d = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestWAVFileOnce(t *testing.T) {
	t.Parallel()

	path := writeWAV(t, 1000, []float64{0.1, 0.2})

	s, err := WAVFile{Path: path, Once: true}.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	n, err := s.Read(make([]float64, 5))
	if n != 2 || !errors.Is(err, io.EOF) {
		t.Fatalf("Read = %d, %v; want 2, EOF", n, err)
	}
}

func TestWAVFileResamples(t *testing.T) {
	t.Parallel()

	samples := make([]float64, 200)
	for i := range samples {
		samples[i] = 0.25
	}

	data, err := os.ReadFile(writeWAV(t, 1000, samples))
	if err != nil {
		t.Fatal(err)
	}

	fsys := fstest.MapFS{"in/riff.wav": &fstest.MapFile{Data: data}}

	s, err := WAVFile{Path: "in/riff.wav", FS: fsys, SampleRate: 2000, Once: true}.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	n, err := s.Read(make([]float64, 1000))
	if n != 400 || !errors.Is(err, io.EOF) {
		t.Fatalf("Read = %d, %v; want 400 samples at the doubled rate", n, err)
	}
}

func TestWAVFileErrors(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"junk.wav": &fstest.MapFile{Data: []byte("not audio")}}

	if _, err := (WAVFile{Path: "missing.wav", FS: fsys}).Open(context.Background()); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file error = %v", err)
	}

	if _, err := (WAVFile{Path: "junk.wav", FS: fsys}).Open(context.Background()); !errors.Is(err, impulse.ErrInvalidWAV) {
		t.Fatalf("junk file error = %v", err)
	}
}
