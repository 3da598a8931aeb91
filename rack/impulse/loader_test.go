package impulse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

func testIR() *audiograph.Buffer {
	return &audiograph.Buffer{SampleRate: 8000, Channels: [][]float64{{1, 0.5, 0.25, 0}}}
}

func TestFetchLoaderHTTP(t *testing.T) {
	t.Parallel()

	wavData := encodeWAVBytes(t, testIR(), 16)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ir.wav":
			_, _ = w.Write(wavData)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := &FetchLoader{Client: srv.Client()}

	buf, err := loader.Load(context.Background(), srv.URL+"/ir.wav")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if buf.Len() != 4 {
		t.Fatalf("Len = %d, want 4", buf.Len())
	}

	_, err = loader.Load(context.Background(), srv.URL+"/missing.wav")
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}

	small := &FetchLoader{Client: srv.Client(), MaxBytes: 8}
	if _, err := small.Load(context.Background(), srv.URL+"/ir.wav"); !errors.Is(err, ErrFetch) {
		t.Fatalf("oversized: err = %v, want ErrFetch", err)
	}
}

func TestFetchLoaderFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"irs/room.wav": {Data: encodeWAVBytes(t, testIR(), 24)},
		"irs/lib.irlib": {Data: buildLibrary(
			libEntry{name: "A", rate: 8000, samples: [][]float64{{1}}},
			libEntry{name: "B", rate: 8000, samples: [][]float64{{0.5, 0.5}}},
		)},
		"irs/junk.bin": {Data: []byte("junk")},
	}

	loader := &FetchLoader{FS: fsys}
	ctx := context.Background()

	if _, err := loader.Load(ctx, "irs/room.wav"); err != nil {
		t.Fatalf("room: %v", err)
	}

	b, err := loader.Load(ctx, "irs/lib.irlib#B")
	if err != nil {
		t.Fatalf("lib#B: %v", err)
	}

	if b.Len() != 2 {
		t.Fatalf("lib#B Len = %d, want 2", b.Len())
	}

	if _, err := loader.Load(ctx, "irs/lib.irlib#C"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("lib#C: err = %v, want ErrNotFound", err)
	}

	if _, err := loader.Load(ctx, "irs/none.wav"); !errors.Is(err, ErrFetch) {
		t.Fatalf("missing: err = %v, want ErrFetch", err)
	}

	if _, err := loader.Load(ctx, "irs/junk.bin"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("junk: err = %v, want ErrUnknownFormat", err)
	}
}

func TestFetchLoaderCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := &FetchLoader{FS: fstest.MapFS{}}
	if _, err := loader.Load(ctx, "x.wav"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLoaderFunc(t *testing.T) {
	t.Parallel()

	var got string

	l := LoaderFunc(func(_ context.Context, loc string) (*audiograph.Buffer, error) {
		got = loc
		return testIR(), nil
	})

	if _, err := l.Load(context.Background(), "x"); err != nil || got != "x" {
		t.Fatalf("LoaderFunc: got %q, err %v", got, err)
	}
}
