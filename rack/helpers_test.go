package rack

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
	"github.com/cwbudde/algo-rack/rack/impulse"
)

// queue is a manually drained executor. Tests wait for posts from
// background goroutines, then run them on the test goroutine.
type queue struct {
	mu     sync.Mutex
	fns    []func()
	posted chan struct{}
}

func newQueue() *queue {
	return &queue{posted: make(chan struct{}, 256)}
}

func (q *queue) Post(fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()

	q.posted <- struct{}{}
}

// wait blocks until n more posts have arrived.
func (q *queue) wait(t *testing.T, n int) {
	t.Helper()

	for range n {
		select {
		case <-q.posted:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a posted completion")
		}
	}
}

// drain runs queued functions, including ones they post, until empty.
func (q *queue) drain() int {
	ran := 0

	for {
		q.mu.Lock()
		fns := q.fns
		q.fns = nil
		q.mu.Unlock()

		if len(fns) == 0 {
			return ran
		}

		for _, fn := range fns {
			fn()
			ran++
		}
	}
}

// settle waits for n posts and runs them.
func (q *queue) settle(t *testing.T, n int) {
	t.Helper()

	q.wait(t, n)
	q.drain()
}

type captureFunc func(ctx context.Context) (audiograph.Stream, error)

func (f captureFunc) Open(ctx context.Context) (audiograph.Stream, error) { return f(ctx) }

// constStream yields the same value forever.
type constStream float64

func (c constStream) Read(dst []float64) (int, error) {
	for i := range dst {
		dst[i] = float64(c)
	}

	return len(dst), nil
}

func grantWith(s audiograph.Stream) CaptureDevice {
	return captureFunc(func(context.Context) (audiograph.Stream, error) { return s, nil })
}

func denyWith(err error) CaptureDevice {
	return captureFunc(func(context.Context) (audiograph.Stream, error) { return nil, err })
}

type loadResult struct {
	buf *audiograph.Buffer
	err error
}

// gatedLoader blocks each locator until the test releases it.
type gatedLoader struct {
	gates map[string]chan loadResult
}

func newGatedLoader(locators ...string) *gatedLoader {
	g := &gatedLoader{gates: make(map[string]chan loadResult, len(locators))}
	for _, loc := range locators {
		g.gates[loc] = make(chan loadResult, 1)
	}

	return g
}

func (g *gatedLoader) Load(ctx context.Context, locator string) (*audiograph.Buffer, error) {
	select {
	case res := <-g.gates[locator]:
		return res.buf, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedLoader) succeed(locator string, samples ...float64) {
	g.gates[locator] <- loadResult{buf: &audiograph.Buffer{SampleRate: 1000, Channels: [][]float64{samples}}}
}

func (g *gatedLoader) fail(locator string, err error) {
	g.gates[locator] <- loadResult{err: err}
}

// errorLog collects errors passed to the rack's error handler.
type errorLog struct {
	errs []error
}

func (e *errorLog) handle(err error) { e.errs = append(e.errs, err) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAudio(t *testing.T) *audiograph.Context {
	t.Helper()

	audio, err := audiograph.NewContext(1000, audiograph.WithRenderQuantum(8), audiograph.WithSmoothingTime(0))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	return audio
}

// newTestRack builds a rack on a fresh context with a queue executor and a
// capture device that grants a constant 1.0 stream. Capture completion is
// still pending on return.
func newTestRack(t *testing.T, opts ...Option) (*Rack, *queue) {
	t.Helper()

	q := newQueue()
	base := []Option{
		WithExecutor(q),
		WithLogger(discardLogger()),
		WithCaptureDevice(grantWith(constStream(1))),
	}

	r, err := New(newTestAudio(t), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Cleanup(r.Close)

	return r, q
}

// readyRack is newTestRack with capture already granted.
func readyRack(t *testing.T, opts ...Option) (*Rack, *queue) {
	t.Helper()

	r, q := newTestRack(t, opts...)
	q.settle(t, 1)

	if !r.Ready() {
		t.Fatal("rack not ready after capture grant")
	}

	return r, q
}

func mustCatalog(t *testing.T, names ...string) impulse.Catalog {
	t.Helper()

	entries := make([]impulse.Entry, len(names))
	for i, n := range names {
		entries[i] = impulse.Entry{Name: n, Locator: "mem://" + n}
	}

	cat, err := impulse.NewCatalog(entries...)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	return cat
}

func kinds(r *Rack) []string {
	out := make([]string, 0, r.Len())
	for _, u := range r.Units() {
		out = append(out, u.Kind())
	}

	return out
}

func requireChainEnds(t *testing.T, r *Rack) {
	t.Helper()

	units := r.Units()
	if units[0].Kind() != KindInput {
		t.Fatalf("first unit is %s, want input", units[0].Kind())
	}

	if units[len(units)-1].Kind() != KindOutput {
		t.Fatalf("last unit is %s, want output", units[len(units)-1].Kind())
	}
}

func renderFrames(r *Rack, n int) []float64 {
	out := make([]float64, n)
	r.Audio().Render(out)

	return out
}
