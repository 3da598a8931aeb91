package capture

import (
	"context"
	"errors"
	"sync"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

// ErrDenied is reported by Ring.Open after Deny without a cause.
var ErrDenied = errors.New("capture: input access denied")

// Ring is a capture device fed by its host. The host calls Grant or Deny
// once it knows whether input is available and then pushes frames as they
// arrive. The stream plays silence on underrun and drops the oldest
// samples on overrun.
type Ring struct {
	mu      sync.Mutex
	buf     []float64
	head    int
	count   int
	decided chan struct{}
	once    sync.Once
	err     error
	dropped int
}

// NewRing returns a ring holding up to capacity samples.
func NewRing(capacity int) *Ring {
	return &Ring{
		buf:     make([]float64, max(1, capacity)),
		decided: make(chan struct{}),
	}
}

// Grant unblocks Open with a stream.
func (r *Ring) Grant() {
	r.once.Do(func() { close(r.decided) })
}

// Deny makes Open fail with err, or ErrDenied when err is nil. It has no
// effect after Grant.
func (r *Ring) Deny(err error) {
	if err == nil {
		err = ErrDenied
	}

	r.once.Do(func() {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		close(r.decided)
	})
}

// Open waits for Grant or Deny.
func (r *Ring) Open(ctx context.Context) (audiograph.Stream, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.decided:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}

	return ringStream{r}, nil
}

// Push appends samples, overwriting the oldest ones when full.
func (r *Ring) Push(samples []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := len(r.buf)

	for _, v := range samples {
		tail := (r.head + r.count) % size
		r.buf[tail] = v

		if r.count == size {
			r.head = (r.head + 1) % size
			r.dropped++
		} else {
			r.count++
		}
	}
}

// Buffered returns the number of samples waiting to be read.
func (r *Ring) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.count
}

// Dropped returns how many samples were lost to overruns.
func (r *Ring) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.dropped
}

type ringStream struct{ r *Ring }

// Read always fills dst; missing samples are zero.
func (s ringStream) Read(dst []float64) (int, error) {
	r := s.r

	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(len(dst), r.count)
	for i := range n {
		dst[i] = r.buf[(r.head+i)%len(r.buf)]
	}

	r.head = (r.head + n) % len(r.buf)
	r.count -= n

	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}

	return len(dst), nil
}
