package audiograph

import "testing"

const testSampleRate = 1000.0

// newTestContext returns a context with a small quantum and immediate
// parameter changes.
func newTestContext(t *testing.T) *Context {
	t.Helper()

	ctx, err := NewContext(testSampleRate, WithRenderQuantum(8), WithSmoothingTime(0))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	return ctx
}

// sliceStream serves a fixed slice once, then io.EOF.
type sliceStream struct {
	data []float64
	pos  int
}

func (s *sliceStream) Read(dst []float64) (int, error) {
	if s.pos >= len(s.data) {
		return 0, errEOF
	}

	n := copy(dst, s.data[s.pos:])
	s.pos += n

	return n, nil
}

// constStream yields the same value forever.
type constStream float64

func (c constStream) Read(dst []float64) (int, error) {
	for i := range dst {
		dst[i] = float64(c)
	}

	return len(dst), nil
}
