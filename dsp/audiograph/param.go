package audiograph

import "math"

// Param is a node parameter whose rendered value glides toward the last
// value set.
type Param struct {
	ctx *Context

	target  float64
	current float64
	started bool
}

func newParam(ctx *Context, value float64) *Param {
	return &Param{ctx: ctx, target: value, current: value}
}

// Value returns the most recently set value.
func (p *Param) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()

	return p.target
}

// SetValue sets a new target. Non-finite values are ignored.
func (p *Param) SetValue(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}

	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()

	p.target = v
	if !p.started || p.ctx.smoothing == 0 {
		p.current = v
	}
}

// fill writes the per-frame values for one quantum.
func (p *Param) fill(buf []float64) {
	p.started = true

	if p.current == p.target || p.ctx.smoothing == 0 {
		p.current = p.target
		for i := range buf {
			buf[i] = p.target
		}

		return
	}

	coeff := math.Exp(-1 / (p.ctx.smoothing * p.ctx.sampleRate))
	for i := range buf {
		p.current = p.target + coeff*(p.current-p.target)
		buf[i] = p.current
	}

	if math.Abs(p.current-p.target) < 1e-9 {
		p.current = p.target
	}
}
