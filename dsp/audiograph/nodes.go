package audiograph

import (
	"errors"
	"fmt"
	"io"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-rack/dsp/conv"
	"github.com/cwbudde/algo-rack/dsp/delay"
	"github.com/cwbudde/algo-rack/dsp/interp"
)

// GainNode scales its input by Gain.
type GainNode struct {
	*nodeCore

	Gain *Param

	gainBuf []float64
}

// NewGain creates a unity gain node.
func (c *Context) NewGain() *GainNode {
	g := &GainNode{
		Gain:    newParam(c, 1),
		gainBuf: make([]float64, c.quantum),
	}
	g.nodeCore = c.register("gain", true, g)

	return g
}

func (g *GainNode) process(in, out []float64) {
	g.Gain.fill(g.gainBuf)
	vecmath.MulBlock(out, in, g.gainBuf)
}

// DelayNode delays its input by DelayTime seconds.
type DelayNode struct {
	*nodeCore

	DelayTime *Param

	maxDelay float64
	line     *delay.Line
	timeBuf  []float64
}

// NewDelay creates a delay node able to delay by up to maxSeconds.
func (c *Context) NewDelay(maxSeconds float64) (*DelayNode, error) {
	line, err := delay.ForDuration(maxSeconds, c.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("audiograph: %w", err)
	}

	d := &DelayNode{
		DelayTime: newParam(c, 0),
		maxDelay:  maxSeconds,
		line:      line,
		timeBuf:   make([]float64, c.quantum),
	}
	d.nodeCore = c.register("delay", true, d)

	return d, nil
}

// MaxDelay returns the longest supported delay in seconds.
func (d *DelayNode) MaxDelay() float64 {
	return d.maxDelay
}

func (d *DelayNode) process(in, out []float64) {
	d.DelayTime.fill(d.timeBuf)

	sr := d.ctx.sampleRate
	for i, x := range in {
		d.line.Write(x)
		seconds := math.Min(math.Max(d.timeBuf[i], 0), d.maxDelay)
		out[i] = d.line.ReadFractional(seconds * sr)
	}
}

// WaveShaperNode maps each input sample through a transfer curve sampled
// uniformly over [-1, 1]. Without a curve the node passes its input through.
type WaveShaperNode struct {
	*nodeCore

	curve []float64
}

// NewWaveShaper creates a pass-through wave shaper.
func (c *Context) NewWaveShaper() *WaveShaperNode {
	w := &WaveShaperNode{}
	w.nodeCore = c.register("waveshaper", true, w)

	return w
}

// SetCurve installs a copy of curve. A nil or empty curve restores
// pass-through.
func (w *WaveShaperNode) SetCurve(curve []float64) {
	var cp []float64
	if len(curve) > 0 {
		cp = append([]float64(nil), curve...)
	}

	w.ctx.mu.Lock()
	defer w.ctx.mu.Unlock()

	w.curve = cp
}

// Curve returns a copy of the installed curve.
func (w *WaveShaperNode) Curve() []float64 {
	w.ctx.mu.Lock()
	defer w.ctx.mu.Unlock()

	return append([]float64(nil), w.curve...)
}

func (w *WaveShaperNode) process(in, out []float64) {
	if len(w.curve) == 0 {
		copy(out, in)
		return
	}

	for i, x := range in {
		out[i] = shape(w.curve, x)
	}
}

// shape evaluates the curve at x, clamping outside [-1, 1].
func shape(curve []float64, x float64) float64 {
	last := len(curve) - 1
	if last == 0 {
		return curve[0]
	}

	v := float64(last) * (x + 1) / 2
	if v <= 0 || math.IsNaN(v) {
		return curve[0]
	}

	if v >= float64(last) {
		return curve[last]
	}

	k := int(v)

	return interp.Linear2(v-float64(k), curve[k], curve[k+1])
}

// ConvolverNode convolves its input with the first channel of an impulse
// buffer. Without a buffer the node outputs silence.
type ConvolverNode struct {
	*nodeCore

	buffer *Buffer
	engine *conv.BlockConvolver
}

// NewConvolver creates a convolver without an impulse.
func (c *Context) NewConvolver() *ConvolverNode {
	cv := &ConvolverNode{}
	cv.nodeCore = c.register("convolver", true, cv)

	return cv
}

// SetBuffer installs the impulse response. A nil buffer silences the node.
func (cv *ConvolverNode) SetBuffer(buf *Buffer) error {
	var engine *conv.BlockConvolver

	if buf != nil {
		if buf.Len() == 0 {
			return fmt.Errorf("audiograph: convolver: %w", conv.ErrEmptyKernel)
		}

		var err error

		engine, err = conv.NewBlockConvolver(buf.Channels[0], cv.ctx.quantum)
		if err != nil {
			return fmt.Errorf("audiograph: convolver: %w", err)
		}
	}

	cv.ctx.mu.Lock()
	defer cv.ctx.mu.Unlock()

	cv.buffer = buf
	cv.engine = engine

	return nil
}

// Buffer returns the installed impulse, or nil.
func (cv *ConvolverNode) Buffer() *Buffer {
	cv.ctx.mu.Lock()
	defer cv.ctx.mu.Unlock()

	return cv.buffer
}

func (cv *ConvolverNode) process(in, out []float64) {
	if cv.engine == nil {
		for i := range out {
			out[i] = 0
		}

		return
	}

	err := cv.engine.ProcessBlock(out, in)
	if err != nil {
		for i := range out {
			out[i] = 0
		}
	}
}

// Stream supplies source samples. Read fills dst with up to len(dst)
// samples and must not block the render goroutine for long.
type Stream interface {
	Read(dst []float64) (int, error)
}

// SourceNode plays a Stream into the graph. It has no input.
type SourceNode struct {
	*nodeCore

	stream Stream
	err    error
}

// NewSource creates a source reading from s.
func (c *Context) NewSource(s Stream) *SourceNode {
	src := &SourceNode{stream: s}
	src.nodeCore = c.register("source", false, src)

	return src
}

// Err returns the error that ended the stream, or nil while it is live.
// io.EOF is reported as nil.
func (s *SourceNode) Err() error {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()

	if errors.Is(s.err, io.EOF) {
		return nil
	}

	return s.err
}

func (s *SourceNode) process(_, out []float64) {
	n := 0

	if s.stream != nil && s.err == nil {
		var err error

		n, err = s.stream.Read(out)
		if err != nil {
			s.err = err
		}
	}

	for i := n; i < len(out); i++ {
		out[i] = 0
	}
}

// DestinationNode is the sink rendered by Context.Render.
type DestinationNode struct {
	*nodeCore
}

func (d *DestinationNode) process(in, out []float64) {
	copy(out, in)
}

// Buffer is decoded, de-interleaved audio.
type Buffer struct {
	SampleRate float64
	Channels   [][]float64
}

// Len returns the number of frames in the first channel.
func (b *Buffer) Len() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}

	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}

	return float64(b.Len()) / b.SampleRate
}
