package audiograph

import (
	"errors"
	"fmt"
	"sync"
)

const (
	// DefaultRenderQuantum is the number of frames rendered per graph pull.
	DefaultRenderQuantum = 128

	defaultSmoothingTime = 0.005
)

// Errors returned by graph operations.
var (
	ErrForeignNode = errors.New("audiograph: node belongs to another context")
	ErrNoInput     = errors.New("audiograph: node has no input")
	ErrCycle       = errors.New("audiograph: connection would create a cycle")
)

// Option configures a Context.
type Option func(*config) error

type config struct {
	quantum   int
	smoothing float64
}

// WithRenderQuantum sets the render quantum in frames. It must be a power
// of two.
func WithRenderQuantum(frames int) Option {
	return func(c *config) error {
		if frames <= 0 || frames&(frames-1) != 0 {
			return fmt.Errorf("audiograph: render quantum must be a power of two: %d", frames)
		}

		c.quantum = frames

		return nil
	}
}

// WithSmoothingTime sets the time constant in seconds used to glide
// parameters toward new values. Zero makes parameter changes immediate.
func WithSmoothingTime(seconds float64) Option {
	return func(c *config) error {
		if seconds < 0 {
			return fmt.Errorf("audiograph: smoothing time must be >= 0: %v", seconds)
		}

		c.smoothing = seconds

		return nil
	}
}

// Context owns a node graph and renders it.
type Context struct {
	mu sync.Mutex

	sampleRate float64
	quantum    int
	smoothing  float64

	nodes  []*nodeCore
	nextID int
	dest   *DestinationNode

	// quanta counts rendered quanta; nodes compare against it to render once.
	quanta uint64
	out    []float64
	outPos int
}

// NewContext creates a context rendering at sampleRate.
func NewContext(sampleRate float64, opts ...Option) (*Context, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audiograph: sample rate must be > 0: %v", sampleRate)
	}

	cfg := config{quantum: DefaultRenderQuantum, smoothing: defaultSmoothingTime}
	for _, opt := range opts {
		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	c := &Context{
		sampleRate: sampleRate,
		quantum:    cfg.quantum,
		smoothing:  cfg.smoothing,
	}
	c.outPos = c.quantum

	c.dest = &DestinationNode{}
	c.dest.nodeCore = c.register("destination", true, c.dest)

	return c, nil
}

// SampleRate returns the rendering sample rate in Hz.
func (c *Context) SampleRate() float64 {
	return c.sampleRate
}

// Quantum returns the render quantum in frames.
func (c *Context) Quantum() int {
	return c.quantum
}

// Destination returns the graph's sink.
func (c *Context) Destination() *DestinationNode {
	return c.dest
}

// Render fills dst with the next len(dst) frames pulled from the destination.
func (c *Context) Render(dst []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(dst) > 0 {
		if c.outPos >= c.quantum {
			c.quanta++
			c.out = c.dest.pull(c.quanta)
			c.outPos = 0
		}

		n := copy(dst, c.out[c.outPos:])
		c.outPos += n
		dst = dst[n:]
	}
}

// Edge is one directed connection between two nodes.
type Edge struct {
	From Node
	To   Node
}

// Connections returns every edge in the graph, ordered by source node
// creation and then by connection order.
func (c *Context) Connections() []Edge {
	c.mu.Lock()
	defer c.mu.Unlock()

	var edges []Edge

	for _, n := range c.nodes {
		for _, out := range n.outputs {
			edges = append(edges, Edge{From: n.self, To: out.self})
		}
	}

	return edges
}

// NodeCount returns the number of live nodes, the destination included.
func (c *Context) NodeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.nodes)
}

// Release disconnects nodes from everything upstream and downstream and
// drops them from the context. Released nodes must not be reused.
func (c *Context) Release(nodes ...Node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, node := range nodes {
		if node == nil {
			continue
		}

		n := node.core()
		if n.ctx != c || n == c.dest.nodeCore {
			continue
		}

		for _, in := range n.inputs {
			in.outputs = removeCore(in.outputs, n)
		}

		n.inputs = nil
		n.disconnectLocked()

		for i, live := range c.nodes {
			if live == n {
				c.nodes = append(c.nodes[:i], c.nodes[i+1:]...)
				break
			}
		}
	}
}

func (c *Context) register(kind string, hasInput bool, self processor) *nodeCore {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++

	n := &nodeCore{
		ctx:      c,
		id:       c.nextID,
		kind:     kind,
		hasInput: hasInput,
		proc:     self,
		self:     self.(Node),
		in:       make([]float64, c.quantum),
		buf:      make([]float64, c.quantum),
	}
	c.nodes = append(c.nodes, n)

	return n
}
