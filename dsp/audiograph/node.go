package audiograph

import "fmt"

// Node is one vertex of the audio graph.
type Node interface {
	// Connect routes this node's output into dst's input. Connecting the
	// same pair twice is a no-op.
	Connect(dst Node) error
	// Disconnect removes every outgoing connection.
	Disconnect()
	// Outputs returns the nodes this node currently feeds.
	Outputs() []Node
	// Inputs returns the nodes currently feeding this node.
	Inputs() []Node
	// Context returns the owning context.
	Context() *Context
	// Kind names the node type, e.g. "gain".
	Kind() string

	core() *nodeCore
}

// processor renders one quantum from the summed input into out.
type processor interface {
	process(in, out []float64)
}

type nodeCore struct {
	ctx      *Context
	id       int
	kind     string
	hasInput bool

	proc processor
	self Node

	inputs  []*nodeCore
	outputs []*nodeCore

	in  []float64
	buf []float64

	renderedAt uint64
	visiting   bool
}

func (n *nodeCore) core() *nodeCore {
	return n
}

// Context returns the owning context.
func (n *nodeCore) Context() *Context {
	return n.ctx
}

// Kind names the node type.
func (n *nodeCore) Kind() string {
	return n.kind
}

// String identifies the node for logs and test failures.
func (n *nodeCore) String() string {
	return fmt.Sprintf("%s#%d", n.kind, n.id)
}

// Connect routes this node's output into dst.
func (n *nodeCore) Connect(dst Node) error {
	if dst == nil {
		return fmt.Errorf("%w: nil destination", ErrNoInput)
	}

	d := dst.core()
	if d.ctx != n.ctx {
		return ErrForeignNode
	}

	if !d.hasInput {
		return fmt.Errorf("%w: %s", ErrNoInput, d)
	}

	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	for _, out := range n.outputs {
		if out == d {
			return nil
		}
	}

	if d == n || d.reaches(n) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, n, d)
	}

	n.outputs = append(n.outputs, d)
	d.inputs = append(d.inputs, n)

	return nil
}

// Disconnect removes every outgoing connection.
func (n *nodeCore) Disconnect() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	n.disconnectLocked()
}

func (n *nodeCore) disconnectLocked() {
	for _, out := range n.outputs {
		out.inputs = removeCore(out.inputs, n)
	}

	n.outputs = nil
}

// Outputs returns the nodes this node currently feeds.
func (n *nodeCore) Outputs() []Node {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	return selves(n.outputs)
}

// Inputs returns the nodes currently feeding this node.
func (n *nodeCore) Inputs() []Node {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	return selves(n.inputs)
}

// reaches reports whether target is downstream of n.
func (n *nodeCore) reaches(target *nodeCore) bool {
	for _, out := range n.outputs {
		if out == target || out.reaches(target) {
			return true
		}
	}

	return false
}

// pull renders the node for quantum q and returns its output buffer.
func (n *nodeCore) pull(q uint64) []float64 {
	if n.renderedAt == q || n.visiting {
		return n.buf
	}

	n.visiting = true

	for i := range n.in {
		n.in[i] = 0
	}

	for _, src := range n.inputs {
		out := src.pull(q)
		for i, v := range out {
			n.in[i] += v
		}
	}

	n.proc.process(n.in, n.buf)

	n.visiting = false
	n.renderedAt = q

	return n.buf
}

func removeCore(list []*nodeCore, target *nodeCore) []*nodeCore {
	for i, n := range list {
		if n == target {
			return append(list[:i], list[i+1:]...)
		}
	}

	return list
}

func selves(list []*nodeCore) []Node {
	out := make([]Node, len(list))
	for i, n := range list {
		out[i] = n.self
	}

	return out
}
