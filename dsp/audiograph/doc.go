// Package audiograph is a small pull-based audio node graph in the spirit of
// the browser's Web Audio API.
//
// A [Context] owns every node it creates. Nodes are wired with
// [Node.Connect] and unwired with [Node.Disconnect]; several inputs into one
// node are summed. [Context.Render] pulls the [DestinationNode] one render
// quantum at a time, and each node computes its output at most once per
// quantum.
//
// Node kinds:
//
//   - [GainNode]: multiplies by a smoothed [Param]
//   - [DelayNode]: fractional delay line with a bounded maximum delay
//   - [WaveShaperNode]: table-driven non-linear transfer curve
//   - [ConvolverNode]: partitioned FFT convolution with an impulse [Buffer]
//   - [SourceNode]: reads samples from a [Stream], e.g. a capture device
//   - [DestinationNode]: the graph's sink, see [Context.Destination]
//
// Graph edits and rendering are serialised by the context, so a control
// goroutine may retune or rewire nodes while an audio callback renders.
package audiograph
