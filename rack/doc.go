// Package rack implements a guitar-effects rack on top of an audiograph
// context.
//
// A Rack holds an ordered chain of units. The first unit is always the
// Input (capture) unit and the last is always the Output unit; effect units
// are inserted between them. Each unit owns a small audio subgraph built once
// at construction and retuned through its knobs. Whenever the chain changes
// or its readiness flips, the rack rewires every adjacent pair, connecting
// unit[i].Output() to unit[i+1].Input() only while the rack is ready.
//
// A Rack is not safe for concurrent use. All mutations are expected to run
// on one goroutine; asynchronous work (capture acquisition, impulse loads)
// hands its completions to the rack's Executor, which must deliver them on
// that same goroutine. By default completions wait in a Queue until the
// owner calls Rack.Dispatch (on js/wasm they run immediately). EventLoop is
// the usual choice for programs that own a long-running goroutine.
package rack
