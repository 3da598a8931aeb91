//go:build !(js && wasm)

package rack

func defaultExecutor() Executor { return NewQueue() }
