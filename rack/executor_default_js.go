//go:build js && wasm

package rack

// Goroutines share one thread in the browser, so completions can run
// where they are posted.
func defaultExecutor() Executor { return Immediate }
