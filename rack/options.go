package rack

import (
	"log/slog"

	"github.com/cwbudde/algo-rack/rack/impulse"
)

// Option configures a Rack.
type Option func(*Rack)

// WithExecutor sets where asynchronous completions run. Defaults to a
// Queue drained by Rack.Dispatch, or Immediate on js/wasm.
func WithExecutor(e Executor) Option {
	return func(r *Rack) { r.exec = e }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Rack) { r.log = l }
}

// WithSurface sets the drawing surface. Without one, renders only count.
func WithSurface(s Surface) Option {
	return func(r *Rack) { r.surface = s }
}

// WithCaptureDevice sets the device the Input unit acquires.
func WithCaptureDevice(d CaptureDevice) Option {
	return func(r *Rack) { r.capture = d }
}

// WithImpulseLoader sets how reverb impulses are fetched. Defaults to an
// impulse.FetchLoader.
func WithImpulseLoader(l impulse.Loader) Option {
	return func(r *Rack) { r.loader = l }
}

// WithImpulseCatalog sets the reverb impulse catalog.
func WithImpulseCatalog(c impulse.Catalog) Option {
	return func(r *Rack) { r.catalog = c }
}

// WithRegistry sets the registry used by AddKind. Defaults to
// DefaultRegistry().
func WithRegistry(reg *Registry) Option {
	return func(r *Rack) { r.registry = reg }
}

// WithErrorHandler receives every asynchronous error after it is logged.
func WithErrorHandler(fn func(error)) Option {
	return func(r *Rack) { r.onError = fn }
}
