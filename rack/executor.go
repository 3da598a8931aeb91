package rack

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopStopped is returned by EventLoop.Do once Run has returned.
var ErrLoopStopped = errors.New("rack: event loop stopped")

// Executor runs completions of asynchronous work on the rack's goroutine.
type Executor interface {
	Post(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

// Post calls f(fn).
func (f ExecutorFunc) Post(fn func()) { f(fn) }

// Immediate runs fn on the posting goroutine. It is only correct where
// goroutines cannot run in parallel with the rack's owner, such as
// js/wasm, or where the caller serialises access itself. It is the
// default executor on js/wasm.
var Immediate Executor = ExecutorFunc(func(fn func()) { fn() })

// Queue holds posted functions until its owner drains them. It is the
// default executor outside js/wasm: completions wait for Rack.Dispatch on
// the goroutine that owns the rack.
type Queue struct {
	mu     sync.Mutex
	fns    []func()
	notify chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Post appends fn. It never blocks.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Notify receives a value after one or more posts.
func (q *Queue) Notify() <-chan struct{} { return q.notify }

// Len returns the number of waiting functions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.fns)
}

// Drain runs queued functions in post order on the calling goroutine,
// including ones they post, until the queue is empty. It returns how many
// ran.
func (q *Queue) Drain() int {
	ran := 0

	for {
		q.mu.Lock()
		fns := q.fns
		q.fns = nil
		q.mu.Unlock()

		if len(fns) == 0 {
			return ran
		}

		for _, fn := range fns {
			fn()
			ran++
		}
	}
}

// EventLoop is a channel-backed queue drained by Run. Posting never blocks
// the caller for longer than it takes to enqueue, and posts made after Run
// has returned are dropped.
type EventLoop struct {
	queue chan func()
	done  chan struct{}
	stop  sync.Once
}

// NewEventLoop creates a loop buffering up to backlog pending functions.
func NewEventLoop(backlog int) *EventLoop {
	if backlog < 1 {
		backlog = 1
	}

	return &EventLoop{
		queue: make(chan func(), backlog),
		done:  make(chan struct{}),
	}
}

// Post enqueues fn, or drops it once the loop has stopped.
func (l *EventLoop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Run executes queued functions until ctx is done. A loop runs once.
func (l *EventLoop) Run(ctx context.Context) error {
	defer l.stop.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Do runs fn on the loop and waits for it. Calling Do from inside the loop
// deadlocks.
func (l *EventLoop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})

	select {
	case l.queue <- func() { fn(); close(done) }:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
