// Package loop serializes work onto a single goroutine.
//
// The kernel and its Lua runtime are not goroutine-safe. The host runs one
// Loop and routes every kernel call through it, whether the request comes
// from the CLI, the mods directory watcher or a signal handler.
//
// Usage:
//
//	l := loop.New(64)
//	go l.Run(ctx)
//	defer l.Close()
//
//	err := l.Execute(ctx, func() error {
//	    _, err := k.Load(ctx, src, false)
//	    return err
//	})
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrClosed is returned when using a closed loop.
	ErrClosed = errors.New("loop is closed")

	// ErrQueueFull is returned by Post when the queue has no room.
	ErrQueueFull = errors.New("loop queue full")
)

const defaultQueueSize = 100

// call is one queued unit of work.
type call struct {
	fn     func() error
	result chan error
}

// Loop runs queued functions one at a time on the goroutine that calls Run.
type Loop struct {
	queue  chan *call
	closed atomic.Bool
	done   chan struct{}

	closeOnce sync.Once
}

// New creates a loop. queueSize bounds how many calls can wait; values
// below one use the default.
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Loop{
		queue: make(chan *call, queueSize),
		done:  make(chan struct{}),
	}
}

// Run processes calls until ctx is canceled or Close is called. Calls still
// queued at that point fail with the context error or ErrClosed.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-l.done:
			l.drain(ErrClosed)
			return
		default:
		}

		select {
		case <-ctx.Done():
			l.drain(ctx.Err())
			return
		case <-l.done:
			l.drain(ErrClosed)
			return
		case c := <-l.queue:
			c.result <- run(c.fn)
			close(c.result)
		}
	}
}

// run calls fn, converting a panic into an error.
func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loop: panic: %v", r)
		}
	}()
	return fn()
}

func (l *Loop) drain(err error) {
	for {
		select {
		case c := <-l.queue:
			c.result <- err
			close(c.result)
		default:
			return
		}
	}
}

// Execute queues fn and waits for it to finish. If ctx is canceled while
// waiting, Execute returns the context error; fn may still run.
func (l *Loop) Execute(ctx context.Context, fn func() error) error {
	if l.closed.Load() {
		return ErrClosed
	}

	c := &call{fn: fn, result: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	case l.queue <- c:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err, ok := <-c.result:
		if !ok {
			return ErrClosed
		}
		return err
	}
}

// Post queues fn without waiting. onErr, if non-nil, receives fn's error
// on the loop goroutine.
func (l *Loop) Post(fn func() error, onErr func(error)) error {
	if l.closed.Load() {
		return ErrClosed
	}

	wrapped := func() error {
		err := fn()
		if err != nil && onErr != nil {
			onErr(err)
		}
		return err
	}
	c := &call{fn: wrapped, result: make(chan error, 1)}

	select {
	case <-l.done:
		return ErrClosed
	case l.queue <- c:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the loop. It is safe to call more than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// IsClosed reports whether Close has been called.
func (l *Loop) IsClosed() bool {
	return l.closed.Load()
}
