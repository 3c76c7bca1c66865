// Package background runs fire-and-forget work off the request path.
package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultWorkers     = 4
	DefaultQueueSize   = 64
	DefaultTaskTimeout = 30 * time.Second
)

// Options configures a Dispatcher. Zero values take the defaults.
type Options struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

// Func is a unit of background work. The context carries the task timeout
// and is never tied to the request that dispatched it.
type Func func(ctx context.Context) error

type task struct {
	name  string
	fn    Func
	attrs []any
}

// Dispatcher is a bounded worker pool with an overflow path. Failures and
// panics are reported to its logger and nowhere else.
type Dispatcher struct {
	queue   chan task
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool

	workers  sync.WaitGroup
	overflow sync.WaitGroup
}

// New starts the workers and returns the Dispatcher.
func New(opts Options, logger *slog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = DefaultTaskTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		queue:   make(chan task, opts.QueueSize),
		timeout: opts.TaskTimeout,
		logger:  logger.With("component", "background"),
	}
	d.workers.Add(opts.Workers)
	for range opts.Workers {
		go d.work()
	}
	return d
}

// Dispatch schedules fn without blocking. attrs are slog key/value pairs
// attached to any failure log. It reports false when the dispatcher is shut
// down and the task was dropped.
func (d *Dispatcher) Dispatch(name string, fn Func, attrs ...any) bool {
	t := task{name: name, fn: fn, attrs: attrs}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("background task dropped after shutdown", append([]any{"task", name}, attrs...)...)
		return false
	}

	select {
	case d.queue <- t:
	default:
		// queue full: run on its own goroutine so the caller never waits
		d.overflow.Add(1)
		go func() {
			defer d.overflow.Done()
			d.run(t)
		}()
	}
	return true
}

// Shutdown stops accepting work and waits for queued and running tasks, or
// until ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		d.overflow.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background shutdown: %w", ctx.Err())
	}
}

func (d *Dispatcher) work() {
	defer d.workers.Done()
	for t := range d.queue {
		d.run(t)
	}
}

func (d *Dispatcher) run(t task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("background task panicked",
				append([]any{"task", t.name, "panic", fmt.Sprint(r)}, t.attrs...)...)
		}
	}()

	err := t.fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, context.DeadlineExceeded) {
			level = slog.LevelWarn
		}
		d.logger.Log(ctx, level, "background task failed",
			append([]any{"task", t.name, "duration_ms", elapsed.Milliseconds(), "error", err}, t.attrs...)...)
		return
	}
	d.logger.Debug("background task done",
		append([]any{"task", t.name, "duration_ms", elapsed.Milliseconds()}, t.attrs...)...)
}
