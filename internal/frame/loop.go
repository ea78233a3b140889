// Package frame provides the single goroutine that owns all session state.
package frame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrLoopClosed is returned by Do once the loop has stopped
var ErrLoopClosed = errors.New("frame loop closed")

const taskBufferSize = 1024

// Loop runs queued tasks one at a time on a single goroutine
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// New creates a loop. Call Run on its own goroutine to start it.
func New(logger *slog.Logger) *Loop {
	return &Loop{
		tasks:  make(chan func(), taskBufferSize),
		done:   make(chan struct{}),
		logger: logger.With(slog.String("component", "frame")),
	}
}

// Run executes tasks until Close is called
func (l *Loop) Run() {
	l.logger.Info("frame loop started")
	for {
		select {
		case task := <-l.tasks:
			l.run(task)
		case <-l.done:
			l.logger.Info("frame loop stopped", slog.Int("dropped_tasks", len(l.tasks)))
			return
		}
	}
}

func (l *Loop) run(task func()) {
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("frame task panicked",
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	task()
}

// RunOnNextFrame queues fn without blocking the caller. It is safe to call from
// inside a task.
func (l *Loop) RunOnNextFrame(fn func()) {
	select {
	case l.tasks <- fn:
		return
	case <-l.done:
		return
	default:
	}

	// Buffer full: hand off so the caller never stalls the loop
	l.logger.Warn("frame task buffer full")
	go func() {
		select {
		case l.tasks <- fn:
		case <-l.done:
		}
	}()
}

// Do runs fn on the loop and waits for it to finish. It must not be called from
// inside a task.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}

	result := make(chan error, 1)
	task := func() {
		defer func() {
			if err := recover(); err != nil {
				result <- fmt.Errorf("frame task panicked: %v", err)
				panic(err)
			}
		}()
		result <- fn()
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop. Pending tasks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}
