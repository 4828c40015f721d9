// task/task.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package task runs blocking work in the background on behalf of code
// that must not block, such as a host's per-frame callback. The caller
// polls for completion rather than waiting on it.
package task

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/jct32/flightstream/log"

	"github.com/google/uuid"
)

var (
	ErrPanicked      = errors.New("Task panicked")
	ErrAlreadyJoined = errors.New("Task result has already been collected")
)

// Handle refers to a unit of work running in its own goroutine. Its
// result may be collected exactly once, via Join.
type Handle[T any] struct {
	ID        string
	IssueTime time.Time

	done   chan struct{}
	result T
	err    error
	joined atomic.Bool
}

// Spawn starts work in a new goroutine and returns immediately. A panic
// in work is recovered and reported as an ErrPanicked error from Join.
func Spawn[T any](lg *log.Logger, work func() (T, error)) *Handle[T] {
	h := &Handle[T]{
		ID:        uuid.NewString(),
		IssueTime: time.Now(),
		done:      make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				lg.With(slog.String("task", h.ID)).ReportCrash(r, debug.Stack())
				h.err = fmt.Errorf("%w: %v", ErrPanicked, r)
			}
		}()

		h.result, h.err = work()
	}()

	return h
}

// Finished reports whether the work has completed; it never blocks.
func (h *Handle[T]) Finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the work completes.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Join waits for the work to complete and returns its result. Only the
// first call returns the result; subsequent calls return
// ErrAlreadyJoined.
func (h *Handle[T]) Join() (T, error) {
	<-h.done

	var zero T
	if !h.joined.CompareAndSwap(false, true) {
		return zero, ErrAlreadyJoined
	}

	result, err := h.result, h.err
	h.result = zero // hand ownership of the result to the caller
	return result, err
}

// Elapsed returns how long the task has been (or was) running.
func (h *Handle[T]) Elapsed() time.Duration {
	return time.Since(h.IssueTime)
}
