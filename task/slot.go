// task/slot.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"log/slog"

	"github.com/jct32/flightstream/log"
	"github.com/jct32/flightstream/util"
)

// Slot holds at most one in-flight task. Starting work while the slot is
// occupied is refused, and the slot is emptied only when a poll finds the
// task finished and hands it back to the poller.
type Slot[T any] struct {
	mu     util.LoggingMutex
	handle *Handle[T]
	lg     *log.Logger
}

func NewSlot[T any](name string, lg *log.Logger) *Slot[T] {
	s := &Slot[T]{lg: lg}
	s.mu.Name = name
	return s
}

// TryBegin spawns work and stores its handle if the slot is empty. It
// returns false, without running work, if a task is already in flight.
func (s *Slot[T]) TryBegin(work func() (T, error)) bool {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if s.handle != nil {
		s.lg.Debug("slot occupied", slog.String("slot", s.mu.Name), slog.String("task", s.handle.ID),
			slog.Duration("elapsed", s.handle.Elapsed()))
		return false
	}

	s.handle = Spawn(s.lg, work)
	s.lg.Debug("task started", slog.String("slot", s.mu.Name), slog.String("task", s.handle.ID))
	return true
}

// PollTakeIfFinished returns the stored handle, emptying the slot, if its
// task has completed. Otherwise it returns nil and leaves the slot alone.
// It never blocks on the task.
func (s *Slot[T]) PollTakeIfFinished() *Handle[T] {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if s.handle == nil || !s.handle.Finished() {
		return nil
	}

	h := s.handle
	s.handle = nil
	return h
}

// Busy reports whether a task is currently held, finished or not.
func (s *Slot[T]) Busy() bool {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return s.handle != nil
}
