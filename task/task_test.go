// task/task_test.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jct32/flightstream/log"
)

func waitFinished[T any](t *testing.T, h *Handle[T]) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("task %s did not finish", h.ID)
	}
}

func TestSpawnRunsOnce(t *testing.T) {
	var calls atomic.Int32
	h := Spawn(nil, func() (string, error) {
		calls.Add(1)
		return "PLANDATA", nil
	})
	waitFinished(t, h)

	if !h.Finished() {
		t.Errorf("Finished false after Done closed")
	}
	v, err := h.Join()
	if err != nil || v != "PLANDATA" {
		t.Errorf("Join = %q, %v", v, err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("work ran %d times", n)
	}
	if h.ID == "" {
		t.Errorf("expected a task ID")
	}
}

func TestSpawnDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	h := Spawn(nil, func() (int, error) {
		<-release
		return 42, nil
	})

	if h.Finished() {
		t.Fatalf("task reported finished before its work completed")
	}
	close(release)
	waitFinished(t, h)

	if v, err := h.Join(); v != 42 || err != nil {
		t.Errorf("Join = %d, %v", v, err)
	}
}

func TestJoinConsumesResult(t *testing.T) {
	h := Spawn(nil, func() ([]byte, error) { return []byte("route"), nil })
	waitFinished(t, h)

	if v, err := h.Join(); err != nil || string(v) != "route" {
		t.Fatalf("first Join = %q, %v", v, err)
	}
	v, err := h.Join()
	if !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("second Join error = %v, expected ErrAlreadyJoined", err)
	}
	if v != nil {
		t.Errorf("second Join returned a result: %q", v)
	}
}

func TestJoinReturnsWorkError(t *testing.T) {
	werr := errors.New("no flight plan")
	h := Spawn(nil, func() (string, error) { return "", werr })
	if _, err := h.Join(); !errors.Is(err, werr) {
		t.Errorf("Join error = %v, expected %v", err, werr)
	}
}

func TestSpawnRecoversPanic(t *testing.T) {
	lg := log.NewWithHandler(slog.DiscardHandler)
	lg.LogDir = t.TempDir()

	h := Spawn(lg, func() (string, error) { panic("oh no") })
	waitFinished(t, h)

	_, err := h.Join()
	if !errors.Is(err, ErrPanicked) {
		t.Errorf("Join error = %v, expected ErrPanicked", err)
	}
}

func TestConcurrentJoinOnlyOneWins(t *testing.T) {
	h := Spawn(nil, func() (int, error) { return 7, nil })

	var wg sync.WaitGroup
	var wins atomic.Int32
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := h.Join(); err == nil && v == 7 {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if n := wins.Load(); n != 1 {
		t.Errorf("%d joins returned the result, expected exactly 1", n)
	}
}
