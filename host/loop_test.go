// host/loop_test.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFlightLoopScheduling(t *testing.T) {
	l := NewLoop(time.Millisecond, nil)

	var calls []int
	l.RegisterFlightLoop(func(sinceLastCall, sinceLastLoop float32, counter int) float32 {
		calls = append(calls, counter)
		return 1
	}, 1)

	start := time.Now()
	l.Step(start)
	if len(calls) != 0 {
		t.Fatalf("callback ran before its interval elapsed")
	}

	l.Step(start.Add(1100 * time.Millisecond))
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}

	l.Step(start.Add(1500 * time.Millisecond))
	if len(calls) != 1 {
		t.Fatalf("callback ran early; calls = %v", calls)
	}

	l.Step(start.Add(2200 * time.Millisecond))
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0] >= calls[1] {
		t.Errorf("counter did not increase: %v", calls)
	}
}

func TestFlightLoopUnregisters(t *testing.T) {
	l := NewLoop(time.Millisecond, nil)

	n := 0
	l.RegisterFlightLoop(func(float32, float32, int) float32 {
		n++
		return 0
	}, 0)

	now := time.Now().Add(time.Second)
	l.Step(now)
	l.Step(now.Add(time.Second))
	if n != 1 {
		t.Errorf("callback ran %d times", n)
	}
	if l.Active() != 0 {
		t.Errorf("%d flight loops still registered", l.Active())
	}
}

func TestPostRunsOnNextStep(t *testing.T) {
	l := NewLoop(time.Millisecond, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Post(func() {
				mu.Lock()
				ran++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	if ran != 0 {
		t.Fatalf("posted functions ran before Step")
	}
	l.Step(time.Now())
	if ran != 10 {
		t.Errorf("%d of 10 posted functions ran", ran)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	l := NewLoop(time.Millisecond, nil)

	called := make(chan struct{}, 1)
	l.RegisterFlightLoop(func(float32, float32, int) float32 {
		select {
		case called <- struct{}{}:
		default:
		}
		return 0.001
	}, 0.001)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- l.Run(ctx) }()

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("flight loop never called")
	}
	cancel()

	select {
	case err := <-errs:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
