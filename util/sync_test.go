// util/sync_test.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/jct32/flightstream/log"
)

func TestLoggingMutexExclusion(t *testing.T) {
	var mu LoggingMutex
	mu.Name = "test"

	counter := 0
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				mu.Lock(nil)
				counter++
				mu.Unlock(nil)
			}
		}()
	}
	wg.Wait()

	if counter != 800 {
		t.Errorf("counter = %d, expected 800", counter)
	}

	heldMutexesMutex.Lock()
	_, held := heldMutexes[&mu]
	heldMutexesMutex.Unlock()
	if held {
		t.Errorf("mutex still registered as held after final unlock")
	}
}

// Debug logging describes the mutex, including when it was acquired, from
// goroutines that are still waiting for it. Run with -race.
func TestLoggingMutexDebugLoggingWhileContended(t *testing.T) {
	lg := log.NewWithHandler(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var mu LoggingMutex
	mu.Name = "contended"

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				mu.Lock(lg)
				mu.Unlock(lg)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 200 {
			lg.Debug("observing", slog.Any("mutex", &mu))
		}
	}()
	wg.Wait()

	v := mu.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("LogValue kind = %s", v.Kind())
	}
	for _, a := range v.Group() {
		if a.Key == "acq" && !a.Value.Time().IsZero() {
			t.Errorf("acquisition time still set after final unlock: %s", a.Value.Time())
		}
	}
}
