// util/sync.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// Copyright(c) 2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"log/slog"
	gomath "math"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/jct32/flightstream/log"

	"github.com/shirou/gopsutil/cpu"
)

///////////////////////////////////////////////////////////////////////////
// LoggingMutex

var heldMutexesMutex sync.Mutex
var heldMutexes map[*LoggingMutex]interface{} = make(map[*LoggingMutex]interface{})

// LoggingMutex is a sync.Mutex that logs acquisition and release at debug
// level and complains loudly if it is held or waited on for too long. The
// zero value is an unlocked mutex; Name is only used for logging.
type LoggingMutex struct {
	sync.Mutex
	Name string

	// stateMu guards acq and acqStack, which LogValue may read from a
	// goroutine that doesn't hold the mutex. Nothing logs while holding it.
	stateMu  sync.Mutex
	acq      time.Time
	acqStack []log.StackFrame
}

func (l *LoggingMutex) Lock(lg *log.Logger) {
	tryTime := time.Now()
	lg.Debug("attempting to acquire mutex", slog.Any("mutex", l))

	if !l.Mutex.TryLock() {
		// Lock with timeout.
		locked := make(chan struct{}, 1)

		go func() {
			l.Mutex.Lock()
			locked <- struct{}{}
		}()

	wait:
		for {
			select {
			case <-locked:
				break wait

			case <-time.After(10 * time.Second):
				if DebuggerIsRunning() {
					continue
				}
				heldMutexesMutex.Lock()
				lg.Error("unable to acquire mutex after 10 seconds", slog.Any("mutex", l),
					slog.Int("held_mutexes", len(heldMutexes)))
				heldMutexesMutex.Unlock()

				var m runtime.MemStats
				runtime.ReadMemStats(&m)
				usage, _ := cpu.Percent(time.Second, false)
				cpuPct := 0
				if len(usage) > 0 {
					cpuPct = int(gomath.Round(usage[0]))
				}

				lg.Errorf("CPU: %d%% alloc: %dMB total alloc: %dMB sys mem: %dMB goroutines: %d",
					cpuPct, m.Alloc/(1024*1024), m.TotalAlloc/(1024*1024), m.Sys/(1024*1024),
					runtime.NumGoroutine())
			}
		}
	}

	heldMutexesMutex.Lock()
	heldMutexes[l] = nil
	heldMutexesMutex.Unlock()

	acq := time.Now()
	l.stateMu.Lock()
	l.acq = acq
	l.acqStack = log.Callstack(l.acqStack)
	l.stateMu.Unlock()
	w := acq.Sub(tryTime)
	lg.Debug("acquired mutex", slog.Any("mutex", l), slog.Duration("wait", w))
	if w > time.Second {
		lg.Warn("long wait to acquire mutex", slog.Any("mutex", l), slog.Duration("wait", w))
	}
}

func (l *LoggingMutex) Unlock(lg *log.Logger) {
	heldMutexesMutex.Lock()
	// Though it may seem like we could unlock this sooner, holding it
	// until this function returns ensures that if we end up doing logging
	// in the code below, other mutexes aren't unlocked while we're trying
	// to log the held ones.
	defer heldMutexesMutex.Unlock()

	if _, ok := heldMutexes[l]; !ok {
		lg.Error("mutex not held", slog.Any("mutex", l))
	}
	delete(heldMutexes, l)

	l.stateMu.Lock()
	acq := l.acq
	l.stateMu.Unlock()
	if d := time.Since(acq); d > time.Second {
		lg.Warn("mutex held for over 1 second", slog.Any("mutex", l), slog.Duration("held", d))
	}

	l.stateMu.Lock()
	l.acq = time.Time{}
	l.acqStack = nil
	l.stateMu.Unlock()
	l.Mutex.Unlock()

	lg.Debug("released mutex", slog.Any("mutex", l))
}

func (l *LoggingMutex) LogValue() slog.Value {
	l.stateMu.Lock()
	acq := l.acq
	stack := slices.Clone(l.acqStack)
	l.stateMu.Unlock()

	return slog.GroupValue(
		slog.String("name", l.Name),
		slog.Time("acq", acq),
		slog.Duration("held", time.Since(acq)),
		slog.Any("acq_stack", stack))
}
