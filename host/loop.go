// host/loop.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package host stands in for the flight simulator when the plugin runs
// outside of it: it owns the "main thread", schedules flight loop
// callbacks, and writes loaded flight plans where the simulator's FMS
// would find them.
package host

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jct32/flightstream/log"
)

// FlightLoopFunc matches the host's flight loop callback. It returns the
// number of seconds until it should be called again; zero or a negative
// value unregisters it.
type FlightLoopFunc func(sinceLastCall, sinceLastLoop float32, counter int) float32

type flightLoop struct {
	cb       FlightLoopFunc
	next     time.Time
	lastCall time.Time
}

// Loop runs everything on a single goroutine. Other goroutines hand it
// work with Post.
type Loop struct {
	tick time.Duration
	lg   *log.Logger

	mu     sync.Mutex
	posted []func()

	loops    []*flightLoop
	lastStep time.Time
	counter  int
}

func NewLoop(tick time.Duration, lg *log.Logger) *Loop {
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	return &Loop{tick: tick, lg: lg}
}

// RegisterFlightLoop schedules cb to be called interval seconds after the
// next step. It must be called from the loop's goroutine or before Run.
func (l *Loop) RegisterFlightLoop(cb FlightLoopFunc, interval float32) {
	now := time.Now()
	l.loops = append(l.loops, &flightLoop{
		cb:       cb,
		next:     now.Add(seconds(interval)),
		lastCall: now,
	})
}

// Post queues fn to run on the loop's goroutine at its next step. It may
// be called from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.posted = append(l.posted, fn)
}

// Active returns the number of registered flight loop callbacks.
func (l *Loop) Active() int {
	return len(l.loops)
}

// Step runs posted functions and then any flight loop callbacks that are
// due at now.
func (l *Loop) Step(now time.Time) {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()

	for _, fn := range posted {
		fn()
	}

	if l.lastStep.IsZero() {
		l.lastStep = now
	}
	sinceLastLoop := float32(now.Sub(l.lastStep).Seconds())
	l.lastStep = now
	l.counter++

	kept := l.loops[:0]
	for _, fl := range l.loops {
		if now.Before(fl.next) {
			kept = append(kept, fl)
			continue
		}

		interval := fl.cb(float32(now.Sub(fl.lastCall).Seconds()), sinceLastLoop, l.counter)
		fl.lastCall = now
		if interval <= 0 {
			l.lg.Debug("flight loop unregistered", slog.Float64("interval", float64(interval)))
			continue
		}
		fl.next = now.Add(seconds(interval))
		kept = append(kept, fl)
	}
	l.loops = kept
}

// Run steps the loop every tick until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	l.lg.Info("Host loop running", slog.Duration("tick", l.tick))
	for {
		select {
		case <-ctx.Done():
			l.lg.Info("Host loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			l.Step(now)
		}
	}
}

func seconds(s float32) time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}
