// plugin/download.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plugin

import (
	"context"
	"log/slog"

	"github.com/jct32/flightstream/simbrief"
)

// StartDownload kicks off a background download of the user's flight plan
// using the current username. It returns false, and does nothing else, if
// a download is already in flight.
func (p *Plugin) StartDownload() bool {
	username := p.identity.Get()

	started := p.downloads.TryBegin(func() ([]byte, error) {
		return p.fetcher.FetchFlightPlan(context.Background(), username)
	})
	if !started {
		p.lg.Info("Flight plan download already in progress")
		return false
	}

	p.lg.Info("Flight plan download started", slog.String("username", username))
	return true
}

// ReloadUsername rereads the username file. On failure the current
// username is left unchanged.
func (p *Plugin) ReloadUsername() error {
	username, err := p.usernameFile.Load()
	if err != nil {
		p.lg.Error("Unable to load username", slog.Any("error", err))
		return err
	}

	p.identity.Set(username)
	if username == "" {
		p.lg.Warn("Username file is empty", slog.String("path", p.usernameFile.Path))
	} else {
		p.lg.Info("Username set", slog.String("username", username))
	}
	return nil
}

// FlightLoop is the host's periodic callback. It delivers a finished
// download to the sink and returns the number of seconds until it should
// be called again.
func (p *Plugin) FlightLoop(sinceLastCall, sinceLastLoop float32, counter int) (next float32) {
	next = p.interval
	defer p.lg.CatchAndReportCrash()

	p.checkDownload()
	return
}

func (p *Plugin) checkDownload() {
	h := p.downloads.PollTakeIfFinished()
	if h == nil {
		return
	}

	lg := p.lg.With(slog.String("task", h.ID), slog.Duration("elapsed", h.Elapsed()))

	route, err := h.Join()
	if err != nil {
		if status, ok := simbrief.RemoteStatus(err); ok {
			lg.Warn("SimBrief did not return a flight plan", slog.String("status", status))
		} else {
			lg.Error("Flight plan download failed", slog.Any("error", err))
		}
		return
	}

	p.sink.LoadFMSFlightPlan(p.cfg.FlightLoop.FMSIndex, route)
	lg.Info("Loaded flight plan", slog.Int("bytes", len(route)), slog.Int("fms_index", p.cfg.FlightLoop.FMSIndex))
}
