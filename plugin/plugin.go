// plugin/plugin.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package plugin implements the flight simulator plugin: a menu with two
// items, one of which downloads the user's SimBrief flight plan in the
// background and loads it into the FMS from the host's flight loop.
//
// All exported methods other than those on Identity are expected to be
// called from the host's main thread.
package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jct32/flightstream/config"
	"github.com/jct32/flightstream/log"
	"github.com/jct32/flightstream/simbrief"
	"github.com/jct32/flightstream/task"
)

const (
	Name        = "flightstream"
	Signature   = "jct32.flightstream"
	Description = "A plugin for downloading a Simbrief flight plan to the X1000"
)

type Info struct {
	Name        string
	Signature   string
	Description string
}

// Sink receives downloaded flight plans. It is only ever called from
// Plugin.FlightLoop, never from a background goroutine.
type Sink interface {
	LoadFMSFlightPlan(index int, route []byte)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(index int, route []byte)

func (f SinkFunc) LoadFMSFlightPlan(index int, route []byte) { f(index, route) }

// Fetcher retrieves a user's flight plan; *simbrief.Client is the real
// implementation.
type Fetcher interface {
	FetchFlightPlan(ctx context.Context, username string) ([]byte, error)
}

type Plugin struct {
	cfg          *config.Config
	fetcher      Fetcher
	sink         Sink
	lg           *log.Logger
	identity     *Identity
	usernameFile config.UsernameFile
	downloads    *task.Slot[[]byte]
	interval     float32
}

type Option func(*Plugin)

// WithFetcher replaces the SimBrief client built from the configuration.
func WithFetcher(f Fetcher) Option {
	return func(p *Plugin) {
		if f != nil {
			p.fetcher = f
		}
	}
}

func New(cfg *config.Config, sink Sink, lg *log.Logger, opts ...Option) (*Plugin, error) {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	if sink == nil {
		return nil, fmt.Errorf("plugin: nil sink")
	}

	p := &Plugin{
		cfg:          cfg,
		sink:         sink,
		lg:           lg,
		identity:     NewIdentity(lg),
		usernameFile: config.NewUsernameFile(cfg.UsernamePath()),
		downloads:    task.NewSlot[[]byte]("flight plan download", lg),
		interval:     float32(cfg.PollInterval().Seconds()),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.fetcher == nil {
		client, err := simbrief.New(cfg.SimBrief.BaseURL,
			simbrief.WithTimeout(cfg.RequestTimeout()),
			simbrief.WithUserAgent(cfg.SimBrief.UserAgent),
			simbrief.WithLogger(lg))
		if err != nil {
			return nil, err
		}
		p.fetcher = client
	}
	return p, nil
}

func (p *Plugin) Info() Info {
	return Info{Name: Name, Signature: Signature, Description: Description}
}

// Start loads the username. A missing or unreadable username file is
// logged and leaves the username unset; the user can fix the file and
// use the "Set username" menu item.
func (p *Plugin) Start() {
	defer p.lg.CatchAndReportCrash()

	p.lg.Info("Plugin starting", slog.String("name", Name), slog.String("signature", Signature),
		slog.String("plugin_dir", p.cfg.PluginDir()))
	_ = p.ReloadUsername()
}

// Stop is called when the host disables the plugin. A download that is
// still in flight is abandoned; its goroutine finishes on its own.
func (p *Plugin) Stop() {
	if p.downloads.Busy() {
		p.lg.Warn("Stopping with a flight plan download still in flight")
	}
	p.lg.Info("Plugin stopped")
}

// FlightLoopInterval is the delay in seconds before the first call to
// FlightLoop.
func (p *Plugin) FlightLoopInterval() float32 {
	return p.interval
}

// Identity returns the username cell shared with background downloads.
func (p *Plugin) Identity() *Identity {
	return p.identity
}

// Downloading reports whether a flight plan download is in flight or
// finished but not yet delivered.
func (p *Plugin) Downloading() bool {
	return p.downloads.Busy()
}
