// plugin/commands.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plugin

import (
	"log/slog"
	"strconv"
)

// Command is an action the user can invoke from the plugin's menu.
type Command int

const (
	CommandDownloadAndLoad Command = iota
	CommandSetUsername
)

func (c Command) String() string {
	switch c {
	case CommandDownloadAndLoad:
		return "DownloadAndLoad"
	case CommandSetUsername:
		return "SetUsername"
	default:
		return "Command(" + strconv.Itoa(int(c)) + ")"
	}
}

// Handler is implemented by anything that can respond to menu commands;
// the host adapter holds one and calls it when a menu item is clicked.
type Handler interface {
	HandleCommand(cmd Command)
}

var _ Handler = (*Plugin)(nil)

type MenuItem struct {
	Label   string
	Command Command
}

type Menu struct {
	Title string
	Items []MenuItem
}

// Menu describes the submenu the host adapter should add to its plugins
// menu.
func (p *Plugin) Menu() Menu {
	return Menu{
		Title: Name,
		Items: []MenuItem{
			{Label: "Download and Load Flight Plan", Command: CommandDownloadAndLoad},
			{Label: "Set username", Command: CommandSetUsername},
		},
	}
}

// HandleCommand runs a menu command. It returns promptly; downloads run
// in the background.
func (p *Plugin) HandleCommand(cmd Command) {
	defer p.lg.CatchAndReportCrash()

	p.lg.Debug("menu command", slog.String("command", cmd.String()))

	switch cmd {
	case CommandDownloadAndLoad:
		p.StartDownload()
	case CommandSetUsername:
		_ = p.ReloadUsername()
	default:
		p.lg.Warn("Unknown menu command", slog.Int("command", int(cmd)))
	}
}
