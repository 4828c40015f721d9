// cmd/flightstream/run_command.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jct32/flightstream/config"
	"github.com/jct32/flightstream/host"
	"github.com/jct32/flightstream/log"
	"github.com/jct32/flightstream/plugin"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const hostTick = 10 * time.Millisecond

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the plugin with an interactive menu",
		Long: `Run the plugin as the simulator would, reading menu selections from stdin:

  1, download   Download and Load Flight Plan
  2, username   Set username (reread the username file)
  q, quit       Stop the plugin

Loaded flight plans are written to "Output/FMS plans" under the simulator root.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lg := ctx.logger(cfg)
			defer lg.CatchAndReportCrash()

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runPlugin(sigCtx, cfg, lg, cmd.InOrStdin(), cmd.OutOrStdout(), isTerminal(cmd.InOrStdin()))
		},
	}
}

func runPlugin(ctx context.Context, cfg *config.Config, lg *log.Logger, in io.Reader, out io.Writer, interactive bool) error {
	p, err := plugin.New(cfg, host.NewFMSDirSink(cfg.FMSPlansDir(), lg), lg)
	if err != nil {
		return err
	}

	loop := host.NewLoop(hostTick, lg)
	p.Start()
	defer p.Stop()
	loop.RegisterFlightLoop(p.FlightLoop, p.FlightLoopInterval())

	// Menu clicks arrive on the host's main thread.
	post := func(c plugin.Command) {
		loop.Post(func() { p.HandleCommand(c) })
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return loop.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()
		if err := readMenu(ctx, in, out, p.Menu(), interactive, post); err != nil {
			return err
		}
		return drain(ctx, loop, p)
	})

	if cfg.Username.Watch {
		w, err := config.NewUsernameWatcher(cfg.UsernamePath(), lg, func() {
			post(plugin.CommandSetUsername)
		})
		if err != nil {
			lg.Warn("Unable to watch username file", slog.Any("error", err))
		} else {
			eg.Go(func() error { return w.Run(ctx) })
		}
	}

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// drain waits for commands already posted to run and for any download
// they started to be delivered.
func drain(ctx context.Context, loop *host.Loop, p *plugin.Plugin) error {
	ran := make(chan struct{})
	loop.Post(func() { close(ran) })
	select {
	case <-ran:
	case <-ctx.Done():
		return ctx.Err()
	}

	ticker := time.NewTicker(hostTick)
	defer ticker.Stop()
	for p.Downloading() {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

type menuAction int

const (
	menuNone menuAction = iota
	menuCommand
	menuQuit
	menuUnknown
)

func parseMenuInput(line string) (plugin.Command, menuAction) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return 0, menuNone
	case "1", "download":
		return plugin.CommandDownloadAndLoad, menuCommand
	case "2", "username":
		return plugin.CommandSetUsername, menuCommand
	case "q", "quit", "exit":
		return 0, menuQuit
	default:
		return 0, menuUnknown
	}
}

// readMenu forwards menu selections read from in until the user quits, in
// reaches EOF, or ctx is canceled.
func readMenu(ctx context.Context, in io.Reader, out io.Writer, menu plugin.Menu, interactive bool, post func(plugin.Command)) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		// This goroutine is left blocked in Scan if ctx is canceled
		// first; stdin can't be interrupted.
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	if interactive {
		printMenu(out, menu)
	}
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}

			cmd, action := parseMenuInput(line)
			switch action {
			case menuCommand:
				post(cmd)
			case menuQuit:
				return nil
			case menuUnknown:
				fmt.Fprintf(out, "%q: unknown selection\n", strings.TrimSpace(line))
				if interactive {
					printMenu(out, menu)
				}
			}
		}
	}
}

func printMenu(out io.Writer, menu plugin.Menu) {
	fmt.Fprintln(out, menu.Title)
	for i, item := range menu.Items {
		fmt.Fprintf(out, "  %d. %s\n", i+1, item.Label)
	}
	fmt.Fprintln(out, "  q. Quit")
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
