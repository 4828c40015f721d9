// cmd/flightstream/main.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// flightstream runs the SimBrief flight plan plugin outside of the
// simulator, against a simulator installation directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apenwarr/fixconsole"
)

func main() {
	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
