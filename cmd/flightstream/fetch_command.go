// cmd/flightstream/fetch_command.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"
	"strings"

	"github.com/jct32/flightstream/config"
	"github.com/jct32/flightstream/simbrief"

	"github.com/goforj/godump"
	"github.com/spf13/cobra"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var username string
	var dump bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the latest flight plan and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			username = strings.TrimSpace(username)
			if username == "" {
				if username, err = config.NewUsernameFile(cfg.UsernamePath()).Load(); err != nil {
					return err
				}
			}

			client, err := simbrief.New(cfg.SimBrief.BaseURL,
				simbrief.WithTimeout(cfg.RequestTimeout()),
				simbrief.WithUserAgent(cfg.SimBrief.UserAgent))
			if err != nil {
				return err
			}

			route, err := client.FetchFlightPlan(cmd.Context(), username)
			if err != nil {
				if dump {
					godump.Fdump(cmd.ErrOrStderr(), err)
				}
				return fmt.Errorf("fetch flight plan for %q: %w", username, err)
			}

			_, err = cmd.OutOrStdout().Write(route)
			return err
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "SimBrief username (default: the username file)")
	cmd.Flags().BoolVar(&dump, "dump", false, "Dump the full error structure on failure")

	return cmd
}

func newSetUsernameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-username NAME",
		Short: "Write the SimBrief username file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			f := config.NewUsernameFile(cfg.UsernamePath())
			if err := f.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Username %q written to %s\n", strings.TrimSpace(args[0]), f.Path)
			return nil
		},
	}
}
