// cmd/flightstream/root.go
// Copyright(c) 2024-2026 flightstream contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"strings"
	"sync"

	"github.com/jct32/flightstream/config"
	"github.com/jct32/flightstream/log"

	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag *string
	rootFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, rootFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, rootFlag: rootFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path, root string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if c.rootFlag != nil {
			root = strings.TrimSpace(*c.rootFlag)
		}
		c.config, _, c.configErr = config.Load(path, root)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cfg *config.Config) *log.Logger {
	return log.New(cfg.Logging.Level, cfg.Logging.Dir)
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var rootFlag string

	ctx := newCommandContext(&configFlag, &rootFlag)

	rootCmd := &cobra.Command{
		Use:           "flightstream",
		Short:         "Download SimBrief flight plans into the simulator's FMS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Settings file path (default: flightstream.toml in the plugin directory)")
	rootCmd.PersistentFlags().StringVarP(&rootFlag, "root", "r", "", "Simulator installation directory")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newSetUsernameCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
