// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

// Package app wires platformd's cobra command tree.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/latticectl/core/pkg/logger"
)

// NewRootCmd builds the platformd root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "platformd",
		DisableAutoGenTag: true,
		Short:             "platformd serves the resource API, controller runtime, and OAuth2 core",
		Long: `platformd is the server process for the resource API: a partitioned
document substrate, a typed controller runtime with watch and garbage
collection, an access-control enforcer, and an OAuth2 authorization
server, all exposed over a single HTTP boundary.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	root.PersistentFlags().String("config", "", "path to config file")
	if err := viper.BindPFlag("config", root.PersistentFlags().Lookup("config")); err != nil {
		logger.Errorf("binding config flag: %v", err)
	}

	root.SilenceUsage = true

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newVersionCmd())

	return root
}
