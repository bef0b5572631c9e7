// SPDX-FileCopyrightText: Copyright 2026 Lattice Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"github.com/spf13/cobra"

	"github.com/latticectl/core/pkg/config"
	"github.com/latticectl/core/pkg/docstore"
	"github.com/latticectl/core/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Ensure the document substrate's database exists",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client, err := docstore.Open(ctx, cfg.Docstore.Driver, cfg.Docstore.DSN)
	if err != nil {
		return err
	}
	if _, err := docstore.EnsureDatabase(ctx, client, databaseName, cfg.Docstore.Partitioned); err != nil {
		return err
	}

	logger.Infow("database ready", "name", databaseName, "partitions", partitions)
	return nil
}
