// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"fmt"

	"github.com/VA7DBI/movieAPI/logging"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations to the users and movies databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := logging.New(cfg.Log.Verbosity).WithName("migrate")

			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			if st.usersDB == nil && st.moviesDB == nil {
				cmd.Println("No SQL databases configured; nothing to migrate.")
				return nil
			}
			if err := st.migrate(cmd.Context(), logger); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			cmd.Println("Applied all pending migrations.")
			return nil
		},
	})
}
