// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package cmd holds the movieapi command line.
package cmd

import (
	"github.com/VA7DBI/movieAPI/config"
	"github.com/spf13/cobra"
)

var BuildVersion = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:           "movieapi",
	Short:         "Movie API Service",
	Long:          "User accounts and a movie catalog behind revocable bearer sessions.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "Path to configuration file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of movieapi",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s\n", BuildVersion)
		},
	})
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file, falling back to defaults and the
// environment when the default file is absent.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		if cmd.Flags().Changed("config") {
			return nil, err
		}
		cmd.PrintErrf("warning: %v; using defaults\n", err)
		return config.Default()
	}
	return cfg, nil
}
