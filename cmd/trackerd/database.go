package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdxmph/tasks-tui/internal/db"
)

func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty task database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if err := db.Initialize(cfg.Database.Path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized database at %s\n", cfg.Database.Path)
			return nil
		},
	}
}

func newFixturesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fixtures",
		Short: "Create a database filled with sample tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if err := db.CreateFixturesDatabase(cfg.Database.Path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created fixtures database at %s\n", cfg.Database.Path)
			return nil
		},
	}
}
