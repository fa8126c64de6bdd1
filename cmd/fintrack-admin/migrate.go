package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/storage"
)

func init() {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
				return err
			}
			return printVersion(cmd)
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if err := storage.MigrateDown(cfg.SQLiteDBPath, steps); err != nil {
				return err
			}
			return printVersion(cmd)
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd)
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func printVersion(cmd *cobra.Command) error {
	version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	return printResult(cmd, map[string]any{"version": version, "dirty": dirty}, func() {
		state := "clean"
		if dirty {
			state = "dirty"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, state)
	})
}
