// Command fintrack-admin runs maintenance tasks against the ledger database.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

var (
	dbPath     string
	jsonOutput bool

	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fintrack-admin",
	Short: "Maintenance commands for the fintrack ledger",
	Long: `fintrack-admin runs one-off tasks against the ledger database:
schema migrations, recurring processing, balance reconciliation,
allocation previews and statement imports.

Configuration is read from the environment and an optional .env file,
the same way the server reads it.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, logger = cli.LoadConfig(log.ComponentApp, nil)
		if dbPath != "" {
			cfg.SQLiteDBPath = dbPath
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default $SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// app is the set of services a command works with.
type app struct {
	repo      *storage.SQLiteRepository
	ledger    *services.LedgerService
	recurring *services.RecurringScheduler
	alloc     *services.AllocationService
	imports   *services.ImportService
	close     func()
}

func openApp() *app {
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	events, closeEvents := cli.InitPublisher(logger, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	return &app{
		repo:      repo,
		ledger:    services.NewLedgerService(repo, events),
		recurring: services.NewRecurringScheduler(repo, events, cfg.RecurringMaxPerRun),
		alloc:     services.NewAllocationService(repo),
		imports:   services.NewImportService(repo, events),
		close: func() {
			closeEvents()
			repo.Close()
		},
	}
}

// printResult writes v as indented JSON with --json, otherwise runs text.
func printResult(cmd *cobra.Command, v any, text func()) error {
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

func main() {
	ctx, stop := cli.SignalContext()
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
