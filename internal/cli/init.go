// Package cli provides the startup steps shared by every fintrack binary.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT values
// and installs it as the slog default.
func SetupLogger(level, format, component string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{
		Level:     lvl,
		Component: component,
		Handler:   log.NewHandler(os.Stdout, lvl, format),
	})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads a .env file for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the environment and sets up logging from it.
// It exits the process when validation fails.
func LoadConfig(component string, validate func(*config.Config) error) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg.LogLevel, cfg.LogFormat, component)
	if validate != nil {
		if err := validate(cfg); err != nil {
			logger.Error("Configuration validation failed", log.FieldError, err)
			os.Exit(1)
		}
	}
	return cfg, logger
}

// InitSQLite opens the ledger database, applying pending migrations.
// It exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// InitPublisher connects to the broker when url is set. It returns a nil
// Publisher interface, never a typed nil, when events are disabled or the
// broker is unreachable, along with a close function that is always safe to call.
func InitPublisher(logger *log.Logger, url, exchange, queue string) (services.Publisher, func()) {
	if url == "" {
		logger.Info("AMQP disabled, ledger events will not be published")
		return nil, func() {}
	}
	client, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		logger.Warn("AMQP unavailable, continuing without events", log.FieldError, err)
		return nil, func() {}
	}
	logger.Info("AMQP publisher ready", "exchange", exchange, "queue", queue)
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warn("AMQP close failed", log.FieldError, err)
		}
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Fatal logs err and exits.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, err)
	os.Exit(1)
}
