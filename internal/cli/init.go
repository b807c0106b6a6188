// Package cli provides the branchboard command line: process bootstrap
// (logging, .env, configuration, slots, signals) and the subcommands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"branchboard/internal/config"
	applog "branchboard/internal/log"
	"branchboard/internal/slot"
	"branchboard/internal/store"
)

// SetupLogger initializes structured logging at the given level.
// Records go to stderr so command output on stdout stays clean.
// The logger is also installed as the slog default.
func SetupLogger(level string) *applog.Logger {
	logCfg := applog.DefaultConfig()
	logCfg.Level = applog.ParseLevel(level)
	logCfg.Component = applog.ComponentCLI
	logCfg.Output = os.Stderr
	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenSlot builds the durable slot the configuration asks for.
func OpenSlot(ctx context.Context, logger *applog.Logger, cfg *config.Config) (slot.Slot, error) {
	factory := slot.NewFactory(logger.WithComponent(applog.ComponentSlot))
	sl, err := factory.Open(ctx, cfg.SlotConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s slot: %w", cfg.SlotBackend, err)
	}
	return sl, nil
}

// LoadSeed returns the seed snapshot, read from SEED_FILE when one is set.
func LoadSeed(cfg *config.Config) (store.Snapshot, error) {
	if cfg.SeedFile == "" {
		return store.Seed(), nil
	}
	return store.LoadSeedFile(cfg.SeedFile)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals or when
// parent ends, and a channel that signals when shutdown is complete.
func GracefulShutdown(parent context.Context, logger *slog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		cleanupDone := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(cleanupDone)
		}()

		cancel()

		select {
		case <-cleanupDone:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
