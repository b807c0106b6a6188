package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"branchboard/internal/config"
	applog "branchboard/internal/log"
	"branchboard/internal/notify"
	"branchboard/internal/query"
	"branchboard/internal/session"
	"branchboard/internal/slot"
	"branchboard/internal/store"
)

var ErrUsage = errors.New("usage")

// App is one wired instance of the dashboard core.
type App struct {
	cfg      *config.Config
	logger   *applog.Logger
	slot     slot.Slot
	store    *store.Store
	session  *session.Manager
	notifier *notify.Client
	out      io.Writer
	now      func() time.Time
}

// NewApp opens the slot, restores the snapshot and session, and subscribes
// the stats refresher and, when AMQP_URL is set, the event publisher.
func NewApp(ctx context.Context, cfg *config.Config, logger *applog.Logger, out io.Writer) (*App, error) {
	seed, err := LoadSeed(cfg)
	if err != nil {
		return nil, err
	}

	sl, err := OpenSlot(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		slot:   sl,
		out:    out,
		now:    time.Now,
	}

	app.store = store.New(sl,
		store.WithLogger(logger.WithComponent(applog.ComponentStore)),
		store.WithSeed(seed),
	)
	app.store.Subscribe(query.NewStatsRefresher(app.store, logger.WithComponent(applog.ComponentStore)))

	if cfg.AMQPURL != "" {
		notifyLogger := logger.WithComponent(applog.ComponentNotify)
		client, err := notify.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, notifyLogger)
		if err != nil {
			logger.Warn("AMQP unavailable, snapshot events disabled", applog.FieldError, err)
		} else {
			app.notifier = client
			app.store.Subscribe(notify.NewPublisher(client, notifyLogger))
		}
	}

	if err := app.store.Load(ctx); err != nil {
		app.Close()
		return nil, err
	}

	app.session = session.NewManager(sl, app.store, logger.WithComponent(applog.ComponentSession))
	app.session.Start(ctx)

	return app, nil
}

func (a *App) Close() error {
	var errs []error
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if a.slot != nil {
		if err := a.slot.Close(); err != nil {
			errs = append(errs, fmt.Errorf("slot: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Execute is the process entry point: it bootstraps from the environment
// and runs one subcommand.
func Execute(ctx context.Context, args []string) error {
	if len(args) < 1 || isHelpArg(args[0]) {
		return usageError()
	}
	if _, ok := commands[args[0]]; !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := SetupLogger(cfg.LogLevel)
	logger.Debug("Starting", applog.FieldOperation, applog.OpStartup, applog.FieldBackend, cfg.SlotBackend)

	app, err := NewApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Shutdown incomplete", applog.FieldOperation, applog.OpShutdown, applog.FieldError, err)
		}
	}()

	return app.Run(ctx, args)
}

// Run executes one subcommand against the app.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageError()
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return cmd.run(ctx, a, args[1:])
}

func usageError() error {
	return fmt.Errorf("%w: branchboard <command> [flags]", ErrUsage)
}

func isHelpArg(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}
