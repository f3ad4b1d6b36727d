package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/hray3182/nagqueen/internal/config"
	"github.com/hray3182/nagqueen/internal/database"
	"github.com/hray3182/nagqueen/internal/logging"
	"github.com/hray3182/nagqueen/internal/repository"
	"github.com/hray3182/nagqueen/internal/scheduler"
	"github.com/hray3182/nagqueen/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg.DatabaseURI, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer closeStore()

	sender, err := transport.New(transport.Options{
		Kind:              cfg.Transport.Kind,
		TwilioAccountSID:  cfg.Transport.TwilioAccountSID,
		TwilioAuthToken:   cfg.Transport.TwilioAuthToken,
		TwilioPhoneNumber: cfg.Transport.TwilioPhoneNumber,
		TelegramToken:     cfg.Transport.TelegramToken,
		Timeout:           cfg.Dispatch.SendTimeout,
	}, log.With().Str("component", "transport").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create transport")
	}

	opts := []scheduler.Option{
		scheduler.WithInterval(cfg.Dispatch.Interval),
		scheduler.WithConcurrency(cfg.Dispatch.Concurrency),
		scheduler.WithSendTimeout(cfg.Dispatch.SendTimeout),
		scheduler.WithRunOnStart(cfg.Dispatch.RunOnStart),
	}
	if n := cfg.Dispatch.SendRatePerSec; n > 0 {
		opts = append(opts, scheduler.WithRateLimit(rate.NewLimiter(rate.Limit(n), n)))
	}

	sched := scheduler.New(store, sender, log, opts...)
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			log.Info().Msg("SIGHUP received, checking for due reminders")
			sched.Notify()
			continue
		}
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		break
	}
	signal.Stop(sigCh)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Dispatch.ShutdownTimeout)
	defer stopCancel()
	if err := sched.Stop(stopCtx); err != nil {
		log.Warn().Err(err).Dur("timeout", cfg.Dispatch.ShutdownTimeout).Msg("in-flight tick did not finish before shutdown timeout")
	}
}

// openStore connects the backend named by uri and applies its migrations
func openStore(ctx context.Context, uri string, log zerolog.Logger) (scheduler.Store, func(), error) {
	driver, dsn, err := database.ParseURI(uri)
	if err != nil {
		return nil, nil, err
	}
	repoLog := log.With().Str("component", "repository").Logger()

	switch driver {
	case database.DriverPostgres:
		db, err := database.New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, log); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("driver", driver).Msg("connected to database")
		return repository.NewReminderRepository(db, repoLog), db.Close, nil

	default:
		db, err := database.OpenSQLite(dsn, 5*time.Second)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigrateSQLite(ctx, db, log); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("driver", driver).Str("path", dsn).Msg("opened database")
		return repository.NewSQLiteReminderRepository(db, repoLog), func() { db.Close() }, nil
	}
}
