package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/edvin/mailcycle/internal/activity"
	"github.com/edvin/mailcycle/internal/config"
	"github.com/edvin/mailcycle/internal/core"
	"github.com/edvin/mailcycle/internal/db"
	"github.com/edvin/mailcycle/internal/logging"
	"github.com/edvin/mailcycle/internal/metrics"
	"github.com/edvin/mailcycle/internal/scheduler"
	"github.com/edvin/mailcycle/internal/workflow"
	"github.com/edvin/mailcycle/internal/zimbra"
)

const taskQueue = "mailcycle-tasks"

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations/core", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg, "worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(ctx, cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	tc, err := temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	directory := zimbra.NewClient(cfg.ZimbraAdminURL, cfg.ZimbraUser, cfg.ZimbraPassword, logger)
	services := core.NewServices(pool, directory, logger, core.Options{
		SyncBatchSize:        cfg.SyncBatchSize,
		SyncErrorDetailLimit: cfg.SyncErrorDetailLimit,
		PurgeDelayDays:       cfg.PurgeDelayDays,
	})

	w := worker.New(tc, taskQueue, worker.Options{})

	// Register activities
	w.RegisterActivity(activity.NewSync(services))
	w.RegisterActivity(activity.NewPurge(services))

	// Register workflows
	w.RegisterWorkflow(workflow.DirectorySyncWorkflow)
	w.RegisterWorkflow(workflow.PurgeQueueWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	// The purge cron always exists; errors for an already-existing schedule
	// are ignored so that re-deploys do not fail.
	registerPurgeCron(ctx, tc, logger)

	// The sync schedule follows the persisted interval setting.
	if hours, err := services.Settings.SyncIntervalHours(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to read sync interval setting")
	} else if err := scheduler.New(tc, taskQueue, logger).Apply(ctx, hours); err != nil {
		logger.Error().Err(err).Msg("failed to apply sync schedule")
	}

	logger.Info().Str("taskQueue", taskQueue).Msg("starting temporal worker")
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal().Err(err).Msg("worker failed")
	}
}

func registerPurgeCron(ctx context.Context, tc temporalclient.Client, logger zerolog.Logger) {
	const id = "purge-queue-cron"
	_, err := tc.ScheduleClient().Create(ctx, temporalclient.ScheduleOptions{
		ID: id,
		Spec: temporalclient.ScheduleSpec{
			CronExpressions: []string{"0 3 * * *"},
		},
		Action: &temporalclient.ScheduleWorkflowAction{
			ID:        id,
			Workflow:  workflow.PurgeQueueWorkflow,
			Args:      []interface{}{activity.ProcessPurgeQueueParams{}},
			TaskQueue: taskQueue,
		},
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "AlreadyExists") || strings.Contains(err.Error(), "already registered") {
			logger.Info().Str("id", id).Msg("purge cron schedule already exists, skipping")
		} else {
			logger.Fatal().Err(err).Str("id", id).Msg("failed to create purge cron schedule")
		}
	} else {
		logger.Info().Str("id", id).Msg("created purge cron schedule")
	}
}
