package main

import (
	"context"
	"log/slog"
	"os"

	"usdt-exchange-bot/cmd/bootstrap"
	"usdt-exchange-bot/internal/nudge"
	"usdt-exchange-bot/internal/pkg/config"
	"usdt-exchange-bot/internal/usecase/commands"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

func startScheduler(lc fx.Lifecycle, scheduler *nudge.Scheduler, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go scheduler.Run(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			scheduler.Wait()
			logger.Info("nudge scheduler drained")
			return nil
		},
	})
}

// startMaintenance runs the daily draft purge on the configured cron
// schedule, in the worker process alongside the nudge scheduler.
func startMaintenance(lc fx.Lifecycle, maintenance *commands.MaintenanceService, cfg config.Nudge, logger *slog.Logger) error {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
	))
	_, err := c.AddFunc(cfg.PurgeSchedule, func() {
		maintenance.PurgeConvertedDrafts(context.Background())
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			c.Start()
			logger.Info("maintenance cron started", "schedule", cfg.PurgeSchedule)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-c.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}

func main() {
	app := fx.New(
		bootstrap.WorkerModule,
		fx.Invoke(
			startScheduler,
			startMaintenance,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("failed to stop worker", "error", err)
	}

	slog.Info("worker stopped")
}
