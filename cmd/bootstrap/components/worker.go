package components

import (
	"log/slog"

	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/infra/messenger"
	"usdt-exchange-bot/internal/nudge"
	"usdt-exchange-bot/internal/pkg/clock"
	"usdt-exchange-bot/internal/pkg/config"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewNudgeEngine,
		NewNudgeScheduler,
	),
)

func NewNudgeEngine(
	store nudge.Store,
	crmClient crm.Client,
	calendar *clock.BusinessCalendar,
	sender messenger.Sender,
	clk clock.Clock,
	cfg config.Nudge,
	log *slog.Logger,
) *nudge.Engine {
	env := nudge.Env{
		Store:    store,
		CRM:      crmClient,
		Calendar: calendar,
	}
	return nudge.NewEngine(env, sender, clk, cfg.BatchLimit, log)
}

func NewNudgeScheduler(engine *nudge.Engine, cfg config.Nudge, log *slog.Logger) *nudge.Scheduler {
	return nudge.NewScheduler(engine, cfg.WorkerInterval, log)
}
