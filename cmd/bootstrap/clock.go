package bootstrap

import (
	"usdt-exchange-bot/internal/pkg/clock"
	"usdt-exchange-bot/internal/pkg/config"

	"go.uber.org/fx"
)

var ClockModule = fx.Module("clock",
	fx.Provide(
		clock.NewRealClock,
		NewBusinessCalendar,
	),
)

func NewBusinessCalendar(clk clock.Clock, cfg config.Nudge) (*clock.BusinessCalendar, error) {
	return clock.NewBusinessCalendar(clk, cfg.BusinessTimeZone)
}
