package components

import (
	"usdt-exchange-bot/internal/handler/api"
	"usdt-exchange-bot/internal/usecase/commands"
	"usdt-exchange-bot/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		commands.NewEventEmitter,
		fx.Annotate(
			commands.NewIntakeService,
			fx.As(new(api.IntakeCommands)),
		),
		fx.Annotate(
			commands.NewOrderService,
			fx.As(new(api.OrderCommands)),
		),
		fx.Annotate(
			commands.NewReplyService,
			fx.As(new(api.ReplyCommands)),
		),
		commands.NewMaintenanceService,
		fx.Annotate(
			queries.NewAdminQueries,
			fx.As(new(api.AdminReads)),
		),
	),
)
