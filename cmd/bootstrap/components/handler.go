package components

import (
	"usdt-exchange-bot/internal/handler"
	"usdt-exchange-bot/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAdminCommands,
		api.NewFunnelFlow,
		api.NewTelegramHandler,
		api.NewVKHandler,
		api.NewAdminHandler,
	),
	fx.Invoke(handler.NewRouter),
)
