package bootstrap

import (
	"net/http"
	"time"

	"usdt-exchange-bot/internal/infra/messenger"
	"usdt-exchange-bot/internal/pkg/config"

	"go.uber.org/fx"
)

var MessengerModule = fx.Module("messenger",
	fx.Provide(
		fx.Annotate(
			NewMessengerRouter,
			fx.As(new(messenger.Sender)),
		),
	),
)

func NewMessengerRouter(botCfg config.Bot, vkCfg config.VK) *messenger.Router {
	client := &http.Client{Timeout: 15 * time.Second}
	return messenger.NewRouter(
		messenger.NewTelegramSender(botCfg, client),
		messenger.NewVKSender(vkCfg, client),
	)
}
