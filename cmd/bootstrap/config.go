package bootstrap

import (
	"usdt-exchange-bot/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.DB { return cfg.DB },
		func(cfg config.Config) config.Log { return cfg.Log },
		func(cfg config.Config) config.Bot { return cfg.Bot },
		func(cfg config.Config) config.VK { return cfg.VK },
		func(cfg config.Config) config.CRM { return cfg.CRM },
		func(cfg config.Config) config.Nudge { return cfg.Nudge },
		func(cfg config.Config) config.Admin { return cfg.Admin },
	),
)
