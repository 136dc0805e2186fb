package components

import (
	"usdt-exchange-bot/internal/infra/repository"
	"usdt-exchange-bot/internal/nudge"
	"usdt-exchange-bot/internal/usecase/commands"
	"usdt-exchange-bot/internal/usecase/queries"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repository.NewDraftRepository,
			fx.As(new(commands.DraftRepo)),
		),
		fx.Annotate(
			repository.NewRequestRepository,
			fx.As(new(commands.RequestRepo)),
			fx.As(new(queries.RequestReader)),
		),
		fx.Annotate(
			repository.NewNudgeStore,
			fx.As(new(nudge.Store)),
		),
	),
)
