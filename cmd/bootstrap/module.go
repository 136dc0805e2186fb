package bootstrap

import (
	"usdt-exchange-bot/cmd/bootstrap/components"

	"go.uber.org/fx"
)

// BotModule wires the webhook server binary.
var BotModule = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	ClockModule,
	CRMModule,
	MessengerModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.HandlerModule,
)

// WorkerModule wires the nudge scheduler binary.
var WorkerModule = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	ClockModule,
	CRMModule,
	MessengerModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.WorkerModule,
)
