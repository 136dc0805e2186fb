package bootstrap

import (
	"log/slog"
	"strings"

	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/pkg/config"

	"go.uber.org/fx"
)

var CRMModule = fx.Module("crm",
	fx.Provide(
		NewCRMClient,
	),
)

// NewCRMClient picks the transport by CRM_MODE: "http" talks to the real
// CRM, anything else falls back to the in-memory mock.
func NewCRMClient(cfg config.CRM, log *slog.Logger) crm.Client {
	if strings.EqualFold(strings.TrimSpace(cfg.Mode), "http") {
		log.Info("using http crm client", "base_url", cfg.BaseURL)
		return crm.NewHTTPClient(cfg)
	}
	log.Info("using mock crm client")
	return crm.NewMockClient()
}
