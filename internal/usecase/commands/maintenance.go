package commands

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"usdt-exchange-bot/internal/pkg/clock"
	"usdt-exchange-bot/internal/pkg/config"
)

// MaintenanceService owns the periodic cleanup jobs the worker binary runs
// on a cron schedule.
type MaintenanceService struct {
	pool   *pgxpool.Pool
	drafts DraftRepo
	clock  clock.Clock
	cfg    config.Nudge
	log    *slog.Logger
}

func NewMaintenanceService(pool *pgxpool.Pool, drafts DraftRepo, clk clock.Clock, cfg config.Nudge, log *slog.Logger) *MaintenanceService {
	return &MaintenanceService{
		pool:   pool,
		drafts: drafts,
		clock:  clk,
		cfg:    cfg,
		log:    log.With("component", "maintenance"),
	}
}

// PurgeConvertedDrafts removes finished drafts older than the retention
// window. Open drafts are never touched; their campaigns may still fire.
func (s *MaintenanceService) PurgeConvertedDrafts(ctx context.Context) {
	before := s.clock.Now().Add(-s.cfg.DraftRetention)
	removed, err := s.drafts.PurgeAbandoned(ctx, s.pool, before)
	if err != nil {
		s.log.Error("draft purge failed", "error", err)
		return
	}
	if removed > 0 {
		s.log.Info("drafts purged", "count", removed, "before", before)
	}
}
