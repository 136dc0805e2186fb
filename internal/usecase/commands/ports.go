package commands

import (
	"context"
	"time"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/draft"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/domain/request"
	"usdt-exchange-bot/internal/infra/db"
)

type DraftRepo interface {
	GetByPeer(ctx context.Context, dbtx db.DBTX, transport funnel.Transport, peerID int64) (*draft.Draft, error)
	GetByID(ctx context.Context, dbtx db.DBTX, id int64) (*draft.Draft, error)
	GetOrCreate(ctx context.Context, dbtx db.DBTX, transport funnel.Transport, peerID int64, externalUserID *int64) (*draft.Draft, error)
	UpdateStep(ctx context.Context, dbtx db.DBTX, id int64, field string, value any, step string, now time.Time, nudge2PlannedAt time.Time) error
	SetDirection(ctx context.Context, dbtx db.DBTX, id int64, direction funnel.Direction, now time.Time, nudge2PlannedAt time.Time) error
	SetLastStep(ctx context.Context, dbtx db.DBTX, id int64, step string, now time.Time) error
	SetClientRequestID(ctx context.Context, dbtx db.DBTX, id int64, token string, now time.Time) error
	MarkSummaryShown(ctx context.Context, dbtx db.DBTX, id int64, now time.Time, nudge3PlannedAt time.Time) error
	Reset(ctx context.Context, dbtx db.DBTX, id int64, now time.Time) error
	AnswerNudge(ctx context.Context, dbtx db.DBTX, id int64, c campaign.ID, answer string, now time.Time) (bool, error)
	AnswerInactivityLater(ctx context.Context, dbtx db.DBTX, id int64, now time.Time, nudge4PlannedAt time.Time) (bool, error)
	PurgeAbandoned(ctx context.Context, dbtx db.DBTX, before time.Time) (int64, error)
}

type RequestRepo interface {
	Create(ctx context.Context, dbtx db.DBTX, req *request.Request) (int64, error)
	GetByID(ctx context.Context, dbtx db.DBTX, id int64) (*request.Request, error)
	GetByClientRequestID(ctx context.Context, dbtx db.DBTX, token string) (*request.Request, error)
	GetLatestByPeer(ctx context.Context, dbtx db.DBTX, transport funnel.Transport, peerID int64) (*request.Request, error)
	SetCRMRequestID(ctx context.Context, dbtx db.DBTX, id int64, crmRequestID string) error
	AnswerNudge(ctx context.Context, dbtx db.DBTX, id int64, c campaign.ID, answer string, now time.Time) (bool, error)
}
