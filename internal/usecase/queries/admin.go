package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/domain/request"
	"usdt-exchange-bot/internal/infra/db"
	"usdt-exchange-bot/internal/pkg/errs"
)

type RequestReader interface {
	GetByID(ctx context.Context, dbtx db.DBTX, id int64) (*request.Request, error)
	GetLatestByPeer(ctx context.Context, dbtx db.DBTX, transport funnel.Transport, peerID int64) (*request.Request, error)
	ListRecent(ctx context.Context, dbtx db.DBTX, limit int32) ([]*request.Request, error)
}

// AdminQueries backs the operator commands and the admin HTTP API.
type AdminQueries struct {
	pool     *pgxpool.Pool
	requests RequestReader
}

func NewAdminQueries(pool *pgxpool.Pool, requests RequestReader) *AdminQueries {
	return &AdminQueries{pool: pool, requests: requests}
}

func (q *AdminQueries) RecentRequests(ctx context.Context, limit int32) ([]*request.Request, error) {
	return q.requests.ListRecent(ctx, q.pool, limit)
}

func (q *AdminQueries) RequestByID(ctx context.Context, id int64) (*request.Request, error) {
	req, err := q.requests.GetByID(ctx, q.pool, id)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrOrderNotFound)
	}
	return req, nil
}
