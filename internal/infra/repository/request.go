package repository

import (
	"context"
	"errors"
	"time"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/domain/request"
	"usdt-exchange-bot/internal/infra"
	"usdt-exchange-bot/internal/infra/db"

	"github.com/jackc/pgx/v5"
)

const requestColumns = `
	id, transport, peer_id, external_user_id,
	client_request_id, crm_request_id,
	direction, give_amount, office_id, desired_date, rate, receive_amount,
	username, status, summary_text,
	nudge1_planned_at, nudge1_sent_at, nudge1_answer, nudge1_answered_at,
	nudge5_planned_at, nudge5_sent_at, nudge5_answer, nudge5_answered_at,
	nudge6_planned_at, nudge6_sent_at, nudge6_answer, nudge6_answered_at,
	nudge7_planned_at, nudge7_sent_at, nudge7_answer, nudge7_answered_at,
	created_at`

type RequestRepository struct{}

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{}
}

// Create inserts a confirmed order. A duplicate client_request_id surfaces as
// KindDuplicateKey, which callers convert into an already-exists outcome.
func (r *RequestRepository) Create(ctx context.Context, dbtx db.DBTX, req *request.Request) (int64, error) {
	row := dbtx.QueryRow(ctx, `
		INSERT INTO requests (
			transport, peer_id, external_user_id,
			client_request_id, crm_request_id,
			direction, give_amount, office_id, desired_date, rate, receive_amount,
			username, status, summary_text,
			nudge1_planned_at, nudge5_planned_at, nudge6_planned_at, nudge7_planned_at,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`,
		string(req.Transport), req.PeerID, req.ExternalUserID,
		req.ClientRequestID, req.CRMRequestID,
		string(req.Direction), req.GiveAmount, req.OfficeID, req.DesiredDate, req.Rate, req.ReceiveAmount,
		req.Username, req.Status, req.SummaryText,
		req.Nudge1.PlannedAt, req.Nudge5.PlannedAt, req.Nudge6.PlannedAt, req.Nudge7.PlannedAt,
		req.CreatedAt,
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, infra.WrapRepoErr("failed to create request", err)
	}
	return id, nil
}

func (r *RequestRepository) GetByID(ctx context.Context, dbtx db.DBTX, id int64) (*request.Request, error) {
	row := dbtx.QueryRow(ctx, `SELECT`+requestColumns+` FROM requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (r *RequestRepository) GetByClientRequestID(ctx context.Context, dbtx db.DBTX, token string) (*request.Request, error) {
	row := dbtx.QueryRow(ctx, `SELECT`+requestColumns+` FROM requests WHERE client_request_id = $1`, token)
	return scanRequest(row)
}

// GetLatestByPeer returns the most recent order of a conversational identity.
func (r *RequestRepository) GetLatestByPeer(ctx context.Context, dbtx db.DBTX, transport funnel.Transport, peerID int64) (*request.Request, error) {
	row := dbtx.QueryRow(ctx,
		`SELECT`+requestColumns+` FROM requests WHERE transport = $1 AND peer_id = $2 ORDER BY id DESC LIMIT 1`,
		string(transport), peerID)
	return scanRequest(row)
}

func (r *RequestRepository) ListRecent(ctx context.Context, dbtx db.DBTX, limit int32) ([]*request.Request, error) {
	rows, err := dbtx.Query(ctx,
		`SELECT`+requestColumns+` FROM requests ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list recent requests", err)
	}
	defer rows.Close()

	var result []*request.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate requests", err)
	}
	return result, nil
}

func (r *RequestRepository) SetCRMRequestID(ctx context.Context, dbtx db.DBTX, id int64, crmRequestID string) error {
	_, err := dbtx.Exec(ctx,
		`UPDATE requests SET crm_request_id = $2 WHERE id = $1`,
		id, crmRequestID)
	if err != nil {
		return infra.WrapRepoErr("failed to set crm_request_id", err)
	}
	return nil
}

// AnswerNudge records a user answer for a request-scoped campaign exactly
// once. sent_at is backfilled when the answer arrives before the scan marked
// the row (a reply to a message delivered just before a crash).
func (r *RequestRepository) AnswerNudge(ctx context.Context, dbtx db.DBTX, id int64, c campaign.ID, answer string, now time.Time) (bool, error) {
	prefix, err := requestNudgePrefix(c)
	if err != nil {
		return false, err
	}

	tag, err := dbtx.Exec(ctx, `
		UPDATE requests
		SET `+prefix+`_answer = $2,
		    `+prefix+`_answered_at = $3,
		    `+prefix+`_sent_at = COALESCE(`+prefix+`_sent_at, $3)
		WHERE id = $1 AND `+prefix+`_answer IS NULL`,
		id, answer, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to answer request nudge", err)
	}
	return tag.RowsAffected() > 0, nil
}

func requestNudgePrefix(c campaign.ID) (string, error) {
	switch c {
	case campaign.ManagerDelay:
		return "nudge1", nil
	case campaign.DealReminder:
		return "nudge5", nil
	case campaign.SpecialOffer:
		return "nudge6", nil
	case campaign.DealDayMorning:
		return "nudge7", nil
	}
	return "", infra.WrapRepoErr("campaign is not request-scoped", nil)
}

func scanRequest(row pgx.Row) (*request.Request, error) {
	var req request.Request
	var transport, direction string

	err := row.Scan(
		&req.ID, &transport, &req.PeerID, &req.ExternalUserID,
		&req.ClientRequestID, &req.CRMRequestID,
		&direction, &req.GiveAmount, &req.OfficeID, &req.DesiredDate, &req.Rate, &req.ReceiveAmount,
		&req.Username, &req.Status, &req.SummaryText,
		&req.Nudge1.PlannedAt, &req.Nudge1.SentAt, &req.Nudge1.Answer, &req.Nudge1.AnsweredAt,
		&req.Nudge5.PlannedAt, &req.Nudge5.SentAt, &req.Nudge5.Answer, &req.Nudge5.AnsweredAt,
		&req.Nudge6.PlannedAt, &req.Nudge6.SentAt, &req.Nudge6.Answer, &req.Nudge6.AnsweredAt,
		&req.Nudge7.PlannedAt, &req.Nudge7.SentAt, &req.Nudge7.Answer, &req.Nudge7.AnsweredAt,
		&req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NotFoundErr("request not found")
		}
		return nil, infra.WrapRepoErr("failed to scan request", err)
	}

	req.Transport = funnel.Transport(transport)
	req.Direction = funnel.Direction(direction)
	return &req, nil
}
