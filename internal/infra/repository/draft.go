package repository

import (
	"context"
	"errors"
	"time"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/draft"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/infra"
	"usdt-exchange-bot/internal/infra/db"

	"github.com/jackc/pgx/v5"
)

const draftColumns = `
	id, transport, peer_id, external_user_id,
	direction, give_amount, office_id, desired_date, username,
	client_request_id, last_step, summary_shown_at,
	nudge2_planned_at, nudge2_sent_at, nudge2_answer, nudge2_answered_at,
	nudge3_planned_at, nudge3_sent_at, nudge3_answer,
	nudge4_planned_at, nudge4_sent_at, nudge4_answer,
	created_at, updated_at`

type DraftRepository struct{}

func NewDraftRepository() *DraftRepository {
	return &DraftRepository{}
}

func (r *DraftRepository) GetByPeer(ctx context.Context, dbtx db.DBTX, transport funnel.Transport, peerID int64) (*draft.Draft, error) {
	row := dbtx.QueryRow(ctx,
		`SELECT`+draftColumns+` FROM drafts WHERE transport = $1 AND peer_id = $2`,
		string(transport), peerID)
	return scanDraft(row)
}

func (r *DraftRepository) GetByID(ctx context.Context, dbtx db.DBTX, id int64) (*draft.Draft, error) {
	row := dbtx.QueryRow(ctx, `SELECT`+draftColumns+` FROM drafts WHERE id = $1`, id)
	return scanDraft(row)
}

// GetOrCreate returns the open draft for a conversational identity, creating
// it on first contact. The (transport, peer_id) uniqueness constraint makes a
// concurrent double-create resolve to the same row.
func (r *DraftRepository) GetOrCreate(ctx context.Context, dbtx db.DBTX, transport funnel.Transport, peerID int64, externalUserID *int64) (*draft.Draft, error) {
	row := dbtx.QueryRow(ctx, `
		INSERT INTO drafts (transport, peer_id, external_user_id, last_step)
		VALUES ($1, $2, $3, 'start')
		ON CONFLICT (transport, peer_id) DO UPDATE
		SET external_user_id = COALESCE(drafts.external_user_id, EXCLUDED.external_user_id)
		RETURNING`+draftColumns,
		string(transport), peerID, externalUserID)
	return scanDraft(row)
}

// UpdateStep writes one intake answer together with the new progress marker
// and re-arms the inactivity nudge. The column written is whitelisted.
func (r *DraftRepository) UpdateStep(ctx context.Context, dbtx db.DBTX, id int64, field string, value any, step string, now time.Time, nudge2PlannedAt time.Time) error {
	var set string
	switch field {
	case "direction":
		set = "direction = $2"
	case "give_amount":
		set = "give_amount = $2"
	case "office_id":
		set = "office_id = $2"
	case "desired_date":
		set = "desired_date = $2"
	case "username":
		set = "username = $2"
	default:
		return infra.WrapRepoErr("unknown draft intake field: "+field, nil)
	}

	_, err := dbtx.Exec(ctx, `
		UPDATE drafts
		SET `+set+`, last_step = $3, updated_at = $4, nudge2_planned_at = $5
		WHERE id = $1`,
		id, value, step, now, nudge2PlannedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to update draft step", err)
	}
	return nil
}

// SetDirection also drops any previously minted idempotency token: changing
// the direction starts a new order attempt.
func (r *DraftRepository) SetDirection(ctx context.Context, dbtx db.DBTX, id int64, direction funnel.Direction, now time.Time, nudge2PlannedAt time.Time) error {
	_, err := dbtx.Exec(ctx, `
		UPDATE drafts
		SET direction = $2, client_request_id = NULL, last_step = 'direction',
		    updated_at = $3, nudge2_planned_at = $4
		WHERE id = $1`,
		id, string(direction), now, nudge2PlannedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to set draft direction", err)
	}
	return nil
}

func (r *DraftRepository) SetLastStep(ctx context.Context, dbtx db.DBTX, id int64, step string, now time.Time) error {
	_, err := dbtx.Exec(ctx,
		`UPDATE drafts SET last_step = $2, updated_at = $3 WHERE id = $1`,
		id, step, now)
	if err != nil {
		return infra.WrapRepoErr("failed to set draft last_step", err)
	}
	return nil
}

func (r *DraftRepository) SetClientRequestID(ctx context.Context, dbtx db.DBTX, id int64, token string, now time.Time) error {
	_, err := dbtx.Exec(ctx,
		`UPDATE drafts SET client_request_id = $2, updated_at = $3 WHERE id = $1`,
		id, token, now)
	if err != nil {
		return infra.WrapRepoErr("failed to set draft client_request_id", err)
	}
	return nil
}

// MarkSummaryShown records the rate-quote progress flag and schedules the
// rate-lock nudge.
func (r *DraftRepository) MarkSummaryShown(ctx context.Context, dbtx db.DBTX, id int64, now time.Time, nudge3PlannedAt time.Time) error {
	_, err := dbtx.Exec(ctx, `
		UPDATE drafts
		SET last_step = 'summary', summary_shown_at = $2, nudge3_planned_at = $3, updated_at = $2
		WHERE id = $1`,
		id, now, nudge3PlannedAt)
	if err != nil {
		return infra.WrapRepoErr("failed to mark draft summary shown", err)
	}
	return nil
}

// Reset clears every intake answer and all campaign state: the explicit
// intake restart is the only path that un-writes write-once nudge fields.
func (r *DraftRepository) Reset(ctx context.Context, dbtx db.DBTX, id int64, now time.Time) error {
	_, err := dbtx.Exec(ctx, `
		UPDATE drafts
		SET direction = NULL, give_amount = NULL, office_id = NULL,
		    desired_date = NULL, username = NULL, client_request_id = NULL,
		    summary_shown_at = NULL,
		    nudge2_planned_at = NULL, nudge2_sent_at = NULL, nudge2_answer = NULL, nudge2_answered_at = NULL,
		    nudge3_planned_at = NULL, nudge3_sent_at = NULL, nudge3_answer = NULL,
		    nudge4_planned_at = NULL, nudge4_sent_at = NULL, nudge4_answer = NULL,
		    last_step = 'start', updated_at = $2
		WHERE id = $1`,
		id, now)
	if err != nil {
		return infra.WrapRepoErr("failed to reset draft", err)
	}
	return nil
}

// AnswerNudge records a user answer for a draft-scoped campaign exactly once.
// Returns false when the answer field was already non-null.
func (r *DraftRepository) AnswerNudge(ctx context.Context, dbtx db.DBTX, id int64, c campaign.ID, answer string, now time.Time) (bool, error) {
	prefix, err := draftNudgePrefix(c)
	if err != nil {
		return false, err
	}

	tag, err := dbtx.Exec(ctx, `
		UPDATE drafts
		SET `+prefix+`_answer = $2, updated_at = $3
		WHERE id = $1 AND `+prefix+`_answer IS NULL`,
		id, answer, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to answer draft nudge", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AnswerInactivityLater is the "later" branch of the inactivity nudge: it
// records the answer and plans the follow-up campaign in the same statement.
func (r *DraftRepository) AnswerInactivityLater(ctx context.Context, dbtx db.DBTX, id int64, now time.Time, nudge4PlannedAt time.Time) (bool, error) {
	tag, err := dbtx.Exec(ctx, `
		UPDATE drafts
		SET nudge2_answer = 'later', nudge2_answered_at = $2,
		    nudge4_planned_at = $3, nudge4_sent_at = NULL, nudge4_answer = NULL,
		    updated_at = $2
		WHERE id = $1 AND nudge2_answer IS NULL`,
		id, now, nudge4PlannedAt)
	if err != nil {
		return false, infra.WrapRepoErr("failed to answer inactivity nudge", err)
	}
	return tag.RowsAffected() > 0, nil
}

// PurgeAbandoned removes drafts that converted (or died) and have not been
// touched within the retention window.
func (r *DraftRepository) PurgeAbandoned(ctx context.Context, dbtx db.DBTX, before time.Time) (int64, error) {
	tag, err := dbtx.Exec(ctx,
		`DELETE FROM drafts WHERE last_step = 'done' AND updated_at < $1`,
		before)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to purge abandoned drafts", err)
	}
	return tag.RowsAffected(), nil
}

func draftNudgePrefix(c campaign.ID) (string, error) {
	switch c {
	case campaign.Inactivity:
		return "nudge2", nil
	case campaign.RateLock:
		return "nudge3", nil
	case campaign.LaterFollowUp:
		return "nudge4", nil
	}
	return "", infra.WrapRepoErr("campaign is not draft-scoped", nil)
}

func scanDraft(row pgx.Row) (*draft.Draft, error) {
	var d draft.Draft
	var transport string
	var direction *string

	err := row.Scan(
		&d.ID, &transport, &d.PeerID, &d.ExternalUserID,
		&direction, &d.GiveAmount, &d.OfficeID, &d.DesiredDate, &d.Username,
		&d.ClientRequestID, &d.LastStep, &d.SummaryShownAt,
		&d.Nudge2.PlannedAt, &d.Nudge2.SentAt, &d.Nudge2.Answer, &d.Nudge2.AnsweredAt,
		&d.Nudge3.PlannedAt, &d.Nudge3.SentAt, &d.Nudge3.Answer,
		&d.Nudge4.PlannedAt, &d.Nudge4.SentAt, &d.Nudge4.Answer,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NotFoundErr("draft not found")
		}
		return nil, infra.WrapRepoErr("failed to scan draft", err)
	}

	d.Transport = funnel.Transport(transport)
	if direction != nil {
		dir := funnel.Direction(*direction)
		d.Direction = &dir
	}
	return &d, nil
}
