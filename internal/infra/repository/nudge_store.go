package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/infra"
	"usdt-exchange-bot/internal/infra/db"
	"usdt-exchange-bot/internal/nudge"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// claimMaxRetries bounds deadlock retries on the row-locking claim.
const claimMaxRetries = 3

// NudgeStore serves the campaign scheduler: due-candidate queries and the
// guarded claim/skip writes that make each campaign fire at most once.
type NudgeStore struct {
	pool *pgxpool.Pool
}

func NewNudgeStore(pool *pgxpool.Pool) *NudgeStore {
	return &NudgeStore{pool: pool}
}

func (s *NudgeStore) FindDue(ctx context.Context, c campaign.ID, now time.Time, limit int32) ([]nudge.Candidate, error) {
	switch c {
	case campaign.ManagerDelay:
		return s.findDueRequests(ctx, c, now, limit, "")
	case campaign.DealReminder:
		return s.findDueRequests(ctx, c, now, limit, "")
	case campaign.SpecialOffer:
		return s.findDueRequests(ctx, c, now, limit,
			"AND nudge5_sent_at IS NOT NULL AND nudge5_answer IS NULL")
	case campaign.DealDayMorning:
		return s.findDueRequests(ctx, c, now, limit, "")
	case campaign.Inactivity:
		return s.findDueDrafts(ctx, c, now, limit,
			"AND last_step = ANY($3) AND give_amount IS NOT NULL")
	case campaign.RateLock:
		return s.findDueDrafts(ctx, c, now, limit, "AND summary_shown_at IS NOT NULL")
	case campaign.LaterFollowUp:
		return s.findDueDrafts(ctx, c, now, limit, "AND nudge2_answer = 'later'")
	}
	return nil, infra.WrapRepoErr(fmt.Sprintf("unknown campaign: %d", c), nil)
}

func (s *NudgeStore) findDueRequests(ctx context.Context, c campaign.ID, now time.Time, limit int32, extra string) ([]nudge.Candidate, error) {
	prefix, err := requestNudgePrefix(c)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, transport, peer_id, client_request_id, crm_request_id, desired_date, summary_text
		FROM requests
		WHERE %[1]s_planned_at IS NOT NULL AND %[1]s_planned_at <= $1
		  AND %[1]s_sent_at IS NULL AND %[1]s_answer IS NULL
		  %[2]s
		ORDER BY id ASC
		LIMIT $2`, prefix, extra),
		now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query due requests", err)
	}
	defer rows.Close()

	var out []nudge.Candidate
	for rows.Next() {
		var cand nudge.Candidate
		var transport string
		if err := rows.Scan(&cand.ID, &transport, &cand.PeerID,
			&cand.ClientRequestID, &cand.CRMRequestID, &cand.DesiredDate, &cand.SummaryText); err != nil {
			return nil, infra.WrapRepoErr("failed to scan due request", err)
		}
		cand.Transport = funnel.Transport(transport)
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read due requests", err)
	}
	return out, nil
}

func (s *NudgeStore) findDueDrafts(ctx context.Context, c campaign.ID, now time.Time, limit int32, extra string) ([]nudge.Candidate, error) {
	prefix, err := draftNudgePrefix(c)
	if err != nil {
		return nil, err
	}

	args := []any{now, limit}
	if c == campaign.Inactivity {
		args = append(args, funnel.InProgressSteps)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, transport, peer_id, COALESCE(client_request_id, '')
		FROM drafts
		WHERE %[1]s_planned_at IS NOT NULL AND %[1]s_planned_at <= $1
		  AND %[1]s_sent_at IS NULL AND %[1]s_answer IS NULL
		  %[2]s
		ORDER BY id ASC
		LIMIT $2`, prefix, extra),
		args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query due drafts", err)
	}
	defer rows.Close()

	var out []nudge.Candidate
	for rows.Next() {
		var cand nudge.Candidate
		var transport string
		if err := rows.Scan(&cand.ID, &transport, &cand.PeerID, &cand.ClientRequestID); err != nil {
			return nil, infra.WrapRepoErr("failed to scan due draft", err)
		}
		cand.Transport = funnel.Transport(transport)
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read due drafts", err)
	}
	return out, nil
}

// MarkSent claims the candidate: the guarded write succeeds for exactly one
// caller per campaign, and only that caller may deliver the message. The
// manager-delay campaign is the high-volume one, so its claim additionally
// row-locks with SKIP LOCKED to keep racing workers from stalling on each
// other.
func (s *NudgeStore) MarkSent(ctx context.Context, c campaign.ID, candidateID int64, now time.Time) (bool, error) {
	if c == campaign.ManagerDelay {
		return db.RunInTxWithRetry(ctx, s.pool, claimMaxRetries, func(tx db.DBTX) (bool, error) {
			tag, err := tx.Exec(ctx, `
				UPDATE requests SET nudge1_sent_at = $2
				WHERE id IN (
					SELECT id FROM requests
					WHERE id = $1 AND nudge1_sent_at IS NULL AND nudge1_answer IS NULL
					FOR UPDATE SKIP LOCKED
				)`,
				candidateID, now)
			if err != nil {
				return false, infra.WrapRepoErr("failed to claim manager delay nudge", err)
			}
			return tag.RowsAffected() > 0, nil
		})
	}

	table, prefix, err := campaignTarget(c)
	if err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %[1]s SET %[2]s_sent_at = $2
		WHERE id = $1 AND %[2]s_sent_at IS NULL AND %[2]s_answer IS NULL`,
		table, prefix),
		candidateID, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim nudge", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkSkipped terminates the campaign silently: sent_at records when the
// decision was made and the sentinel lands in the answer field.
func (s *NudgeStore) MarkSkipped(ctx context.Context, c campaign.ID, candidateID int64, sentinel string, now time.Time) (bool, error) {
	table, prefix, err := campaignTarget(c)
	if err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %[1]s SET %[2]s_sent_at = $2, %[2]s_answer = $3
		WHERE id = $1 AND %[2]s_sent_at IS NULL AND %[2]s_answer IS NULL`,
		table, prefix),
		candidateID, now, sentinel)
	if err != nil {
		return false, infra.WrapRepoErr("failed to skip nudge", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *NudgeStore) RequestExistsForToken(ctx context.Context, token string) (bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM requests WHERE client_request_id = $1`, token).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, infra.WrapRepoErr("failed to look up request by token", err)
	}
	return true, nil
}

func campaignTarget(c campaign.ID) (table, prefix string, err error) {
	if c.Scope() == campaign.ScopeDraft {
		prefix, err = draftNudgePrefix(c)
		return "drafts", prefix, err
	}
	prefix, err = requestNudgePrefix(c)
	return "requests", prefix, err
}
