package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"usdt-exchange-bot/internal/domain/draft"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/domain/request"
	"usdt-exchange-bot/internal/infra"
	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/pkg/clock"
	"usdt-exchange-bot/internal/pkg/config"
	"usdt-exchange-bot/internal/pkg/errs"
	"usdt-exchange-bot/internal/pkg/money"
)

const summaryDisclaimer = "Этот курс действителен в течение 2 часов. Зафиксировать его я смогу только после " +
	"получения от вас предоплаты. Для связи с менеджером используйте @coinpointlara."

type SummaryResult struct {
	Rate          float64
	ReceiveAmount float64
	SummaryText   string
	OfficeLabel   string
}

type ConfirmResult struct {
	Created       bool
	AlreadyExists bool
	CRMRequestID  *string
}

// OrderService turns a completed draft into a confirmed exchange order. The
// client_request_id token minted on the draft bounds creation to at-most-once
// no matter how many times the user taps confirm.
type OrderService struct {
	pool     *pgxpool.Pool
	drafts   DraftRepo
	requests RequestRepo
	crm      crm.Client
	clock    clock.Clock
	cfg      config.Nudge
	log      *slog.Logger
}

func NewOrderService(pool *pgxpool.Pool, drafts DraftRepo, requests RequestRepo, crmClient crm.Client, clk clock.Clock, cfg config.Nudge, log *slog.Logger) *OrderService {
	return &OrderService{
		pool:     pool,
		drafts:   drafts,
		requests: requests,
		crm:      crmClient,
		clock:    clk,
		cfg:      cfg,
		log:      log.With("component", "orders"),
	}
}

func newClientRequestID(now time.Time) string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:16] + "-" + fmt.Sprint(now.Unix())
}

func (s *OrderService) ensureClientRequestID(ctx context.Context, d *draft.Draft) (string, error) {
	if d.ClientRequestID != nil && *d.ClientRequestID != "" {
		return *d.ClientRequestID, nil
	}
	now := s.clock.Now()
	token := newClientRequestID(now)
	if err := s.drafts.SetClientRequestID(ctx, s.pool, d.ID, token, now); err != nil {
		return "", err
	}
	d.ClientRequestID = &token
	return token, nil
}

// BuildSummary quotes the exchange: fetches the current rate, computes the
// receive amount once, snapshots the summary text and schedules the
// rate-lock campaign.
func (s *OrderService) BuildSummary(ctx context.Context, transport funnel.Transport, peerID int64) (*SummaryResult, error) {
	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDraftNotFound)
	}
	if !d.ReadyForSummary() {
		return nil, errs.Mark(errs.New("draft is missing intake answers"), errs.ErrDraftNotReady)
	}

	if _, err := s.ensureClientRequestID(ctx, d); err != nil {
		return nil, err
	}

	rate, err := s.crm.GetRate(ctx, *d.OfficeID, string(*d.Direction))
	if err != nil {
		return nil, errs.Wrap(err, "failed to fetch rate")
	}
	officeLabel, err := s.crm.GetOfficeLabel(ctx, *d.OfficeID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to fetch office label")
	}

	receiveAmount := *d.GiveAmount * rate
	summaryText := fmt.Sprintf(
		"Почти готово. Проверьте, пожалуйста, данные заявки – покажу всё одним блоком.\n"+
			"➔ Вы отдаёте: %s %s\n"+
			"➔ Офис: %s\n"+
			"➔ Дата получения: %s\n"+
			"➔ Текущий курс: %v\n"+
			"➔ Вы получаете: %s %s\n\n%s\n\nВсё верно?",
		money.Format(*d.GiveAmount), d.Direction.GiveCurrency(),
		officeLabel,
		d.DesiredDate.Format("02.01.2006"),
		rate,
		money.Format(receiveAmount), d.Direction.ReceiveCurrency(),
		summaryDisclaimer,
	)

	now := s.clock.Now()
	if err := s.drafts.MarkSummaryShown(ctx, s.pool, d.ID, now, now.Add(s.cfg.Nudge3Delay)); err != nil {
		return nil, err
	}

	return &SummaryResult{
		Rate:          rate,
		ReceiveAmount: receiveAmount,
		SummaryText:   summaryText,
		OfficeLabel:   officeLabel,
	}, nil
}

// ConfirmOrder creates the order exactly once per token. Replays, whether
// user taps or racing workers, resolve to AlreadyExists; the unique
// constraint on the token is the arbiter.
func (s *OrderService) ConfirmOrder(ctx context.Context, transport funnel.Transport, peerID int64) (*ConfirmResult, error) {
	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDraftNotFound)
	}
	if !d.ReadyForConfirm() {
		return nil, errs.Mark(errs.New("draft is missing intake answers"), errs.ErrDraftNotReady)
	}

	token, err := s.ensureClientRequestID(ctx, d)
	if err != nil {
		return nil, err
	}

	existing, err := s.requests.GetByClientRequestID(ctx, s.pool, token)
	if err == nil {
		return &ConfirmResult{AlreadyExists: true, CRMRequestID: existing.CRMRequestID}, nil
	}
	if !infra.IsKind(err, infra.KindNotFound) {
		return nil, err
	}

	summary, err := s.BuildSummary(ctx, transport, peerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	req := &request.Request{
		Transport:       transport,
		PeerID:          peerID,
		ExternalUserID:  d.ExternalUserID,
		ClientRequestID: token,
		Direction:       *d.Direction,
		GiveAmount:      *d.GiveAmount,
		OfficeID:        *d.OfficeID,
		DesiredDate:     *d.DesiredDate,
		Rate:            summary.Rate,
		ReceiveAmount:   summary.ReceiveAmount,
		Username:        *d.Username,
		Status:          "created",
		SummaryText:     summary.SummaryText,
		CreatedAt:       now,
	}
	planCampaigns(req, now, s.cfg)

	id, err := s.requests.Create(ctx, s.pool, req)
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			dup, lookupErr := s.requests.GetByClientRequestID(ctx, s.pool, token)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return &ConfirmResult{AlreadyExists: true, CRMRequestID: dup.CRMRequestID}, nil
		}
		return nil, err
	}

	crmID, err := s.crm.CreateRequest(ctx, map[string]any{
		"client_request_id": token,
		"transport":         string(transport),
		"peer_id":           peerID,
		"direction":         string(req.Direction),
		"give_amount":       req.GiveAmount,
		"office_id":         req.OfficeID,
		"desired_date":      req.DesiredDate.Format("2006-01-02"),
		"username":          req.Username,
		"rate":              req.Rate,
		"receive_amount":    req.ReceiveAmount,
	}, token)
	if err != nil {
		// The local order exists either way; surface the CRM trouble to the
		// caller so the user hears "try again later".
		return nil, errs.Wrap(err, "failed to create crm request")
	}

	if crmID != "" {
		if err := s.requests.SetCRMRequestID(ctx, s.pool, id, crmID); err != nil {
			return nil, err
		}
		req.CRMRequestID = &crmID
	}

	if err := s.drafts.SetLastStep(ctx, s.pool, d.ID, funnel.StepDone, s.clock.Now()); err != nil {
		return nil, err
	}

	s.log.Info("order created",
		"request_id", id, "transport", string(transport), "peer_id", peerID)

	return &ConfirmResult{Created: true, CRMRequestID: req.CRMRequestID}, nil
}

// planCampaigns arms every request-scoped campaign at creation time.
func planCampaigns(req *request.Request, now time.Time, cfg config.Nudge) {
	n1 := now.Add(cfg.Nudge1Delay)
	n5 := now.Add(cfg.Nudge5Delay)
	n6 := now.Add(cfg.Nudge6Delay)
	n7 := now.Add(cfg.Nudge7Delay)
	req.Nudge1.PlannedAt = &n1
	req.Nudge5.PlannedAt = &n5
	req.Nudge6.PlannedAt = &n6
	req.Nudge7.PlannedAt = &n7
}
