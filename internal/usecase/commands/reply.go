package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/pkg/clock"
	"usdt-exchange-bot/internal/pkg/config"
	"usdt-exchange-bot/internal/pkg/errs"
)

// ReplyOutcome tells the transport handler what to do after a campaign
// button press: say Text (empty means stay silent), and optionally resume
// the intake flow.
type ReplyOutcome struct {
	Text         string
	ShowSummary  bool
	PromptAmount bool
}

// ReplyService handles campaign button presses. Answers are write-once: the
// first press wins, replays are acknowledged without side effects.
type ReplyService struct {
	pool     *pgxpool.Pool
	drafts   DraftRepo
	requests RequestRepo
	events   *EventEmitter
	clock    clock.Clock
	cfg      config.Nudge
}

func NewReplyService(pool *pgxpool.Pool, drafts DraftRepo, requests RequestRepo, events *EventEmitter, clk clock.Clock, cfg config.Nudge) *ReplyService {
	return &ReplyService{
		pool:     pool,
		drafts:   drafts,
		requests: requests,
		events:   events,
		clock:    clk,
		cfg:      cfg,
	}
}

// Handle dispatches one callback token of the form "n<campaign>:<action>"
// or "n<campaign>:<action>:<request_id>".
func (s *ReplyService) Handle(ctx context.Context, transport funnel.Transport, peerID int64, token string) (*ReplyOutcome, error) {
	parts := strings.Split(token, ":")
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "n") {
		return nil, errs.Mark(errs.New("malformed callback token"), errs.ErrUnknownAction)
	}

	n, err := strconv.Atoi(parts[0][1:])
	if err != nil {
		return nil, errs.Mark(errs.New("malformed campaign number"), errs.ErrUnknownAction)
	}
	action := parts[1]

	switch campaign.ID(n) {
	case campaign.ManagerDelay:
		return s.handleManagerDelay(ctx, transport, peerID, action)
	case campaign.Inactivity:
		return s.handleInactivity(ctx, transport, peerID, action)
	case campaign.RateLock:
		return s.handleRateLock(ctx, transport, peerID, action)
	case campaign.LaterFollowUp:
		return s.handleLaterFollowUp(ctx, transport, peerID, action)
	case campaign.DealReminder, campaign.SpecialOffer, campaign.DealDayMorning:
		if len(parts) < 3 {
			return nil, errs.Mark(errs.New("missing request id in token"), errs.ErrUnknownAction)
		}
		requestID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, errs.Mark(errs.New("malformed request id in token"), errs.ErrUnknownAction)
		}
		return s.handleOrderCampaign(ctx, campaign.ID(n), transport, peerID, requestID, action)
	}
	return nil, errs.Mark(errs.New("unknown campaign in token"), errs.ErrUnknownAction)
}

func (s *ReplyService) handleManagerDelay(ctx context.Context, transport funnel.Transport, peerID int64, action string) (*ReplyOutcome, error) {
	var answer, text string
	switch action {
	case "yes":
		answer, text = campaign.AnswerActual, "Отлично ✅ Передал менеджеру, он свяжется с вами."
	case "no":
		answer, text = campaign.AnswerNotActual, "Понял ✅ Если понадобится обмен — можете начать заново через /start."
	case "manager":
		answer, text = campaign.AnswerManager, "Конечно. Напишите менеджеру напрямую: @coinpointlara"
	default:
		return nil, errs.Mark(errs.New("unknown manager delay action"), errs.ErrUnknownAction)
	}

	req, err := s.requests.GetLatestByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return &ReplyOutcome{Text: "Заявка не найдена. Нажмите /start чтобы создать новую."}, nil
	}

	first, err := s.requests.AnswerNudge(ctx, s.pool, req.ID, campaign.ManagerDelay, answer, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !first {
		return &ReplyOutcome{}, nil
	}

	s.events.Emit(ctx, "nudge1", answer, peerID, req.ClientRequestID, req.CRMRequestID)
	return &ReplyOutcome{Text: text}, nil
}

func (s *ReplyService) handleInactivity(ctx context.Context, transport funnel.Transport, peerID int64, action string) (*ReplyOutcome, error) {
	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return &ReplyOutcome{Text: "Нажмите /start чтобы начать заново."}, nil
	}

	token := ""
	if d.ClientRequestID != nil {
		token = *d.ClientRequestID
	}
	now := s.clock.Now()

	switch action {
	case "continue":
		first, err := s.drafts.AnswerNudge(ctx, s.pool, d.ID, campaign.Inactivity, campaign.AnswerContinue, now)
		if err != nil {
			return nil, err
		}
		if first {
			s.events.Emit(ctx, "nudge2", campaign.AnswerContinue, peerID, token, nil)
		}
		// Resume where the user left off, even on a replayed press.
		if d.ReadyForSummary() {
			return &ReplyOutcome{ShowSummary: true}, nil
		}
		if d.GiveAmount == nil {
			// The transport owns the prompt wording.
			return &ReplyOutcome{PromptAmount: true}, nil
		}
		return &ReplyOutcome{Text: "Нажмите /start чтобы продолжить."}, nil

	case "manager":
		first, err := s.drafts.AnswerNudge(ctx, s.pool, d.ID, campaign.Inactivity, campaign.AnswerManager, now)
		if err != nil {
			return nil, err
		}
		if !first {
			return &ReplyOutcome{}, nil
		}
		s.events.Emit(ctx, "nudge2", campaign.AnswerManager, peerID, token, nil)
		return &ReplyOutcome{Text: "Передал запрос менеджеру ✅ Если нужно — можете написать напрямую: @coinpointlara"}, nil

	case "later":
		first, err := s.drafts.AnswerInactivityLater(ctx, s.pool, d.ID, now, now.Add(s.cfg.Nudge4Delay))
		if err != nil {
			return nil, err
		}
		if !first {
			return &ReplyOutcome{}, nil
		}
		s.events.Emit(ctx, "nudge2", campaign.AnswerLater, peerID, token, nil)
		return &ReplyOutcome{Text: "Хорошо, понял. Если решите продолжить — нажмите /start."}, nil
	}
	return nil, errs.Mark(errs.New("unknown inactivity action"), errs.ErrUnknownAction)
}

func (s *ReplyService) handleRateLock(ctx context.Context, transport funnel.Transport, peerID int64, action string) (*ReplyOutcome, error) {
	if action != "yes" && action != "no" {
		return nil, errs.Mark(errs.New("unknown rate lock action"), errs.ErrUnknownAction)
	}

	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return &ReplyOutcome{}, nil
	}

	first, err := s.drafts.AnswerNudge(ctx, s.pool, d.ID, campaign.RateLock, action, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !first {
		return &ReplyOutcome{}, nil
	}

	token := ""
	if d.ClientRequestID != nil {
		token = *d.ClientRequestID
	}
	s.events.Emit(ctx, "nudge3", action, peerID, token, nil)

	if action == "yes" {
		return &ReplyOutcome{Text: "Отлично ✅ Передал менеджеру, он поможет зафиксировать условия."}, nil
	}
	return &ReplyOutcome{Text: "Хорошо 👍 Если решите продолжить — нажмите /start."}, nil
}

func (s *ReplyService) handleLaterFollowUp(ctx context.Context, transport funnel.Transport, peerID int64, action string) (*ReplyOutcome, error) {
	if action != "yes" {
		return nil, errs.Mark(errs.New("unknown follow-up action"), errs.ErrUnknownAction)
	}

	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return &ReplyOutcome{}, nil
	}

	first, err := s.drafts.AnswerNudge(ctx, s.pool, d.ID, campaign.LaterFollowUp, campaign.AnswerYes, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !first {
		return &ReplyOutcome{}, nil
	}

	token := ""
	if d.ClientRequestID != nil {
		token = *d.ClientRequestID
	}
	s.events.Emit(ctx, "nudge4", campaign.AnswerYes, peerID, token, nil)
	return &ReplyOutcome{Text: "Отлично ✅ Передал менеджеру, он свяжется с вами."}, nil
}

// handleOrderCampaign covers campaigns 5-7: the token names a concrete
// request, which must belong to the responder.
func (s *ReplyService) handleOrderCampaign(ctx context.Context, c campaign.ID, transport funnel.Transport, peerID int64, requestID int64, action string) (*ReplyOutcome, error) {
	var answer string
	switch action {
	case "yes":
		answer = campaign.AnswerYesUpper
	case "no":
		answer = campaign.AnswerNoUpper
	default:
		return nil, errs.Mark(errs.New("unknown order campaign action"), errs.ErrUnknownAction)
	}

	req, err := s.requests.GetByID(ctx, s.pool, requestID)
	if err != nil || req.Transport != transport || req.PeerID != peerID {
		return &ReplyOutcome{Text: "Заявка не найдена"}, nil
	}

	first, err := s.requests.AnswerNudge(ctx, s.pool, req.ID, c, answer, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !first {
		return &ReplyOutcome{Text: "Ответ уже получен"}, nil
	}

	s.events.Emit(ctx, "nudge"+strconv.Itoa(int(c)), action, peerID, req.ClientRequestID, req.CRMRequestID)

	if answer == campaign.AnswerYesUpper {
		return &ReplyOutcome{Text: "Отлично. Передал менеджеру, он свяжется с вами в Telegram."}, nil
	}
	return &ReplyOutcome{Text: "Хорошо, понял. Если понадобится помощь — пишите @coinpointlara."}, nil
}
