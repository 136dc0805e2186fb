package commands

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"usdt-exchange-bot/internal/domain/draft"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/pkg/clock"
	"usdt-exchange-bot/internal/pkg/config"
	"usdt-exchange-bot/internal/pkg/errs"
)

// IntakeService walks a conversation through the exchange funnel one answer
// at a time. Every mutation re-arms the inactivity campaign.
type IntakeService struct {
	pool     *pgxpool.Pool
	drafts   DraftRepo
	crm      crm.Client
	clock    clock.Clock
	calendar *clock.BusinessCalendar
	cfg      config.Nudge
}

func NewIntakeService(pool *pgxpool.Pool, drafts DraftRepo, crmClient crm.Client, clk clock.Clock, calendar *clock.BusinessCalendar, cfg config.Nudge) *IntakeService {
	return &IntakeService{
		pool:     pool,
		drafts:   drafts,
		crm:      crmClient,
		clock:    clk,
		calendar: calendar,
		cfg:      cfg,
	}
}

func (s *IntakeService) nudge2At(now time.Time) time.Time {
	return now.Add(s.cfg.Nudge2Delay)
}

// Start opens (or resumes) the conversation's draft.
func (s *IntakeService) Start(ctx context.Context, transport funnel.Transport, peerID int64, externalUserID *int64) (*draft.Draft, error) {
	d, err := s.drafts.GetOrCreate(ctx, s.pool, transport, peerID, externalUserID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to open draft")
	}
	return d, nil
}

func (s *IntakeService) ChooseDirection(ctx context.Context, transport funnel.Transport, peerID int64, raw string) error {
	direction, err := funnel.ParseDirection(raw)
	if err != nil {
		return errs.Mark(err, errs.ErrBadDirection)
	}

	d, err := s.drafts.GetOrCreate(ctx, s.pool, transport, peerID, nil)
	if err != nil {
		return errs.Wrap(err, "failed to open draft")
	}

	now := s.clock.Now()
	return s.drafts.SetDirection(ctx, s.pool, d.ID, direction, now, s.nudge2At(now))
}

// EnterAmount stores the parsed amount and returns the offices to choose
// from next.
func (s *IntakeService) EnterAmount(ctx context.Context, transport funnel.Transport, peerID int64, raw string) ([]crm.Office, error) {
	amount, err := funnel.ParseAmount(raw)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidAmount)
	}

	d, err := s.drafts.GetOrCreate(ctx, s.pool, transport, peerID, nil)
	if err != nil {
		return nil, errs.Wrap(err, "failed to open draft")
	}

	now := s.clock.Now()
	if err := s.drafts.UpdateStep(ctx, s.pool, d.ID, "give_amount", amount, funnel.StepAmount, now, s.nudge2At(now)); err != nil {
		return nil, err
	}

	offices, err := s.crm.GetOffices(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "failed to fetch offices")
	}
	return offices, nil
}

func (s *IntakeService) ChooseOffice(ctx context.Context, transport funnel.Transport, peerID int64, officeID string) error {
	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return errs.Mark(err, errs.ErrDraftNotFound)
	}

	now := s.clock.Now()
	return s.drafts.UpdateStep(ctx, s.pool, d.ID, "office_id", officeID, funnel.StepOffice, now, s.nudge2At(now))
}

// EnterDate accepts a dd.mm.yyyy date not earlier than today in the business
// timezone.
func (s *IntakeService) EnterDate(ctx context.Context, transport funnel.Transport, peerID int64, raw string) error {
	date, err := funnel.ParseDealDate(raw)
	if err != nil {
		return errs.Mark(err, errs.ErrInvalidDate)
	}
	if date.Before(s.calendar.Today()) {
		return errs.Mark(errs.New("deal date is in the past"), errs.ErrDateInPast)
	}

	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return errs.Mark(err, errs.ErrDraftNotFound)
	}

	now := s.clock.Now()
	return s.drafts.UpdateStep(ctx, s.pool, d.ID, "desired_date", date, funnel.StepDate, now, s.nudge2At(now))
}

// DefaultDate picks today's business date, the "Далее" shortcut.
func (s *IntakeService) DefaultDate(ctx context.Context, transport funnel.Transport, peerID int64) error {
	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return errs.Mark(err, errs.ErrDraftNotFound)
	}

	now := s.clock.Now()
	return s.drafts.UpdateStep(ctx, s.pool, d.ID, "desired_date", s.calendar.Today(), funnel.StepDateDefault, now, s.nudge2At(now))
}

// SetUsername normalizes and stores the contact handle. auto marks handles
// picked up from the messenger profile rather than typed in.
func (s *IntakeService) SetUsername(ctx context.Context, transport funnel.Transport, peerID int64, raw string, auto bool) error {
	username, err := funnel.NormalizeUsername(raw)
	if err != nil {
		return errs.Mark(err, errs.ErrInvalidUsername)
	}

	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return errs.Mark(err, errs.ErrDraftNotFound)
	}

	step := funnel.StepUsernameManual
	if auto {
		step = funnel.StepUsernameAuto
	}

	now := s.clock.Now()
	return s.drafts.UpdateStep(ctx, s.pool, d.ID, "username", username, step, now, s.nudge2At(now))
}

// Restart clears every intake answer, the "нет, хочу внести изменения" path.
func (s *IntakeService) Restart(ctx context.Context, transport funnel.Transport, peerID int64) error {
	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return errs.Mark(err, errs.ErrDraftNotFound)
	}
	return s.drafts.Reset(ctx, s.pool, d.ID, s.clock.Now())
}

// Get returns the current draft for a conversation.
func (s *IntakeService) Get(ctx context.Context, transport funnel.Transport, peerID int64) (*draft.Draft, error) {
	d, err := s.drafts.GetByPeer(ctx, s.pool, transport, peerID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDraftNotFound)
	}
	return d, nil
}
