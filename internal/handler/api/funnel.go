package api

import (
	"context"
	"log/slog"
	"strings"

	"usdt-exchange-bot/internal/domain/draft"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/infra/messenger"
	"usdt-exchange-bot/internal/pkg/clock"
	"usdt-exchange-bot/internal/pkg/errs"
	"usdt-exchange-bot/internal/usecase/commands"
)

// IntakeCommands is the slice of the intake service the transports drive.
type IntakeCommands interface {
	Start(ctx context.Context, transport funnel.Transport, peerID int64, externalUserID *int64) (*draft.Draft, error)
	ChooseDirection(ctx context.Context, transport funnel.Transport, peerID int64, raw string) error
	EnterAmount(ctx context.Context, transport funnel.Transport, peerID int64, raw string) ([]crm.Office, error)
	ChooseOffice(ctx context.Context, transport funnel.Transport, peerID int64, officeID string) error
	EnterDate(ctx context.Context, transport funnel.Transport, peerID int64, raw string) error
	DefaultDate(ctx context.Context, transport funnel.Transport, peerID int64) error
	SetUsername(ctx context.Context, transport funnel.Transport, peerID int64, raw string, auto bool) error
	Restart(ctx context.Context, transport funnel.Transport, peerID int64) error
	Get(ctx context.Context, transport funnel.Transport, peerID int64) (*draft.Draft, error)
}

type OrderCommands interface {
	BuildSummary(ctx context.Context, transport funnel.Transport, peerID int64) (*commands.SummaryResult, error)
	ConfirmOrder(ctx context.Context, transport funnel.Transport, peerID int64) (*commands.ConfirmResult, error)
}

type ReplyCommands interface {
	Handle(ctx context.Context, transport funnel.Transport, peerID int64, token string) (*commands.ReplyOutcome, error)
}

// FunnelFlow is the transport-independent conversation driver. Telegram and
// VK webhook handlers normalize their updates into plain messages and
// callback tokens and hand them here.
type FunnelFlow struct {
	intake  IntakeCommands
	orders  OrderCommands
	replies ReplyCommands
	admin   *AdminCommands
	sender  messenger.Sender
	clock   clock.Clock
	log     *slog.Logger
}

func NewFunnelFlow(
	intake IntakeCommands,
	orders OrderCommands,
	replies ReplyCommands,
	admin *AdminCommands,
	sender messenger.Sender,
	clk clock.Clock,
	log *slog.Logger,
) *FunnelFlow {
	return &FunnelFlow{
		intake:  intake,
		orders:  orders,
		replies: replies,
		admin:   admin,
		sender:  sender,
		clock:   clk,
		log:     log.With("component", "funnel"),
	}
}

func directionKeyboard() messenger.Keyboard {
	return messenger.Keyboard{
		messenger.Row(messenger.Button{Label: "USDT в наличные", Callback: "dir:USDT_TO_CASH"}),
		messenger.Row(messenger.Button{Label: "Наличные в USDT", Callback: "dir:CASH_TO_USDT"}),
	}
}

func officesKeyboard(offices []crm.Office) messenger.Keyboard {
	var kb messenger.Keyboard
	for _, o := range offices {
		kb = append(kb, messenger.Row(messenger.Button{Label: o.Label, Callback: "office:" + o.ID}))
	}
	return kb
}

func nextKeyboard() messenger.Keyboard {
	return messenger.Keyboard{
		messenger.Row(messenger.Button{Label: "Далее", Callback: "next"}),
	}
}

func confirmKeyboard() messenger.Keyboard {
	return messenger.Keyboard{
		messenger.Row(messenger.Button{Label: "Да, все отлично", Callback: "confirm:yes"}),
		messenger.Row(messenger.Button{Label: "Нет, хочу внести изменения", Callback: "confirm:no"}),
	}
}

// startSynonyms are free-text triggers that open the funnel, mostly typed by
// VK users where slash commands are unusual.
var startSynonyms = map[string]bool{
	"/start": true,
	"start":  true,
	"старт":  true,
	"начать": true,
	"меню":   true,
}

// HandleMessage routes free text by the draft's last completed step.
func (f *FunnelFlow) HandleMessage(ctx context.Context, transport funnel.Transport, peerID int64, externalUserID *int64, username, text string) {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "/admin_") {
		f.admin.Handle(ctx, transport, peerID, trimmed)
		return
	}

	if startSynonyms[strings.ToLower(trimmed)] || trimmed == "Создать заявку" {
		if _, err := f.intake.Start(ctx, transport, peerID, externalUserID); err != nil {
			f.fail(ctx, transport, peerID, "start", err)
			return
		}
		f.send(ctx, transport, peerID, textStart, directionKeyboard())
		return
	}

	if trimmed == "Информация" {
		f.send(ctx, transport, peerID, textInfo, nil)
		return
	}

	d, err := f.intake.Get(ctx, transport, peerID)
	if err != nil {
		// No conversation yet, point at the entrance.
		f.send(ctx, transport, peerID, textStart, directionKeyboard())
		return
	}

	switch d.LastStep {
	case funnel.StepDirection, funnel.StepAmountWait:
		f.enterAmount(ctx, transport, peerID, trimmed)
	case funnel.StepOffice:
		f.enterDate(ctx, transport, peerID, username, trimmed)
	case funnel.StepDate, funnel.StepDateDefault:
		f.enterUsername(ctx, transport, peerID, trimmed)
	default:
		// Waiting for a button press, free text carries no meaning here.
		f.log.Debug("unroutable message", "transport", transport, "peer_id", peerID, "last_step", d.LastStep)
	}
}

// HandleCallback routes button presses by token prefix.
func (f *FunnelFlow) HandleCallback(ctx context.Context, transport funnel.Transport, peerID int64, externalUserID *int64, username, data string) {
	switch {
	case strings.HasPrefix(data, "dir:"):
		f.chooseDirection(ctx, transport, peerID, strings.TrimPrefix(data, "dir:"))
	case strings.HasPrefix(data, "office:"):
		f.chooseOffice(ctx, transport, peerID, strings.TrimPrefix(data, "office:"))
	case data == "next":
		if err := f.intake.DefaultDate(ctx, transport, peerID); err != nil {
			f.fail(ctx, transport, peerID, "default date", err)
			return
		}
		f.usernameStep(ctx, transport, peerID, username)
	case data == "confirm:yes":
		f.confirm(ctx, transport, peerID)
	case data == "confirm:no":
		if err := f.intake.Restart(ctx, transport, peerID); err != nil {
			f.fail(ctx, transport, peerID, "restart", err)
			return
		}
		f.send(ctx, transport, peerID, textRestart, directionKeyboard())
	case strings.HasPrefix(data, "n"):
		f.campaignReply(ctx, transport, peerID, data)
	default:
		f.log.Debug("unknown callback", "transport", transport, "peer_id", peerID, "data", data)
	}
}

func (f *FunnelFlow) chooseDirection(ctx context.Context, transport funnel.Transport, peerID int64, raw string) {
	if err := f.intake.ChooseDirection(ctx, transport, peerID, raw); err != nil {
		f.fail(ctx, transport, peerID, "choose direction", err)
		return
	}
	f.send(ctx, transport, peerID, textEnterAmount, nil)
}

func (f *FunnelFlow) enterAmount(ctx context.Context, transport funnel.Transport, peerID int64, raw string) {
	offices, err := f.intake.EnterAmount(ctx, transport, peerID, raw)
	switch {
	case errs.Is(err, errs.ErrInvalidAmount):
		f.send(ctx, transport, peerID, textAmountInvalid, nil)
	case errs.Is(err, errs.ErrCRMTemporary), errs.Is(err, errs.ErrCRMPermanent):
		f.send(ctx, transport, peerID, textOfficesUnavailable, nil)
	case err != nil:
		f.fail(ctx, transport, peerID, "enter amount", err)
	default:
		f.send(ctx, transport, peerID, textChooseOffice, officesKeyboard(offices))
	}
}

func (f *FunnelFlow) chooseOffice(ctx context.Context, transport funnel.Transport, peerID int64, officeID string) {
	if err := f.intake.ChooseOffice(ctx, transport, peerID, officeID); err != nil {
		f.fail(ctx, transport, peerID, "choose office", err)
		return
	}
	f.send(ctx, transport, peerID, textChooseDate, nextKeyboard())
}

func (f *FunnelFlow) enterDate(ctx context.Context, transport funnel.Transport, peerID int64, username, raw string) {
	err := f.intake.EnterDate(ctx, transport, peerID, raw)
	switch {
	case errs.Is(err, errs.ErrDateInPast):
		f.send(ctx, transport, peerID, textDateInPast, nil)
	case errs.Is(err, errs.ErrInvalidDate):
		example := f.clock.Now().Format("02.01.2006")
		f.send(ctx, transport, peerID, strings.Replace(textDateInvalid, "%s", example, 1), nil)
	case err != nil:
		f.fail(ctx, transport, peerID, "enter date", err)
	default:
		f.usernameStep(ctx, transport, peerID, username)
	}
}

// usernameStep takes the profile handle when the messenger exposes one and
// asks for it otherwise.
func (f *FunnelFlow) usernameStep(ctx context.Context, transport funnel.Transport, peerID int64, username string) {
	if username == "" {
		f.send(ctx, transport, peerID, textUsernamePrompt, nil)
		return
	}
	if err := f.intake.SetUsername(ctx, transport, peerID, username, true); err != nil {
		// Profile handle failed validation, fall back to asking.
		f.send(ctx, transport, peerID, textUsernamePrompt, nil)
		return
	}
	f.send(ctx, transport, peerID, textUsernameFound, nil)
	f.sendSummary(ctx, transport, peerID)
}

func (f *FunnelFlow) enterUsername(ctx context.Context, transport funnel.Transport, peerID int64, raw string) {
	err := f.intake.SetUsername(ctx, transport, peerID, raw, false)
	switch {
	case errs.Is(err, errs.ErrInvalidUsername):
		f.send(ctx, transport, peerID, textUsernameInvalid, nil)
	case err != nil:
		f.fail(ctx, transport, peerID, "set username", err)
	default:
		f.send(ctx, transport, peerID, textUsernameThanks, nil)
		f.sendSummary(ctx, transport, peerID)
	}
}

func (f *FunnelFlow) sendSummary(ctx context.Context, transport funnel.Transport, peerID int64) {
	summary, err := f.orders.BuildSummary(ctx, transport, peerID)
	switch {
	case errs.Is(err, errs.ErrCRMTemporary), errs.Is(err, errs.ErrCRMPermanent):
		f.send(ctx, transport, peerID, textRateUnavailable, nil)
	case err != nil:
		f.fail(ctx, transport, peerID, "build summary", err)
	default:
		f.send(ctx, transport, peerID, summary.SummaryText, confirmKeyboard())
	}
}

func (f *FunnelFlow) confirm(ctx context.Context, transport funnel.Transport, peerID int64) {
	result, err := f.orders.ConfirmOrder(ctx, transport, peerID)
	switch {
	case errs.Is(err, errs.ErrCRMTemporary):
		f.send(ctx, transport, peerID, textConfirmTemporary, nil)
	case errs.Is(err, errs.ErrCRMPermanent):
		f.send(ctx, transport, peerID, textConfirmPermanent, nil)
	case err != nil:
		f.fail(ctx, transport, peerID, "confirm order", err)
	case result.AlreadyExists:
		f.send(ctx, transport, peerID, textAlreadyCreated, nil)
	default:
		f.send(ctx, transport, peerID, textCreated, nil)
	}
}

func (f *FunnelFlow) campaignReply(ctx context.Context, transport funnel.Transport, peerID int64, token string) {
	outcome, err := f.replies.Handle(ctx, transport, peerID, token)
	if err != nil {
		if errs.Is(err, errs.ErrUnknownAction) {
			f.log.Debug("unknown campaign token", "transport", transport, "peer_id", peerID, "token", token)
			return
		}
		f.fail(ctx, transport, peerID, "campaign reply", err)
		return
	}
	if outcome.Text != "" {
		f.send(ctx, transport, peerID, outcome.Text, nil)
	}
	if outcome.PromptAmount {
		f.send(ctx, transport, peerID, textEnterAmount, nil)
	}
	if outcome.ShowSummary {
		f.sendSummary(ctx, transport, peerID)
	}
}

func (f *FunnelFlow) send(ctx context.Context, transport funnel.Transport, peerID int64, text string, kb messenger.Keyboard) {
	if err := f.sender.Send(ctx, transport, peerID, text, kb); err != nil {
		f.log.Error("reply delivery failed", "transport", transport, "peer_id", peerID, "error", err)
	}
}

func (f *FunnelFlow) fail(ctx context.Context, transport funnel.Transport, peerID int64, op string, err error) {
	f.log.Error("funnel step failed", "op", op, "transport", transport, "peer_id", peerID, "error", err)
	f.send(ctx, transport, peerID, textGenericError, nil)
}
