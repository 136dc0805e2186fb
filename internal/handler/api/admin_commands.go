package api

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/domain/request"
	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/infra/messenger"
	"usdt-exchange-bot/internal/pkg/config"
)

// AdminReads is the query surface the admin commands and API share.
type AdminReads interface {
	RecentRequests(ctx context.Context, limit int32) ([]*request.Request, error)
	RequestByID(ctx context.Context, id int64) (*request.Request, error)
}

// AdminCommands serves the /admin_* chat commands. Access is limited to the
// configured peer IDs; mock-only commands additionally require CRM_MODE=mock.
type AdminCommands struct {
	queries AdminReads
	crm     crm.Client
	sender  messenger.Sender
	peers   map[int64]struct{}
	crmMode string
	log     *slog.Logger
}

func NewAdminCommands(queries AdminReads, crmClient crm.Client, sender messenger.Sender, adminCfg config.Admin, crmCfg config.CRM, log *slog.Logger) *AdminCommands {
	return &AdminCommands{
		queries: queries,
		crm:     crmClient,
		sender:  sender,
		peers:   adminCfg.PeerIDs(),
		crmMode: strings.ToLower(strings.TrimSpace(crmCfg.Mode)),
		log:     log.With("component", "admin_commands"),
	}
}

const (
	adminDenyText     = "Команда доступна только администратору."
	adminMockOnlyText = "Команда доступна только в crm_mode=mock."
	adminBadIDText    = "request_id должен быть числом."
	adminNotFoundText = "Заявка не найдена."
	adminNoCRMText    = "Заявка не найдена или у неё нет crm_request_id."
)

func (a *AdminCommands) Handle(ctx context.Context, transport funnel.Transport, peerID int64, text string) {
	if _, ok := a.peers[peerID]; !ok {
		a.reply(ctx, transport, peerID, adminDenyText)
		return
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "/admin_requests":
		a.listRequests(ctx, transport, peerID)
	case "/admin_request":
		a.showRequest(ctx, transport, peerID, parts[1:])
	case "/admin_crm_get":
		a.crmGet(ctx, transport, peerID, parts[1:])
	case "/admin_crm_set":
		a.crmSet(ctx, transport, peerID, parts[1:])
	case "/admin_crm_events":
		a.crmEvents(ctx, transport, peerID)
	default:
		a.reply(ctx, transport, peerID, "Неизвестная команда.")
	}
}

func (a *AdminCommands) listRequests(ctx context.Context, transport funnel.Transport, peerID int64) {
	rows, err := a.queries.RecentRequests(ctx, 10)
	if err != nil {
		a.log.Error("admin list failed", "error", err)
		a.reply(ctx, transport, peerID, textGenericError)
		return
	}
	if len(rows) == 0 {
		a.reply(ctx, transport, peerID, "Заявок пока нет.")
		return
	}

	lines := []string{"Последние заявки:"}
	for _, r := range rows {
		crmID := "-"
		if r.CRMRequestID != nil {
			crmID = *r.CRMRequestID
		}
		lines = append(lines, fmt.Sprintf(
			"• #%d | peer=%d | office=%s | date=%s | crm=%s",
			r.ID, r.PeerID, r.OfficeID, r.DesiredDate.Format("02.01.2006"), crmID,
		))
	}
	a.reply(ctx, transport, peerID, strings.Join(lines, "\n"))
}

func (a *AdminCommands) showRequest(ctx context.Context, transport funnel.Transport, peerID int64, args []string) {
	if len(args) < 1 {
		a.reply(ctx, transport, peerID, "Использование: /admin_request <request_id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		a.reply(ctx, transport, peerID, adminBadIDText)
		return
	}

	r, err := a.queries.RequestByID(ctx, id)
	if err != nil {
		a.reply(ctx, transport, peerID, adminNotFoundText)
		return
	}

	crmID := "-"
	if r.CRMRequestID != nil {
		crmID = *r.CRMRequestID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Заявка #%d\n", r.ID)
	fmt.Fprintf(&b, "peer: %d (%s)\n", r.PeerID, r.Transport)
	fmt.Fprintf(&b, "crm_request_id: %s\n", crmID)
	fmt.Fprintf(&b, "direction: %s\n", r.Direction)
	fmt.Fprintf(&b, "give_amount: %g\n", r.GiveAmount)
	fmt.Fprintf(&b, "office_id: %s\n", r.OfficeID)
	fmt.Fprintf(&b, "desired_date: %s\n", r.DesiredDate.Format("02.01.2006"))
	fmt.Fprintf(&b, "rate: %g\n", r.Rate)
	fmt.Fprintf(&b, "receive_amount: %g\n", r.ReceiveAmount)
	fmt.Fprintf(&b, "username: %s\n\n", r.Username)
	for _, c := range []campaign.ID{campaign.DealReminder, campaign.SpecialOffer, campaign.DealDayMorning} {
		st := r.Campaign(c)
		answer := "-"
		if st.Answer != nil {
			answer = *st.Answer
		}
		fmt.Fprintf(&b, "n%d: planned=%s sent=%s answer=%s\n",
			c, formatTime(st.PlannedAt), formatTime(st.SentAt), answer)
	}
	a.reply(ctx, transport, peerID, b.String())
}

func (a *AdminCommands) crmGet(ctx context.Context, transport funnel.Transport, peerID int64, args []string) {
	if len(args) < 1 {
		a.reply(ctx, transport, peerID, "Использование: /admin_crm_get <request_id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		a.reply(ctx, transport, peerID, adminBadIDText)
		return
	}

	r, err := a.queries.RequestByID(ctx, id)
	if err != nil || r.CRMRequestID == nil {
		a.reply(ctx, transport, peerID, adminNoCRMText)
		return
	}

	st, err := a.crm.CheckStatus(ctx, *r.CRMRequestID)
	if err != nil {
		a.log.Error("admin crm status failed", "request_id", id, "error", err)
		a.reply(ctx, transport, peerID, textGenericError)
		return
	}
	status := st.Status
	if status == "" {
		status = "-"
	}
	a.reply(ctx, transport, peerID, fmt.Sprintf("CRM status для заявки #%d: %s", r.ID, status))
}

func (a *AdminCommands) crmSet(ctx context.Context, transport funnel.Transport, peerID int64, args []string) {
	if a.crmMode != "mock" {
		a.reply(ctx, transport, peerID, adminMockOnlyText)
		return
	}
	if len(args) < 2 {
		a.reply(ctx, transport, peerID, "Использование: /admin_crm_set <request_id> <status>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		a.reply(ctx, transport, peerID, adminBadIDText)
		return
	}
	status := strings.TrimSpace(args[1])
	if status == "" {
		a.reply(ctx, transport, peerID, "status не может быть пустым.")
		return
	}

	r, err := a.queries.RequestByID(ctx, id)
	if err != nil || r.CRMRequestID == nil {
		a.reply(ctx, transport, peerID, adminNoCRMText)
		return
	}

	controls, ok := a.crm.(crm.MockControls)
	if !ok {
		a.reply(ctx, transport, peerID, "Текущий CRM клиент не поддерживает установку статуса.")
		return
	}
	controls.SetStatus(*r.CRMRequestID, crm.Status{Status: status})
	a.reply(ctx, transport, peerID, fmt.Sprintf("Установлен CRM status для заявки #%d: %s", r.ID, status))
}

func (a *AdminCommands) crmEvents(ctx context.Context, transport funnel.Transport, peerID int64) {
	if a.crmMode != "mock" {
		a.reply(ctx, transport, peerID, adminMockOnlyText)
		return
	}
	controls, ok := a.crm.(crm.MockControls)
	if !ok {
		a.reply(ctx, transport, peerID, "Текущий CRM клиент не поддерживает просмотр событий.")
		return
	}

	events := controls.Events()
	if len(events) == 0 {
		a.reply(ctx, transport, peerID, "Событий пока нет.")
		return
	}
	if len(events) > 10 {
		events = events[len(events)-10:]
	}

	lines := []string{"Последние события (mock CRM):"}
	for _, e := range events {
		action, _ := e.Payload["action"].(string)
		if action == "" {
			action = "-"
		}
		lines = append(lines, fmt.Sprintf("• %s | %s", e.Kind, action))
	}
	a.reply(ctx, transport, peerID, strings.Join(lines, "\n"))
}

func (a *AdminCommands) reply(ctx context.Context, transport funnel.Transport, peerID int64, text string) {
	if err := a.sender.Send(ctx, transport, peerID, text, nil); err != nil {
		a.log.Error("admin reply delivery failed", "peer_id", peerID, "error", err)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
