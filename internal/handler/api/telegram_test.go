//go:build unit

package api_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"usdt-exchange-bot/internal/domain/draft"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/handler/api"
	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/pkg/clock"
	"usdt-exchange-bot/internal/pkg/config"
	"usdt-exchange-bot/internal/pkg/errs"
	"usdt-exchange-bot/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

const webhookSecret = "hook-secret"

type TelegramHandlerTestSuite struct {
	suite.Suite
	router  *gin.Engine
	intake  *fakeIntake
	orders  *fakeOrders
	replies *fakeReplies
	sender  *recordSender
}

func (s *TelegramHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.intake = &fakeIntake{}
	s.orders = &fakeOrders{
		summary: &commands.SummaryResult{SummaryText: "сводка"},
		confirm: &commands.ConfirmResult{Created: true},
	}
	s.replies = &fakeReplies{}
	s.sender = &recordSender{}

	log := slog.New(slog.DiscardHandler)
	adminCommands := api.NewAdminCommands(
		&fakeReads{}, crm.NewMockClient(), s.sender,
		config.Admin{IDs: "900"}, config.CRM{Mode: "mock"}, log,
	)
	flow := api.NewFunnelFlow(
		s.intake, s.orders, s.replies, adminCommands, s.sender,
		clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)), log,
	)
	handler := api.NewTelegramHandler(flow, config.Bot{Token: "t", WebhookSecret: webhookSecret}, log)
	s.router.POST("/webhook/telegram", handler.Webhook)
}

func (s *TelegramHandlerTestSuite) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", webhookSecret)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func messageUpdate(chatID int64, username, text string) string {
	return fmt.Sprintf(
		`{"update_id":1,"message":{"message_id":10,"from":{"id":%d,"username":%q},"chat":{"id":%d},"text":%q}}`,
		chatID, username, chatID, text,
	)
}

func callbackUpdate(chatID int64, data string) string {
	return fmt.Sprintf(
		`{"update_id":2,"callback_query":{"id":"cb1","from":{"id":%d,"username":"client"},"message":{"message_id":11,"chat":{"id":%d}},"data":%q}}`,
		chatID, chatID, data,
	)
}

func (s *TelegramHandlerTestSuite) TestSecretEnforced() {
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", bytes.NewBufferString(messageUpdate(100, "client", "/start")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusForbidden, w.Code)
	s.False(s.intake.called("Start"))
}

func (s *TelegramHandlerTestSuite) TestMalformedUpdateRejected() {
	w := s.post(`{"update_id":`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TelegramHandlerTestSuite) TestStartCommand() {
	w := s.post(messageUpdate(100, "client", "/start"))

	s.Equal(http.StatusOK, w.Code)
	s.True(s.intake.called("Start"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Contains(msg.Text, "оформить заявку на обмен USDT")
	s.Require().Len(msg.Keyboard, 2)
	s.Equal("dir:USDT_TO_CASH", msg.Keyboard[0][0].Callback)
	s.Equal("dir:CASH_TO_USDT", msg.Keyboard[1][0].Callback)
}

func (s *TelegramHandlerTestSuite) TestDirectionCallback() {
	w := s.post(callbackUpdate(100, "dir:USDT_TO_CASH"))

	s.Equal(http.StatusOK, w.Code)
	s.True(s.intake.called("ChooseDirection:USDT_TO_CASH"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Contains(msg.Text, "сумму, которую вы отдаёте")
}

func (s *TelegramHandlerTestSuite) TestAmountRoutedByLastStep() {
	s.intake.draft = &draft.Draft{ID: 1, Transport: funnel.TransportTelegram, PeerID: 100, LastStep: funnel.StepDirection}
	s.intake.offices = []crm.Office{{ID: "office-center", Label: "Центральный офис"}}

	w := s.post(messageUpdate(100, "client", "1500,50"))

	s.Equal(http.StatusOK, w.Code)
	s.True(s.intake.called("EnterAmount:1500,50"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Contains(msg.Text, "где вам удобнее провести обмен")
	s.Require().Len(msg.Keyboard, 1)
	s.Equal("office:office-center", msg.Keyboard[0][0].Callback)
}

func (s *TelegramHandlerTestSuite) TestInvalidAmountReprompts() {
	s.intake.draft = &draft.Draft{ID: 1, LastStep: funnel.StepDirection}
	s.intake.amountErr = errs.Mark(errs.New("bad"), errs.ErrInvalidAmount)

	s.post(messageUpdate(100, "client", "не число"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Contains(msg.Text, "Введите число больше 0")
}

func (s *TelegramHandlerTestSuite) TestPastDateReprompts() {
	s.intake.draft = &draft.Draft{ID: 1, LastStep: funnel.StepOffice}
	s.intake.dateErr = errs.Mark(errs.New("past"), errs.ErrDateInPast)

	s.post(messageUpdate(100, "client", "01.01.2020"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Equal("Дата не может быть в прошлом. Введите другую дату.", msg.Text)
}

func (s *TelegramHandlerTestSuite) TestDateAcceptedLeadsToSummary() {
	s.intake.draft = &draft.Draft{ID: 1, LastStep: funnel.StepOffice}

	s.post(messageUpdate(100, "client", "24.03.2025"))

	// Profile username present, so the flow jumps straight to the summary.
	s.True(s.intake.called("SetUsername:client"))
	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Equal("сводка", msg.Text)
	s.Require().Len(msg.Keyboard, 2)
	s.Equal("confirm:yes", msg.Keyboard[0][0].Callback)
	s.Equal("confirm:no", msg.Keyboard[1][0].Callback)
}

func (s *TelegramHandlerTestSuite) TestConfirmYesCreatesOrder() {
	s.post(callbackUpdate(100, "confirm:yes"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Contains(msg.Text, "Готово ✅ Заявка создана")
}

func (s *TelegramHandlerTestSuite) TestConfirmYesAlreadyExists() {
	s.orders.confirm = &commands.ConfirmResult{AlreadyExists: true}

	s.post(callbackUpdate(100, "confirm:yes"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Contains(msg.Text, "Заявка уже создана ✅")
}

func (s *TelegramHandlerTestSuite) TestConfirmTemporaryCRMFailure() {
	s.orders.confirmErr = errs.Mark(errs.New("boom"), errs.ErrCRMTemporary)

	s.post(callbackUpdate(100, "confirm:yes"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Contains(msg.Text, "временная ошибка")
}

func (s *TelegramHandlerTestSuite) TestConfirmNoRestartsFunnel() {
	s.post(callbackUpdate(100, "confirm:no"))

	s.True(s.intake.called("Restart"))
	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Contains(msg.Text, "давайте поправим")
	s.Len(msg.Keyboard, 2)
}

func (s *TelegramHandlerTestSuite) TestNudgeCallbackRouted() {
	s.replies.outcome = &commands.ReplyOutcome{Text: "Отлично ✅"}

	s.post(callbackUpdate(100, "n1:yes"))

	s.Require().Len(s.replies.tokens, 1)
	s.Equal("n1:yes", s.replies.tokens[0])
	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Equal("Отлично ✅", msg.Text)
}

func (s *TelegramHandlerTestSuite) TestMalformedNudgeTokenDroppedSilently() {
	s.replies.err = errs.Mark(errs.New("malformed callback token"), errs.ErrUnknownAction)

	s.post(callbackUpdate(100, "nonsense"))

	_, ok := s.sender.last()
	s.False(ok)
}

func (s *TelegramHandlerTestSuite) TestNudgeContinueRepromptsAmount() {
	s.replies.outcome = &commands.ReplyOutcome{PromptAmount: true}

	s.post(callbackUpdate(100, "n2:continue"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Equal("Введите, пожалуйста, сумму, которую вы отдаёте.", msg.Text)
}

func (s *TelegramHandlerTestSuite) TestNudgeContinueResumesSummary() {
	s.replies.outcome = &commands.ReplyOutcome{ShowSummary: true}

	s.post(callbackUpdate(100, "n2:continue"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Equal("сводка", msg.Text)
}

func (s *TelegramHandlerTestSuite) TestAdminCommandDeniedForStranger() {
	s.post(messageUpdate(100, "client", "/admin_requests"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Equal("Команда доступна только администратору.", msg.Text)
}

func (s *TelegramHandlerTestSuite) TestAdminCommandAllowedForAdmin() {
	s.post(messageUpdate(900, "boss", "/admin_requests"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.Equal("Заявок пока нет.", msg.Text)
}

func (s *TelegramHandlerTestSuite) TestTextWithoutDraftPointsAtStart() {
	s.post(messageUpdate(100, "client", "привет"))

	msg, ok := s.sender.last()
	s.Require().True(ok)
	s.True(strings.HasPrefix(msg.Text, "Привет!"))
}

func TestTelegramHandlerSuite(t *testing.T) {
	suite.Run(t, new(TelegramHandlerTestSuite))
}
