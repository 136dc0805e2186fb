package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/pkg/config"

	"github.com/gin-gonic/gin"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramHandler receives Bot API webhook updates and feeds them into the
// funnel. Processing failures still answer 200: Telegram redelivers non-2xx
// updates and every flow error already reaches the user as a chat message.
type TelegramHandler struct {
	flow *FunnelFlow
	cfg  config.Bot
	log  *slog.Logger
}

func NewTelegramHandler(flow *FunnelFlow, cfg config.Bot, log *slog.Logger) *TelegramHandler {
	return &TelegramHandler{
		flow: flow,
		cfg:  cfg,
		log:  log.With("component", "telegram_webhook"),
	}
}

type tgUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgMessage struct {
	MessageID int64   `json:"message_id"`
	From      *tgUser `json:"from"`
	Chat      tgChat  `json:"chat"`
	Text      string  `json:"text"`
}

type tgCallbackQuery struct {
	ID      string     `json:"id"`
	From    tgUser     `json:"from"`
	Message *tgMessage `json:"message"`
	Data    string     `json:"data"`
}

type tgUpdate struct {
	UpdateID      int64            `json:"update_id"`
	Message       *tgMessage       `json:"message"`
	CallbackQuery *tgCallbackQuery `json:"callback_query"`
}

func (h *TelegramHandler) Webhook(c *gin.Context) {
	if h.cfg.WebhookSecret != "" {
		got := c.GetHeader(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.cfg.WebhookSecret)) != 1 {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
	}

	var update tgUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.log.Warn("malformed telegram update", "error", err)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	ctx := c.Request.Context()

	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil {
			h.log.Warn("callback without message", "update_id", update.UpdateID)
			break
		}
		userID := cb.From.ID
		h.flow.HandleCallback(ctx, funnel.TransportTelegram, cb.Message.Chat.ID, &userID, cb.From.Username, cb.Data)

	case update.Message != nil && update.Message.From != nil:
		msg := update.Message
		userID := msg.From.ID
		h.flow.HandleMessage(ctx, funnel.TransportTelegram, msg.Chat.ID, &userID, msg.From.Username, msg.Text)

	default:
		h.log.Debug("update without routable content", "update_id", update.UpdateID)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
