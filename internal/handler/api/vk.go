package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/pkg/config"

	"github.com/gin-gonic/gin"
)

// VKHandler receives Callback API events. VK expects the literal body "ok"
// for every handled event and the configured confirmation string for the
// one-time confirmation handshake.
type VKHandler struct {
	flow *FunnelFlow
	cfg  config.VK
	log  *slog.Logger
}

func NewVKHandler(flow *FunnelFlow, cfg config.VK, log *slog.Logger) *VKHandler {
	return &VKHandler{
		flow: flow,
		cfg:  cfg,
		log:  log.With("component", "vk_webhook"),
	}
}

type vkCallback struct {
	Type    string          `json:"type"`
	GroupID int64           `json:"group_id"`
	Secret  string          `json:"secret"`
	Object  json.RawMessage `json:"object"`
}

type vkMessageNew struct {
	Message struct {
		PeerID  int64  `json:"peer_id"`
		FromID  int64  `json:"from_id"`
		Text    string `json:"text"`
		Payload string `json:"payload"`
	} `json:"message"`
}

type vkMessageEvent struct {
	UserID  int64 `json:"user_id"`
	PeerID  int64 `json:"peer_id"`
	Payload struct {
		Cmd string `json:"cmd"`
	} `json:"payload"`
}

func (h *VKHandler) Webhook(c *gin.Context) {
	var cb vkCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		h.log.Warn("malformed vk callback", "error", err)
		c.String(http.StatusOK, "ok")
		return
	}

	if cb.Type == "confirmation" {
		c.String(http.StatusOK, h.cfg.Confirmation)
		return
	}

	if h.cfg.Secret != "" && cb.Secret != h.cfg.Secret {
		h.log.Warn("vk secret mismatch", "group_id", cb.GroupID)
		c.String(http.StatusOK, "ok")
		return
	}

	ctx := c.Request.Context()

	switch cb.Type {
	case "message_new":
		var ev vkMessageNew
		if err := json.Unmarshal(cb.Object, &ev); err != nil {
			h.log.Warn("malformed message_new object", "error", err)
			break
		}
		fromID := ev.Message.FromID
		// Text keyboard presses arrive as messages carrying the button payload.
		if cmd := vkPayloadCmd(ev.Message.Payload); cmd != "" {
			h.flow.HandleCallback(ctx, funnel.TransportVK, ev.Message.PeerID, &fromID, "", cmd)
			break
		}
		h.flow.HandleMessage(ctx, funnel.TransportVK, ev.Message.PeerID, &fromID, "", ev.Message.Text)

	case "message_event":
		var ev vkMessageEvent
		if err := json.Unmarshal(cb.Object, &ev); err != nil {
			h.log.Warn("malformed message_event object", "error", err)
			break
		}
		userID := ev.UserID
		h.flow.HandleCallback(ctx, funnel.TransportVK, ev.PeerID, &userID, "", ev.Payload.Cmd)

	default:
		h.log.Debug("unhandled vk event", "type", cb.Type)
	}

	c.String(http.StatusOK, "ok")
}

func vkPayloadCmd(raw string) string {
	if raw == "" {
		return ""
	}
	var payload struct {
		Cmd string `json:"cmd"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ""
	}
	return payload.Cmd
}
