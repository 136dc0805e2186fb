package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/pkg/config"
	"usdt-exchange-bot/internal/pkg/errs"
)

// TelegramSender talks to the Bot API sendMessage method directly; the bot
// needs nothing else from the API on the outbound side.
type TelegramSender struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewTelegramSender(cfg config.Bot, client *http.Client) *TelegramSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramSender{
		baseURL: cfg.APIBaseURL,
		token:   cfg.Token,
		client:  client,
	}
}

type tgInlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type tgReplyMarkup struct {
	InlineKeyboard [][]tgInlineButton `json:"inline_keyboard"`
}

type tgSendMessage struct {
	ChatID      int64          `json:"chat_id"`
	Text        string         `json:"text"`
	ReplyMarkup *tgReplyMarkup `json:"reply_markup,omitempty"`
}

type tgResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *TelegramSender) Send(ctx context.Context, _ funnel.Transport, peerID int64, text string, kb Keyboard) error {
	payload := tgSendMessage{ChatID: peerID, Text: text}
	if len(kb) > 0 {
		markup := tgReplyMarkup{}
		for _, row := range kb {
			var tgRow []tgInlineButton
			for _, b := range row {
				tgRow = append(tgRow, tgInlineButton{Text: b.Label, CallbackData: b.Callback})
			}
			markup.InlineKeyboard = append(markup.InlineKeyboard, tgRow)
		}
		payload.ReplyMarkup = &markup
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "failed to marshal telegram message")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, "failed to build telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errs.Wrap(err, "telegram send failed")
	}
	defer resp.Body.Close()

	var tgResp tgResponse
	if err := json.NewDecoder(resp.Body).Decode(&tgResp); err != nil {
		return errs.Wrap(err, "failed to decode telegram response")
	}
	if !tgResp.OK {
		return errs.New("telegram rejected message: " + tgResp.Description)
	}
	return nil
}
