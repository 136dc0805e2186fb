package messenger

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/pkg/config"
	"usdt-exchange-bot/internal/pkg/errs"
)

const vkAPIVersion = "5.199"

// VKSender delivers through the community messages.send method. Inline
// buttons carry the callback token in their payload field.
type VKSender struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewVKSender(cfg config.VK, client *http.Client) *VKSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &VKSender{
		baseURL: cfg.APIBaseURL,
		token:   cfg.GroupToken,
		client:  client,
	}
}

type vkKeyboard struct {
	Inline  bool         `json:"inline"`
	Buttons [][]vkButton `json:"buttons"`
}

type vkButton struct {
	Action vkButtonAction `json:"action"`
}

type vkButtonAction struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

type vkError struct {
	Error *struct {
		Code    int    `json:"error_code"`
		Message string `json:"error_msg"`
	} `json:"error"`
}

func (s *VKSender) Send(ctx context.Context, _ funnel.Transport, peerID int64, text string, kb Keyboard) error {
	form := url.Values{}
	form.Set("access_token", s.token)
	form.Set("v", vkAPIVersion)
	form.Set("peer_id", strconv.FormatInt(peerID, 10))
	form.Set("random_id", strconv.FormatInt(rand.Int63(), 10))
	form.Set("message", text)

	if len(kb) > 0 {
		vkKb := vkKeyboard{Inline: true}
		for _, row := range kb {
			var vkRow []vkButton
			for _, b := range row {
				payload, err := json.Marshal(map[string]string{"cmd": b.Callback})
				if err != nil {
					return errs.Wrap(err, "failed to marshal vk button payload")
				}
				vkRow = append(vkRow, vkButton{Action: vkButtonAction{
					Type:    "callback",
					Label:   b.Label,
					Payload: string(payload),
				}})
			}
			vkKb.Buttons = append(vkKb.Buttons, vkRow)
		}
		kbJSON, err := json.Marshal(vkKb)
		if err != nil {
			return errs.Wrap(err, "failed to marshal vk keyboard")
		}
		form.Set("keyboard", string(kbJSON))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/method/messages.send", strings.NewReader(form.Encode()))
	if err != nil {
		return errs.Wrap(err, "failed to build vk request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return errs.Wrap(err, "vk send failed")
	}
	defer resp.Body.Close()

	var vkResp vkError
	if err := json.NewDecoder(resp.Body).Decode(&vkResp); err != nil {
		return errs.Wrap(err, "failed to decode vk response")
	}
	if vkResp.Error != nil {
		return errs.New("vk rejected message: " + vkResp.Error.Message)
	}
	return nil
}
