package messenger

import (
	"context"

	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/pkg/errs"
)

// Button is one inline keyboard button; Callback is the opaque token the
// channel echoes back when the button is tapped.
type Button struct {
	Label    string
	Callback string
}

// Keyboard is rendered as rows of inline buttons.
type Keyboard [][]Button

func Row(buttons ...Button) []Button {
	return buttons
}

// Sender delivers one message to one peer. Delivery is fire-and-forget from
// the caller's perspective: failures are returned for logging, never retried
// by the adapter.
type Sender interface {
	Send(ctx context.Context, transport funnel.Transport, peerID int64, text string, kb Keyboard) error
}

var ErrUnsupportedTransport = errs.New("unsupported transport")

// Router fans a send out to the adapter owning the transport.
type Router struct {
	telegram Sender
	vk       Sender
}

func NewRouter(telegram, vk Sender) *Router {
	return &Router{telegram: telegram, vk: vk}
}

func (r *Router) Send(ctx context.Context, transport funnel.Transport, peerID int64, text string, kb Keyboard) error {
	switch transport {
	case funnel.TransportTelegram:
		if r.telegram == nil {
			return ErrUnsupportedTransport
		}
		return r.telegram.Send(ctx, transport, peerID, text, kb)
	case funnel.TransportVK:
		if r.vk == nil {
			return ErrUnsupportedTransport
		}
		return r.vk.Send(ctx, transport, peerID, text, kb)
	}
	return ErrUnsupportedTransport
}
