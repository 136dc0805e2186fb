package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/pkg/clock"
)

// EventEmitter pushes campaign-answer events to the CRM on a best-effort
// basis: a failed event is logged and forgotten, it never blocks the user's
// reply.
type EventEmitter struct {
	crm   crm.Client
	clock clock.Clock
	log   *slog.Logger
}

func NewEventEmitter(crmClient crm.Client, clk clock.Clock, log *slog.Logger) *EventEmitter {
	return &EventEmitter{
		crm:   crmClient,
		clock: clk,
		log:   log.With("component", "crm_events"),
	}
}

const eventTimeout = 5 * time.Second

func (e *EventEmitter) Emit(ctx context.Context, event, action string, peerID int64, clientRequestID string, crmRequestID *string) {
	now := e.clock.Now()
	payload := map[string]any{
		"event":             event,
		"action":            action,
		"peer_id":           peerID,
		"client_request_id": clientRequestID,
		"timestamp":         now.Format(time.RFC3339),
	}
	if crmRequestID != nil {
		payload["crm_request_id"] = *crmRequestID
	}

	key := fmt.Sprintf("%s:%d:%s:%s:%d", event, peerID, clientRequestID, action, now.Unix())

	emitCtx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()
	if err := e.crm.SendEvent(emitCtx, payload, key); err != nil {
		e.log.Warn("crm event dropped", "event", event, "action", action, "error", err)
	}
}
