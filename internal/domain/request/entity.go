package request

import (
	"time"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/funnel"
)

// Request is a confirmed exchange order. Core fields are immutable once
// created; only campaign tracking fields and the CRM linkage mutate.
type Request struct {
	ID             int64
	Transport      funnel.Transport
	PeerID         int64
	ExternalUserID *int64

	// ClientRequestID is the idempotency token minted on the draft; globally
	// unique, it bounds order creation to at-most-once per token.
	ClientRequestID string
	CRMRequestID    *string

	Direction     funnel.Direction
	GiveAmount    float64
	OfficeID      string
	DesiredDate   time.Time
	Rate          float64
	ReceiveAmount float64
	Username      string
	Status        string
	SummaryText   string

	Nudge1 campaign.State
	Nudge5 campaign.State
	Nudge6 campaign.State
	Nudge7 campaign.State

	CreatedAt time.Time
}

// Campaign returns the state of a request-scoped campaign.
func (r *Request) Campaign(id campaign.ID) campaign.State {
	switch id {
	case campaign.ManagerDelay:
		return r.Nudge1
	case campaign.DealReminder:
		return r.Nudge5
	case campaign.SpecialOffer:
		return r.Nudge6
	case campaign.DealDayMorning:
		return r.Nudge7
	}
	return campaign.State{}
}
