package draft

import (
	"time"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/funnel"
)

// Draft is the one in-flight intake record per (transport, peer) pair. All
// answer fields are nullable until the corresponding step is completed.
type Draft struct {
	ID             int64
	Transport      funnel.Transport
	PeerID         int64
	ExternalUserID *int64

	Direction   *funnel.Direction
	GiveAmount  *float64
	OfficeID    *string
	DesiredDate *time.Time
	Username    *string

	ClientRequestID *string
	LastStep        string
	SummaryShownAt  *time.Time

	Nudge2 campaign.State
	Nudge3 campaign.State
	Nudge4 campaign.State

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReadyForSummary reports whether every intake answer needed to quote the
// exchange is present.
func (d *Draft) ReadyForSummary() bool {
	return d.Direction != nil && d.GiveAmount != nil && d.OfficeID != nil && d.DesiredDate != nil
}

// ReadyForConfirm additionally requires the contact handle.
func (d *Draft) ReadyForConfirm() bool {
	return d.ReadyForSummary() && d.Username != nil
}

// Campaign returns the state of a draft-scoped campaign.
func (d *Draft) Campaign(id campaign.ID) campaign.State {
	switch id {
	case campaign.Inactivity:
		return d.Nudge2
	case campaign.RateLock:
		return d.Nudge3
	case campaign.LaterFollowUp:
		return d.Nudge4
	}
	return campaign.State{}
}
