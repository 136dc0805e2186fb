package nudge

import (
	"context"
	"time"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/infra/messenger"
	"usdt-exchange-bot/internal/pkg/clock"
)

// Candidate is the scheduler's flat view of one due draft or request. Only
// the fields the policies and message builders read are carried.
type Candidate struct {
	ID        int64
	Transport funnel.Transport
	PeerID    int64

	ClientRequestID string
	CRMRequestID    *string
	DesiredDate     *time.Time
	SummaryText     string
}

// Store is the campaign-state persistence boundary. MarkSent and MarkSkipped
// are guarded writes: they succeed at most once per (campaign, candidate) and
// report whether this caller won the claim.
type Store interface {
	FindDue(ctx context.Context, c campaign.ID, now time.Time, limit int32) ([]Candidate, error)
	MarkSent(ctx context.Context, c campaign.ID, candidateID int64, now time.Time) (bool, error)
	MarkSkipped(ctx context.Context, c campaign.ID, candidateID int64, sentinel string, now time.Time) (bool, error)
	RequestExistsForToken(ctx context.Context, token string) (bool, error)
}

// StatusSource is the slice of the CRM client the skip predicates consult.
type StatusSource interface {
	CheckStatus(ctx context.Context, crmRequestID string) (crm.Status, error)
}

// Env bundles everything a policy may consult while deciding.
type Env struct {
	Store    Store
	CRM      StatusSource
	Calendar *clock.BusinessCalendar
}

// Decision is the outcome of evaluating one candidate. The zero value means
// "send the message"; a non-empty sentinel means "terminate silently".
type Decision struct {
	Sentinel string
}

func Send() Decision { return Decision{} }

func Skip(sentinel string) Decision { return Decision{Sentinel: sentinel} }

func (d Decision) Skipped() bool { return d.Sentinel != "" }

// Policy describes one campaign: which candidates it owns (the Store's due
// query), whether a due candidate should still be messaged, and what to say.
type Policy struct {
	Campaign campaign.ID
	Evaluate func(ctx context.Context, env Env, c Candidate) (Decision, error)
	Message  func(c Candidate) (string, messenger.Keyboard)
}
