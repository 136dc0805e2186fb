package campaign

import (
	"fmt"
	"time"
)

// ID numbers one of the seven fixed re-engagement campaigns.
type ID int

// String matches the column prefix the campaign's state lives under.
func (id ID) String() string {
	return fmt.Sprintf("nudge%d", int(id))
}

const (
	ManagerDelay    ID = 1 // request: "manager is late, still interested?"
	Inactivity      ID = 2 // draft: abandoned mid-intake
	RateLock        ID = 3 // draft: "lock in the rate?"
	LaterFollowUp   ID = 4 // draft: re-offer after "later" on campaign 2
	DealReminder    ID = 5 // request: "deal still actual?"
	SpecialOffer    ID = 6 // request: offer after unanswered campaign 5
	DealDayMorning  ID = 7 // request: morning-of-the-deal ping
)

// Scope tells which entity family a campaign reads its candidates from.
type Scope int

const (
	ScopeDraft Scope = iota
	ScopeRequest
)

func (id ID) Scope() Scope {
	switch id {
	case Inactivity, RateLock, LaterFollowUp:
		return ScopeDraft
	default:
		return ScopeRequest
	}
}

// All campaigns in tick order.
var All = []ID{ManagerDelay, Inactivity, RateLock, LaterFollowUp, DealReminder, SpecialOffer, DealDayMorning}

// Skip sentinels stored in the answer field when a campaign terminates
// without a message. They share the column with genuine user answers, as the
// rest of the system expects.
const (
	SkipContacted = "skip_contacted"
	SkipConfirmed = "skip_confirmed"
	SkipDate      = "skip_date"
	SkipTerminal  = "skip_terminal"
	SkipNotToday  = "skip_not_today"
)

// User answers.
const (
	AnswerActual    = "actual"
	AnswerNotActual = "not_actual"
	AnswerManager   = "manager"
	AnswerContinue  = "continue"
	AnswerLater     = "later"
	AnswerYes       = "yes"
	AnswerNo        = "no"
	AnswerYesUpper  = "YES"
	AnswerNoUpper   = "NO"
)

// State is the per-candidate lifecycle of one campaign: Scheduled (planned
// set, sent null) -> Sent (sent set, answer null) -> Answered or Skipped
// (answer set, terminal).
type State struct {
	PlannedAt  *time.Time
	SentAt     *time.Time
	Answer     *string
	AnsweredAt *time.Time
}

func (s State) Scheduled() bool {
	return s.PlannedAt != nil && s.SentAt == nil && s.Answer == nil
}

func (s State) Sent() bool {
	return s.SentAt != nil && s.Answer == nil
}

func (s State) Terminal() bool {
	return s.Answer != nil
}
