//go:build unit

package api_test

import (
	"context"
	"sync"

	"usdt-exchange-bot/internal/domain/draft"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/domain/request"
	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/infra/messenger"
	"usdt-exchange-bot/internal/pkg/errs"
	"usdt-exchange-bot/internal/usecase/commands"
)

type fakeIntake struct {
	mu    sync.Mutex
	calls []string

	draft       *draft.Draft
	offices     []crm.Office
	amountErr   error
	dateErr     error
	usernameErr error
}

func (f *fakeIntake) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeIntake) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *fakeIntake) Start(_ context.Context, transport funnel.Transport, peerID int64, externalUserID *int64) (*draft.Draft, error) {
	f.record("Start")
	if f.draft == nil {
		f.draft = &draft.Draft{ID: 1, Transport: transport, PeerID: peerID, ExternalUserID: externalUserID, LastStep: funnel.StepStart}
	}
	return f.draft, nil
}

func (f *fakeIntake) ChooseDirection(_ context.Context, _ funnel.Transport, _ int64, raw string) error {
	f.record("ChooseDirection:" + raw)
	return nil
}

func (f *fakeIntake) EnterAmount(_ context.Context, _ funnel.Transport, _ int64, raw string) ([]crm.Office, error) {
	f.record("EnterAmount:" + raw)
	if f.amountErr != nil {
		return nil, f.amountErr
	}
	return f.offices, nil
}

func (f *fakeIntake) ChooseOffice(_ context.Context, _ funnel.Transport, _ int64, officeID string) error {
	f.record("ChooseOffice:" + officeID)
	return nil
}

func (f *fakeIntake) EnterDate(_ context.Context, _ funnel.Transport, _ int64, raw string) error {
	f.record("EnterDate:" + raw)
	return f.dateErr
}

func (f *fakeIntake) DefaultDate(_ context.Context, _ funnel.Transport, _ int64) error {
	f.record("DefaultDate")
	return nil
}

func (f *fakeIntake) SetUsername(_ context.Context, _ funnel.Transport, _ int64, raw string, _ bool) error {
	f.record("SetUsername:" + raw)
	return f.usernameErr
}

func (f *fakeIntake) Restart(_ context.Context, _ funnel.Transport, _ int64) error {
	f.record("Restart")
	return nil
}

func (f *fakeIntake) Get(_ context.Context, _ funnel.Transport, _ int64) (*draft.Draft, error) {
	f.record("Get")
	if f.draft == nil {
		return nil, errs.ErrDraftNotFound
	}
	return f.draft, nil
}

type fakeOrders struct {
	summary    *commands.SummaryResult
	summaryErr error
	confirm    *commands.ConfirmResult
	confirmErr error
}

func (f *fakeOrders) BuildSummary(context.Context, funnel.Transport, int64) (*commands.SummaryResult, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.summary, nil
}

func (f *fakeOrders) ConfirmOrder(context.Context, funnel.Transport, int64) (*commands.ConfirmResult, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return f.confirm, nil
}

type fakeReplies struct {
	tokens  []string
	outcome *commands.ReplyOutcome
	err     error
}

func (f *fakeReplies) Handle(_ context.Context, _ funnel.Transport, _ int64, token string) (*commands.ReplyOutcome, error) {
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, f.err
	}
	if f.outcome == nil {
		return &commands.ReplyOutcome{}, nil
	}
	return f.outcome, nil
}

type sentMessage struct {
	Transport funnel.Transport
	PeerID    int64
	Text      string
	Keyboard  messenger.Keyboard
}

type recordSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (s *recordSender) Send(_ context.Context, transport funnel.Transport, peerID int64, text string, kb messenger.Keyboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{Transport: transport, PeerID: peerID, Text: text, Keyboard: kb})
	return nil
}

func (s *recordSender) last() (sentMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentMessage{}, false
	}
	return s.sent[len(s.sent)-1], true
}

type fakeReads struct {
	requests map[int64]*request.Request
	recent   []*request.Request
	err      error
}

func (f *fakeReads) RecentRequests(context.Context, int32) ([]*request.Request, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recent, nil
}

func (f *fakeReads) RequestByID(_ context.Context, id int64) (*request.Request, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.requests[id]
	if !ok {
		return nil, errs.ErrOrderNotFound
	}
	return r, nil
}
