//go:build unit

package nudge_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/infra/messenger"
	"usdt-exchange-bot/internal/nudge"
	"usdt-exchange-bot/internal/pkg/clock"
	"usdt-exchange-bot/internal/pkg/errs"
)

// callRecorder keeps one ordered log across store and sender so tests can
// assert the claim happened before the delivery.
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *callRecorder) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

type mockStore struct {
	mu sync.Mutex

	rec           *callRecorder
	due           map[campaign.ID][]nudge.Candidate
	claimGranted  bool
	requestExists bool

	skipped map[int64]string
}

func newMockStore(rec *callRecorder) *mockStore {
	return &mockStore{
		rec:          rec,
		due:          map[campaign.ID][]nudge.Candidate{},
		claimGranted: true,
		skipped:      map[int64]string{},
	}
}

func (m *mockStore) FindDue(_ context.Context, c campaign.ID, _ time.Time, _ int32) ([]nudge.Candidate, error) {
	m.rec.record("find_due")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.due[c], nil
}

func (m *mockStore) MarkSent(_ context.Context, _ campaign.ID, _ int64, _ time.Time) (bool, error) {
	m.rec.record("mark_sent")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimGranted, nil
}

func (m *mockStore) MarkSkipped(_ context.Context, _ campaign.ID, id int64, sentinel string, _ time.Time) (bool, error) {
	m.rec.record("mark_skipped")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped[id] = sentinel
	return true, nil
}

func (m *mockStore) RequestExistsForToken(_ context.Context, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestExists, nil
}

type mockStatusSource struct {
	status crm.Status
	err    error
}

func (m *mockStatusSource) CheckStatus(_ context.Context, _ string) (crm.Status, error) {
	return m.status, m.err
}

type mockSender struct {
	mu   sync.Mutex
	rec  *callRecorder
	sent []string
	err  error
}

func (m *mockSender) Send(_ context.Context, _ funnel.Transport, _ int64, text string, _ messenger.Keyboard) error {
	if m.rec != nil {
		m.rec.record("send")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	return m.err
}

func (m *mockSender) sentTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}

func testCalendar(t *testing.T, clk clock.Clock) *clock.BusinessCalendar {
	t.Helper()
	cal, err := clock.NewBusinessCalendar(clk, "Europe/Istanbul")
	require.NoError(t, err)
	return cal
}

func testEngine(t *testing.T, store *mockStore, status *mockStatusSource, sender *mockSender, clk clock.Clock) *nudge.Engine {
	t.Helper()
	env := nudge.Env{Store: store, CRM: status, Calendar: testCalendar(t, clk)}
	return nudge.NewEngine(env, sender, clk, 50, slog.New(slog.DiscardHandler))
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestEngine_ClaimsBeforeSending(t *testing.T) {
	t.Parallel()

	rec := &callRecorder{}
	clk := clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newMockStore(rec)
	store.due[campaign.Inactivity] = []nudge.Candidate{
		{ID: 7, Transport: funnel.TransportTelegram, PeerID: 100},
	}
	sender := &mockSender{rec: rec}

	engine := testEngine(t, store, &mockStatusSource{}, sender, clk)
	engine.Tick(context.Background())

	require.Len(t, sender.sentTexts(), 1)
	claimIdx, sendIdx := -1, -1
	for i, call := range rec.log() {
		switch call {
		case "mark_sent":
			claimIdx = i
		case "send":
			sendIdx = i
		}
	}
	require.NotEqual(t, -1, claimIdx)
	require.NotEqual(t, -1, sendIdx)
	assert.Less(t, claimIdx, sendIdx)
}

func TestEngine_LostClaimSuppressesSend(t *testing.T) {
	t.Parallel()

	clk := clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newMockStore(&callRecorder{})
	store.claimGranted = false
	store.due[campaign.Inactivity] = []nudge.Candidate{
		{ID: 7, Transport: funnel.TransportTelegram, PeerID: 100},
	}
	sender := &mockSender{}

	engine := testEngine(t, store, &mockStatusSource{}, sender, clk)
	engine.Tick(context.Background())

	assert.Empty(t, sender.sentTexts())
}

func TestEngine_ContactedSkipsManagerDelay(t *testing.T) {
	t.Parallel()

	clk := clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newMockStore(&callRecorder{})
	store.due[campaign.ManagerDelay] = []nudge.Candidate{
		{ID: 3, Transport: funnel.TransportTelegram, PeerID: 100, CRMRequestID: strPtr("crm-1")},
	}
	status := &mockStatusSource{status: crm.Status{Status: "in_work"}}
	sender := &mockSender{}

	engine := testEngine(t, store, status, sender, clk)
	engine.Tick(context.Background())

	assert.Empty(t, sender.sentTexts())
	assert.Equal(t, campaign.SkipContacted, store.skipped[3])
}

func TestEngine_StatusErrorDefersCandidate(t *testing.T) {
	t.Parallel()

	rec := &callRecorder{}
	clk := clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newMockStore(rec)
	store.due[campaign.ManagerDelay] = []nudge.Candidate{
		{ID: 3, Transport: funnel.TransportTelegram, PeerID: 100, CRMRequestID: strPtr("crm-1")},
	}
	status := &mockStatusSource{err: errs.ErrCRMTemporary}
	sender := &mockSender{}

	engine := testEngine(t, store, status, sender, clk)
	engine.Tick(context.Background())

	assert.Empty(t, sender.sentTexts())
	assert.Empty(t, store.skipped)
	assert.NotContains(t, rec.log(), "mark_sent")
}

func TestEngine_ConvertedDraftSkipsRateLock(t *testing.T) {
	t.Parallel()

	clk := clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newMockStore(&callRecorder{})
	store.requestExists = true
	store.due[campaign.RateLock] = []nudge.Candidate{
		{ID: 9, Transport: funnel.TransportTelegram, PeerID: 100, ClientRequestID: "tok-1"},
	}
	sender := &mockSender{}

	engine := testEngine(t, store, &mockStatusSource{}, sender, clk)
	engine.Tick(context.Background())

	assert.Empty(t, sender.sentTexts())
	assert.Equal(t, campaign.SkipConfirmed, store.skipped[9])
}

func TestEngine_DealReminderDateGate(t *testing.T) {
	t.Parallel()

	// Noon UTC on 2025-03-10 is already 2025-03-10 in Istanbul.
	clk := clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	future := time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC)

	store := newMockStore(&callRecorder{})
	store.due[campaign.DealReminder] = []nudge.Candidate{
		{ID: 1, Transport: funnel.TransportTelegram, PeerID: 100, DesiredDate: timePtr(today)},
		{ID: 2, Transport: funnel.TransportTelegram, PeerID: 101, DesiredDate: nil},
		{ID: 3, Transport: funnel.TransportTelegram, PeerID: 102, DesiredDate: timePtr(future)},
	}
	sender := &mockSender{}

	engine := testEngine(t, store, &mockStatusSource{status: crm.Status{Status: "new"}}, sender, clk)
	engine.Tick(context.Background())

	assert.Equal(t, campaign.SkipDate, store.skipped[1])
	assert.Equal(t, campaign.SkipDate, store.skipped[2])
	assert.Len(t, sender.sentTexts(), 1)
}

func TestEngine_DealDayMorningNotTodaySkip(t *testing.T) {
	t.Parallel()

	clk := clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	tomorrow := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	store := newMockStore(&callRecorder{})
	store.due[campaign.DealDayMorning] = []nudge.Candidate{
		{ID: 1, Transport: funnel.TransportTelegram, PeerID: 100, DesiredDate: timePtr(tomorrow), SummaryText: "x"},
		{ID: 2, Transport: funnel.TransportTelegram, PeerID: 101, DesiredDate: timePtr(today), SummaryText: "y"},
	}
	sender := &mockSender{}

	engine := testEngine(t, store, &mockStatusSource{status: crm.Status{Status: "new"}}, sender, clk)
	engine.Tick(context.Background())

	assert.Equal(t, campaign.SkipNotToday, store.skipped[1])
	require.Len(t, sender.sentTexts(), 1)
	assert.Contains(t, sender.sentTexts()[0], "y")
}

func TestEngine_TerminalOrderSkipsSpecialOffer(t *testing.T) {
	t.Parallel()

	clk := clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newMockStore(&callRecorder{})
	store.due[campaign.SpecialOffer] = []nudge.Candidate{
		{ID: 5, Transport: funnel.TransportTelegram, PeerID: 100, CRMRequestID: strPtr("crm-1")},
	}
	status := &mockStatusSource{status: crm.Status{Status: "done"}}
	sender := &mockSender{}

	engine := testEngine(t, store, status, sender, clk)
	engine.Tick(context.Background())

	assert.Empty(t, sender.sentTexts())
	assert.Equal(t, campaign.SkipTerminal, store.skipped[5])
}

func TestEngine_DeliveryFailureDoesNotRetry(t *testing.T) {
	t.Parallel()

	clk := clock.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store := newMockStore(&callRecorder{})
	store.due[campaign.Inactivity] = []nudge.Candidate{
		{ID: 7, Transport: funnel.TransportTelegram, PeerID: 100},
	}
	sender := &mockSender{err: errs.New("telegram is down")}

	engine := testEngine(t, store, &mockStatusSource{}, sender, clk)
	engine.Tick(context.Background())

	assert.Len(t, sender.sentTexts(), 1)
}
