//go:build unit

package commands_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/draft"
	"usdt-exchange-bot/internal/domain/funnel"
	"usdt-exchange-bot/internal/domain/request"
	"usdt-exchange-bot/internal/infra"
	"usdt-exchange-bot/internal/infra/db"
)

type peerKey struct {
	transport funnel.Transport
	peerID    int64
}

// mockDraftRepo mirrors the persistence semantics the drafts table gives us:
// one draft per peer, guarded write-once answers.
type mockDraftRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*draft.Draft
	byPeer map[peerKey]int64
}

func newMockDraftRepo() *mockDraftRepo {
	return &mockDraftRepo{
		nextID: 1,
		byID:   map[int64]*draft.Draft{},
		byPeer: map[peerKey]int64{},
	}
}

func (m *mockDraftRepo) GetByPeer(_ context.Context, _ db.DBTX, transport funnel.Transport, peerID int64) (*draft.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPeer[peerKey{transport, peerID}]
	if !ok {
		return nil, infra.NotFoundErr("draft not found")
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *mockDraftRepo) GetByID(_ context.Context, _ db.DBTX, id int64) (*draft.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, infra.NotFoundErr("draft not found")
	}
	cp := *d
	return &cp, nil
}

func (m *mockDraftRepo) GetOrCreate(_ context.Context, _ db.DBTX, transport funnel.Transport, peerID int64, externalUserID *int64) (*draft.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := peerKey{transport, peerID}
	if id, ok := m.byPeer[key]; ok {
		d := m.byID[id]
		if d.ExternalUserID == nil {
			d.ExternalUserID = externalUserID
		}
		cp := *d
		return &cp, nil
	}
	d := &draft.Draft{
		ID:             m.nextID,
		Transport:      transport,
		PeerID:         peerID,
		ExternalUserID: externalUserID,
		LastStep:       funnel.StepStart,
	}
	m.byID[d.ID] = d
	m.byPeer[key] = d.ID
	m.nextID++
	cp := *d
	return &cp, nil
}

func (m *mockDraftRepo) UpdateStep(_ context.Context, _ db.DBTX, id int64, field string, value any, step string, now time.Time, nudge2PlannedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return infra.NotFoundErr("draft not found")
	}
	switch field {
	case "direction":
		dir := value.(funnel.Direction)
		d.Direction = &dir
	case "give_amount":
		v := value.(float64)
		d.GiveAmount = &v
	case "office_id":
		v := value.(string)
		d.OfficeID = &v
	case "desired_date":
		v := value.(time.Time)
		d.DesiredDate = &v
	case "username":
		v := value.(string)
		d.Username = &v
	}
	d.LastStep = step
	d.UpdatedAt = now
	d.Nudge2.PlannedAt = &nudge2PlannedAt
	return nil
}

func (m *mockDraftRepo) SetDirection(_ context.Context, _ db.DBTX, id int64, direction funnel.Direction, now time.Time, nudge2PlannedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return infra.NotFoundErr("draft not found")
	}
	d.Direction = &direction
	d.ClientRequestID = nil
	d.LastStep = funnel.StepDirection
	d.UpdatedAt = now
	d.Nudge2.PlannedAt = &nudge2PlannedAt
	return nil
}

func (m *mockDraftRepo) SetLastStep(_ context.Context, _ db.DBTX, id int64, step string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.byID[id]; ok {
		d.LastStep = step
		d.UpdatedAt = now
	}
	return nil
}

func (m *mockDraftRepo) SetClientRequestID(_ context.Context, _ db.DBTX, id int64, token string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.byID[id]; ok {
		d.ClientRequestID = &token
		d.UpdatedAt = now
	}
	return nil
}

func (m *mockDraftRepo) MarkSummaryShown(_ context.Context, _ db.DBTX, id int64, now time.Time, nudge3PlannedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.byID[id]; ok {
		d.LastStep = funnel.StepSummary
		d.SummaryShownAt = &now
		d.Nudge3.PlannedAt = &nudge3PlannedAt
		d.UpdatedAt = now
	}
	return nil
}

func (m *mockDraftRepo) Reset(_ context.Context, _ db.DBTX, id int64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.byID[id]; ok {
		*d = draft.Draft{
			ID:        d.ID,
			Transport: d.Transport,
			PeerID:    d.PeerID,
			LastStep:  funnel.StepStart,
			UpdatedAt: now,
		}
	}
	return nil
}

func (m *mockDraftRepo) AnswerNudge(_ context.Context, _ db.DBTX, id int64, c campaign.ID, answer string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return false, infra.NotFoundErr("draft not found")
	}
	st := draftState(d, c)
	if st.Answer != nil {
		return false, nil
	}
	st.Answer = &answer
	st.AnsweredAt = &now
	return true, nil
}

func (m *mockDraftRepo) AnswerInactivityLater(_ context.Context, _ db.DBTX, id int64, now time.Time, nudge4PlannedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return false, infra.NotFoundErr("draft not found")
	}
	if d.Nudge2.Answer != nil {
		return false, nil
	}
	later := campaign.AnswerLater
	d.Nudge2.Answer = &later
	d.Nudge2.AnsweredAt = &now
	d.Nudge4 = campaign.State{PlannedAt: &nudge4PlannedAt}
	return true, nil
}

func (m *mockDraftRepo) PurgeAbandoned(_ context.Context, _ db.DBTX, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, d := range m.byID {
		if d.LastStep == funnel.StepDone && d.UpdatedAt.Before(before) {
			delete(m.byPeer, peerKey{d.Transport, d.PeerID})
			delete(m.byID, id)
			removed++
		}
	}
	return removed, nil
}

func draftState(d *draft.Draft, c campaign.ID) *campaign.State {
	switch c {
	case campaign.Inactivity:
		return &d.Nudge2
	case campaign.RateLock:
		return &d.Nudge3
	default:
		return &d.Nudge4
	}
}

// mockRequestRepo enforces the unique token constraint the way Postgres
// does, surfacing a duplicate-key repository error.
type mockRequestRepo struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*request.Request
	byToken map[string]int64
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{
		nextID:  1,
		byID:    map[int64]*request.Request{},
		byToken: map[string]int64{},
	}
}

func (m *mockRequestRepo) Create(_ context.Context, _ db.DBTX, req *request.Request) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byToken[req.ClientRequestID]; exists {
		return 0, infra.WrapRepoErr("failed to create request", &pgconn.PgError{Code: "23505"})
	}
	cp := *req
	cp.ID = m.nextID
	m.byID[cp.ID] = &cp
	m.byToken[cp.ClientRequestID] = cp.ID
	m.nextID++
	return cp.ID, nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, _ db.DBTX, id int64) (*request.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.byID[id]
	if !ok {
		return nil, infra.NotFoundErr("request not found")
	}
	cp := *req
	return &cp, nil
}

func (m *mockRequestRepo) GetByClientRequestID(_ context.Context, _ db.DBTX, token string) (*request.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byToken[token]
	if !ok {
		return nil, infra.NotFoundErr("request not found")
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *mockRequestRepo) GetLatestByPeer(_ context.Context, _ db.DBTX, transport funnel.Transport, peerID int64) (*request.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *request.Request
	for _, req := range m.byID {
		if req.Transport != transport || req.PeerID != peerID {
			continue
		}
		if latest == nil || req.ID > latest.ID {
			latest = req
		}
	}
	if latest == nil {
		return nil, infra.NotFoundErr("request not found")
	}
	cp := *latest
	return &cp, nil
}

func (m *mockRequestRepo) SetCRMRequestID(_ context.Context, _ db.DBTX, id int64, crmRequestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := m.byID[id]; ok {
		req.CRMRequestID = &crmRequestID
	}
	return nil
}

func (m *mockRequestRepo) AnswerNudge(_ context.Context, _ db.DBTX, id int64, c campaign.ID, answer string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.byID[id]
	if !ok {
		return false, infra.NotFoundErr("request not found")
	}
	st := requestState(req, c)
	if st.Answer != nil {
		return false, nil
	}
	st.Answer = &answer
	st.AnsweredAt = &now
	if st.SentAt == nil {
		st.SentAt = &now
	}
	return true, nil
}

func requestState(req *request.Request, c campaign.ID) *campaign.State {
	switch c {
	case campaign.ManagerDelay:
		return &req.Nudge1
	case campaign.DealReminder:
		return &req.Nudge5
	case campaign.SpecialOffer:
		return &req.Nudge6
	default:
		return &req.Nudge7
	}
}
