package crm

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Event is a recorded outbound CRM call, kept for admin inspection.
type Event struct {
	Kind           string
	IdempotencyKey string
	Payload        map[string]any
}

// MockControls is the extra surface the admin API uses to drive the mock.
// The real HTTP client does not implement it.
type MockControls interface {
	SetStatus(crmRequestID string, status Status)
	Events() []Event
}

// MockClient is an in-memory Client used when CRM_MODE=mock. It is the
// default for local runs and tests.
type MockClient struct {
	mu       sync.Mutex
	offices  []Office
	rates    map[string]float64
	statuses map[string]Status
	events   []Event
	seenKeys map[string]string
}

func NewMockClient() *MockClient {
	return &MockClient{
		offices: []Office{
			{ID: "office-center", Label: "Центральный офис"},
			{ID: "office-north", Label: "Офис на севере"},
		},
		rates:    map[string]float64{},
		statuses: map[string]Status{},
		seenKeys: map[string]string{},
	}
}

func (m *MockClient) GetOffices(_ context.Context) ([]Office, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Office, len(m.offices))
	copy(out, m.offices)
	return out, nil
}

func (m *MockClient) GetOfficeLabel(ctx context.Context, officeID string) (string, error) {
	offices, _ := m.GetOffices(ctx)
	for _, o := range offices {
		if o.ID == officeID {
			return o.Label, nil
		}
	}
	return officeID, nil
}

func (m *MockClient) GetRate(_ context.Context, officeID string, direction string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rate, ok := m.rates[officeID+"/"+direction]; ok {
		return rate, nil
	}
	return 96.5, nil
}

func (m *MockClient) SetRate(officeID, direction string, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[officeID+"/"+direction] = rate
}

func (m *MockClient) CreateRequest(_ context.Context, payload map[string]any, idempotencyKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.seenKeys[idempotencyKey]; ok {
		return id, nil
	}
	id := "crm-" + uuid.NewString()
	m.seenKeys[idempotencyKey] = id
	m.statuses[id] = Status{Status: "new", Flags: map[string]bool{}}
	m.events = append(m.events, Event{Kind: "create_request", IdempotencyKey: idempotencyKey, Payload: payload})
	return id, nil
}

func (m *MockClient) SendEvent(_ context.Context, payload map[string]any, idempotencyKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seenKeys[idempotencyKey]; ok {
		return nil
	}
	m.seenKeys[idempotencyKey] = ""
	kind, _ := payload["event"].(string)
	m.events = append(m.events, Event{Kind: kind, IdempotencyKey: idempotencyKey, Payload: payload})
	return nil
}

func (m *MockClient) CheckStatus(_ context.Context, crmRequestID string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.statuses[crmRequestID]; ok {
		return st, nil
	}
	return Status{Status: "new", Flags: map[string]bool{}}, nil
}

func (m *MockClient) SetStatus(crmRequestID string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[crmRequestID] = status
}

func (m *MockClient) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
