package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"usdt-exchange-bot/internal/pkg/config"
	"usdt-exchange-bot/internal/pkg/errs"
)

// Office is an exchange location the CRM advertises.
type Office struct {
	ID    string `json:"id"`
	Label string `json:"title"`
}

// Status is the system-of-record's current disposition for an order.
type Status struct {
	Status string          `json:"status"`
	Flags  map[string]bool `json:"flags"`
}

var (
	terminalStatuses = map[string]struct{}{
		"done": {}, "completed": {}, "paid": {}, "fixed": {}, "closed": {},
	}
	contactedStatuses = map[string]struct{}{
		"in_work": {}, "in_progress": {}, "contacted": {}, "working": {},
	}
	contactedFlags = []string{"contacted", "in_work", "manager_contacted", "inProgress"}
)

// Terminal reports whether follow-up on the order is over.
func (s Status) Terminal() bool {
	_, ok := terminalStatuses[strings.ToLower(strings.TrimSpace(s.Status))]
	return ok
}

// Contacted reports whether a manager has already reached the client; every
// terminal status counts as contacted.
func (s Status) Contacted() bool {
	if s.Terminal() {
		return true
	}
	status := strings.ToLower(strings.TrimSpace(s.Status))
	if _, ok := contactedStatuses[status]; ok {
		return true
	}
	for _, flag := range contactedFlags {
		if s.Flags[flag] {
			return true
		}
	}
	return false
}

// Client is the system-of-record boundary. CreateRequest and SendEvent must
// be safe to retry with the same idempotency key.
type Client interface {
	GetOffices(ctx context.Context) ([]Office, error)
	GetOfficeLabel(ctx context.Context, officeID string) (string, error)
	GetRate(ctx context.Context, officeID string, direction string) (float64, error)
	CreateRequest(ctx context.Context, payload map[string]any, idempotencyKey string) (crmRequestID string, err error)
	SendEvent(ctx context.Context, payload map[string]any, idempotencyKey string) error
	CheckStatus(ctx context.Context, crmRequestID string) (Status, error)
}

// HTTPClient implements Client against the real CRM API.
type HTTPClient struct {
	cfg    config.CRM
	client *http.Client
}

func NewHTTPClient(cfg config.CRM) *HTTPClient {
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) request(ctx context.Context, method, path string, body map[string]any, extraHeaders map[string]string) (map[string]any, error) {
	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errs.Mark(errs.Wrap(err, "failed to marshal crm payload"), errs.ErrCRMPermanent)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, reqBody)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to build crm request"), errs.ErrCRMPermanent)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(c.cfg.AuthHeader, c.cfg.AuthPrefix+" "+c.cfg.Token)
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Timeouts and connection errors are worth a retry next tick.
		return nil, errs.Mark(err, errs.ErrCRMTemporary)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, errs.Mark(errs.New(fmt.Sprintf("crm returned %d", resp.StatusCode)), errs.ErrCRMTemporary)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errs.Mark(errs.New(fmt.Sprintf("crm auth failed: %d", resp.StatusCode)), errs.ErrCRMPermanent)
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "crm returned non-json response"), errs.ErrCRMPermanent)
	}
	if resp.StatusCode >= 400 {
		return nil, errs.Mark(errs.New(fmt.Sprintf("crm error: %d", resp.StatusCode)), errs.ErrCRMPermanent)
	}
	return data, nil
}

func (c *HTTPClient) GetOffices(ctx context.Context) ([]Office, error) {
	data, err := c.request(ctx, http.MethodGet, c.cfg.OfficesPath, nil, nil)
	if err != nil {
		return nil, err
	}

	items, ok := data["offices"].([]any)
	if !ok {
		return nil, errs.Mark(errs.New("offices is not a list"), errs.ErrCRMPermanent)
	}

	var offices []Office
	for _, it := range items {
		entry, ok := it.(map[string]any)
		if !ok {
			continue
		}
		id, _ := entry["id"].(string)
		label, _ := entry["title"].(string)
		if id != "" && label != "" {
			offices = append(offices, Office{ID: id, Label: label})
		}
	}
	return offices, nil
}

func (c *HTTPClient) GetOfficeLabel(ctx context.Context, officeID string) (string, error) {
	offices, err := c.GetOffices(ctx)
	if err != nil {
		return "", err
	}
	for _, o := range offices {
		if o.ID == officeID {
			return o.Label, nil
		}
	}
	return officeID, nil
}

func (c *HTTPClient) GetRate(ctx context.Context, officeID string, direction string) (float64, error) {
	path := fmt.Sprintf("%s?office_id=%s&direction=%s",
		c.cfg.RatesPath, url.QueryEscape(officeID), url.QueryEscape(direction))
	data, err := c.request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return 0, err
	}

	rate, ok := data["rate"].(float64)
	if !ok {
		return 0, errs.Mark(errs.New("rate is missing or not numeric"), errs.ErrCRMPermanent)
	}
	return rate, nil
}

func (c *HTTPClient) CreateRequest(ctx context.Context, payload map[string]any, idempotencyKey string) (string, error) {
	headers := map[string]string{c.cfg.IdempotencyHeader: idempotencyKey}
	data, err := c.request(ctx, http.MethodPost, c.cfg.CreateRequestPath, payload, headers)
	if err != nil {
		return "", err
	}

	if id, ok := data["crm_request_id"].(string); ok && id != "" {
		return id, nil
	}
	if id, ok := data["id"].(string); ok && id != "" {
		return id, nil
	}
	return "", nil
}

func (c *HTTPClient) SendEvent(ctx context.Context, payload map[string]any, idempotencyKey string) error {
	headers := map[string]string{c.cfg.IdempotencyHeader: idempotencyKey}
	_, err := c.request(ctx, http.MethodPost, c.cfg.EventPath, payload, headers)
	return err
}

func (c *HTTPClient) CheckStatus(ctx context.Context, crmRequestID string) (Status, error) {
	path := fmt.Sprintf("%s?crm_request_id=%s", c.cfg.StatusPath, url.QueryEscape(crmRequestID))
	data, err := c.request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return Status{}, err
	}

	st := Status{Flags: map[string]bool{}}
	st.Status, _ = data["status"].(string)
	if flags, ok := data["flags"].(map[string]any); ok {
		for k, v := range flags {
			if b, ok := v.(bool); ok {
				st.Flags[k] = b
			}
		}
	}
	return st, nil
}
