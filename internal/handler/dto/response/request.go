package response

import (
	"time"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/domain/request"
)

type CampaignStateResponse struct {
	PlannedAt  *time.Time `json:"planned_at,omitempty"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	Answer     *string    `json:"answer,omitempty"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

type RequestResponse struct {
	ID              int64      `json:"id"`
	Transport       string     `json:"transport"`
	PeerID          int64      `json:"peer_id"`
	ClientRequestID string     `json:"client_request_id"`
	CRMRequestID    *string    `json:"crm_request_id,omitempty"`
	Direction       string     `json:"direction"`
	GiveAmount      float64    `json:"give_amount"`
	OfficeID        string     `json:"office_id"`
	DesiredDate     string     `json:"desired_date"`
	Rate            float64    `json:"rate"`
	ReceiveAmount   float64    `json:"receive_amount"`
	Username        string     `json:"username"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`

	Campaigns map[string]CampaignStateResponse `json:"campaigns"`
}

func FromRequest(r *request.Request) RequestResponse {
	campaigns := make(map[string]CampaignStateResponse, 4)
	for _, c := range []campaign.ID{campaign.ManagerDelay, campaign.DealReminder, campaign.SpecialOffer, campaign.DealDayMorning} {
		st := r.Campaign(c)
		if st.PlannedAt == nil && st.SentAt == nil && st.Answer == nil {
			continue
		}
		campaigns[c.String()] = CampaignStateResponse{
			PlannedAt:  st.PlannedAt,
			SentAt:     st.SentAt,
			Answer:     st.Answer,
			AnsweredAt: st.AnsweredAt,
		}
	}
	return RequestResponse{
		ID:              r.ID,
		Transport:       string(r.Transport),
		PeerID:          r.PeerID,
		ClientRequestID: r.ClientRequestID,
		CRMRequestID:    r.CRMRequestID,
		Direction:       string(r.Direction),
		GiveAmount:      r.GiveAmount,
		OfficeID:        r.OfficeID,
		DesiredDate:     r.DesiredDate.Format("2006-01-02"),
		Rate:            r.Rate,
		ReceiveAmount:   r.ReceiveAmount,
		Username:        r.Username,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
	}
}

func FromRequests(rs []*request.Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromRequest(r))
	}
	return out
}
