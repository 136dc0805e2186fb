//go:build unit

package nudge_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/infra/messenger"
	"usdt-exchange-bot/internal/nudge"
)

func TestCallbackToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "n1:manager", nudge.CallbackToken(campaign.ManagerDelay, "manager", 42))
	assert.Equal(t, "n2:later", nudge.CallbackToken(campaign.Inactivity, "later", 42))
	assert.Equal(t, "n5:yes:42", nudge.CallbackToken(campaign.DealReminder, "yes", 42))
	assert.Equal(t, "n7:no:42", nudge.CallbackToken(campaign.DealDayMorning, "no", 42))
}

func TestPolicies_CoverEveryCampaignInOrder(t *testing.T) {
	t.Parallel()

	policies := nudge.Policies()
	require.Len(t, policies, len(campaign.All))
	for i, p := range policies {
		assert.Equal(t, campaign.All[i], p.Campaign)
		assert.NotNil(t, p.Evaluate)
		assert.NotNil(t, p.Message)
	}
}

func TestPolicies_ManagerDelayKeyboard(t *testing.T) {
	t.Parallel()

	p := nudge.Policies()[0]
	_, kb := p.Message(nudge.Candidate{ID: 42})

	want := messenger.Keyboard{
		messenger.Row(messenger.Button{Label: "Да, актуальна", Callback: "n1:yes"}),
		messenger.Row(messenger.Button{Label: "Нет, не актуальна", Callback: "n1:no"}),
		messenger.Row(messenger.Button{Label: "Связаться с менеджером", Callback: "n1:manager"}),
	}
	if diff := cmp.Diff(want, kb); diff != "" {
		t.Errorf("keyboard mismatch (-want +got):\n%s", diff)
	}
}

func TestPolicies_MessagesCarryCallbacks(t *testing.T) {
	t.Parallel()

	c := nudge.Candidate{ID: 42, SummaryText: "сводка"}
	for _, p := range nudge.Policies() {
		text, kb := p.Message(c)
		assert.NotEmpty(t, text, "campaign %d", p.Campaign)
		require.NotEmpty(t, kb, "campaign %d", p.Campaign)
		for _, row := range kb {
			for _, btn := range row {
				assert.NotEmpty(t, btn.Label)
				assert.NotEmpty(t, btn.Callback)
			}
		}
	}
}
