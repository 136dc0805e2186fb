package nudge

import (
	"context"
	"fmt"
	"time"

	"usdt-exchange-bot/internal/domain/campaign"
	"usdt-exchange-bot/internal/infra/messenger"
	"usdt-exchange-bot/internal/pkg/errs"
)

const (
	textManagerDelay = "Извините, похоже, менеджер задерживается. Это редко бывает, но я хочу помочь.\n" +
		"Ваша заявка всё ещё актуальна?"

	textInactivity = "Похоже, вы отвлеклись.\n" +
		"Если хотите, я могу продолжить с того места, где вы остановились. " +
		"Нажмите «Продолжить», и я покажу сводку и текущий курс."

	textRateLock = "Небольшое напоминание: срок действия текущего курса скоро закончится.\n" +
		"Хотите, чтобы менеджер помог быстро зафиксировать условия по вашей заявке?"

	textLaterFollowUp = "Пишу напомнить, что наши менеджеры на связи и готовы предложить вам " +
		"специальные условия обмена. Нажмите Да, чтобы получить специальное предложение"

	textDealReminder = "Напоминаю: через 14 дней у вас запланирован обмен.\n" +
		"Подтвердите, пожалуйста — всё ещё актуально?"

	textSpecialOffer = "У нас есть для вас специальное предложение для заявки. Хотите узнать?"

	textDealDayMorning = "Доброе утро! Сегодня у вас запланирован обмен:\n\n%s\n\n" +
		"Хотите, чтобы менеджер связался с вами?"
)

// CallbackToken builds the callback payload a campaign button carries.
// Draft-scoped campaigns identify the candidate by the conversation itself;
// request-scoped 5-7 embed the request id because a peer may hold several
// orders.
func CallbackToken(c campaign.ID, action string, candidateID int64) string {
	switch c {
	case campaign.DealReminder, campaign.SpecialOffer, campaign.DealDayMorning:
		return fmt.Sprintf("n%d:%s:%d", c, action, candidateID)
	default:
		return fmt.Sprintf("n%d:%s", c, action)
	}
}

// Policies returns the seven campaign descriptors in tick order.
func Policies() []Policy {
	return []Policy{
		managerDelayPolicy(),
		inactivityPolicy(),
		rateLockPolicy(),
		laterFollowUpPolicy(),
		dealReminderPolicy(),
		specialOfferPolicy(),
		dealDayMorningPolicy(),
	}
}

// Campaign 1: the manager has not reached out within the promised window.
// A CRM status that already shows contact terminates the campaign silently.
func managerDelayPolicy() Policy {
	id := campaign.ManagerDelay
	return Policy{
		Campaign: id,
		Evaluate: func(ctx context.Context, env Env, c Candidate) (Decision, error) {
			if c.CRMRequestID == nil {
				return Send(), nil
			}
			st, err := env.CRM.CheckStatus(ctx, *c.CRMRequestID)
			if err != nil {
				return Decision{}, errs.Wrap(err, "manager delay status check failed")
			}
			if st.Contacted() {
				return Skip(campaign.SkipContacted), nil
			}
			return Send(), nil
		},
		Message: func(c Candidate) (string, messenger.Keyboard) {
			return textManagerDelay, messenger.Keyboard{
				messenger.Row(messenger.Button{Label: "Да, актуальна", Callback: CallbackToken(id, "yes", c.ID)}),
				messenger.Row(messenger.Button{Label: "Нет, не актуальна", Callback: CallbackToken(id, "no", c.ID)}),
				messenger.Row(messenger.Button{Label: "Связаться с менеджером", Callback: CallbackToken(id, "manager", c.ID)}),
			}
		},
	}
}

// Campaign 2: intake stalled mid-funnel. Eligibility lives entirely in the
// due query (in-progress step, amount present), so every due candidate is
// messaged.
func inactivityPolicy() Policy {
	id := campaign.Inactivity
	return Policy{
		Campaign: id,
		Evaluate: func(_ context.Context, _ Env, _ Candidate) (Decision, error) {
			return Send(), nil
		},
		Message: func(c Candidate) (string, messenger.Keyboard) {
			return textInactivity, messenger.Keyboard{
				messenger.Row(messenger.Button{Label: "Продолжить", Callback: CallbackToken(id, "continue", c.ID)}),
				messenger.Row(messenger.Button{Label: "Позвать менеджера", Callback: CallbackToken(id, "manager", c.ID)}),
				messenger.Row(messenger.Button{Label: "Позже", Callback: CallbackToken(id, "later", c.ID)}),
			}
		},
	}
}

// Campaign 3: the quoted rate is about to expire. If the draft already
// converted into an order, there is nothing left to lock in.
func rateLockPolicy() Policy {
	id := campaign.RateLock
	return Policy{
		Campaign: id,
		Evaluate: func(ctx context.Context, env Env, c Candidate) (Decision, error) {
			if c.ClientRequestID == "" {
				return Send(), nil
			}
			exists, err := env.Store.RequestExistsForToken(ctx, c.ClientRequestID)
			if err != nil {
				return Decision{}, errs.Wrap(err, "rate lock conversion check failed")
			}
			if exists {
				return Skip(campaign.SkipConfirmed), nil
			}
			return Send(), nil
		},
		Message: func(c Candidate) (string, messenger.Keyboard) {
			return textRateLock, messenger.Keyboard{
				messenger.Row(
					messenger.Button{Label: "Да", Callback: CallbackToken(id, "yes", c.ID)},
					messenger.Button{Label: "Нет", Callback: CallbackToken(id, "no", c.ID)},
				),
			}
		},
	}
}

// Campaign 4: re-offer after the user answered "later" on campaign 2. The
// "later" gate is part of the due query.
func laterFollowUpPolicy() Policy {
	id := campaign.LaterFollowUp
	return Policy{
		Campaign: id,
		Evaluate: func(_ context.Context, _ Env, _ Candidate) (Decision, error) {
			return Send(), nil
		},
		Message: func(c Candidate) (string, messenger.Keyboard) {
			return textLaterFollowUp, messenger.Keyboard{
				messenger.Row(messenger.Button{Label: "Да", Callback: CallbackToken(id, "yes", c.ID)}),
			}
		},
	}
}

// Campaign 5: two weeks ahead of the planned deal. Deals already due today
// (or with no date) go to campaign 7's territory instead, and finished CRM
// orders need no reminder.
func dealReminderPolicy() Policy {
	id := campaign.DealReminder
	return Policy{
		Campaign: id,
		Evaluate: func(ctx context.Context, env Env, c Candidate) (Decision, error) {
			if c.DesiredDate == nil || sameDay(*c.DesiredDate, env.Calendar.Today()) {
				return Skip(campaign.SkipDate), nil
			}
			return skipIfTerminal(ctx, env, c, "deal reminder")
		},
		Message: func(c Candidate) (string, messenger.Keyboard) {
			return textDealReminder, yesNoKeyboard(id, c.ID)
		},
	}
}

// Campaign 6: special offer for clients who never answered campaign 5. The
// sent-but-unanswered gate is part of the due query.
func specialOfferPolicy() Policy {
	id := campaign.SpecialOffer
	return Policy{
		Campaign: id,
		Evaluate: func(ctx context.Context, env Env, c Candidate) (Decision, error) {
			return skipIfTerminal(ctx, env, c, "special offer")
		},
		Message: func(c Candidate) (string, messenger.Keyboard) {
			return textSpecialOffer, yesNoKeyboard(id, c.ID)
		},
	}
}

// Campaign 7: morning of the deal day in the business timezone. Being due is
// not enough: the planned timestamp only approximates the deal day, so the
// date gate decides.
func dealDayMorningPolicy() Policy {
	id := campaign.DealDayMorning
	return Policy{
		Campaign: id,
		Evaluate: func(ctx context.Context, env Env, c Candidate) (Decision, error) {
			if c.DesiredDate != nil && !sameDay(*c.DesiredDate, env.Calendar.Today()) {
				return Skip(campaign.SkipNotToday), nil
			}
			return skipIfTerminal(ctx, env, c, "deal day morning")
		},
		Message: func(c Candidate) (string, messenger.Keyboard) {
			return fmt.Sprintf(textDealDayMorning, c.SummaryText), yesNoKeyboard(id, c.ID)
		},
	}
}

func skipIfTerminal(ctx context.Context, env Env, c Candidate, scope string) (Decision, error) {
	if c.CRMRequestID == nil {
		return Send(), nil
	}
	st, err := env.CRM.CheckStatus(ctx, *c.CRMRequestID)
	if err != nil {
		return Decision{}, errs.Wrap(err, scope+" status check failed")
	}
	if st.Terminal() {
		return Skip(campaign.SkipTerminal), nil
	}
	return Send(), nil
}

func yesNoKeyboard(c campaign.ID, candidateID int64) messenger.Keyboard {
	return messenger.Keyboard{
		messenger.Row(
			messenger.Button{Label: "Да", Callback: CallbackToken(c, "yes", candidateID)},
			messenger.Button{Label: "Нет", Callback: CallbackToken(c, "no", candidateID)},
		),
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
