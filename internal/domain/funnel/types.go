package funnel

// Direction of the exchange, as the CRM understands it.
type Direction string

const (
	DirectionUSDTToCash Direction = "USDT_TO_CASH"
	DirectionCashToUSDT Direction = "CASH_TO_USDT"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionUSDTToCash, DirectionCashToUSDT:
		return Direction(s), nil
	}
	return "", ErrInvalidDirection
}

func (d Direction) GiveCurrency() string {
	if d == DirectionUSDTToCash {
		return "USDT"
	}
	return "наличные"
}

func (d Direction) ReceiveCurrency() string {
	if d == DirectionUSDTToCash {
		return "наличные"
	}
	return "USDT"
}

// Transport identifies the messaging channel a conversation lives on.
type Transport string

const (
	TransportTelegram Transport = "tg"
	TransportVK       Transport = "vk"
)

// Intake progress markers, written to Draft.LastStep after each step.
const (
	StepStart          = "start"
	StepDirection      = "direction"
	StepAmountWait     = "amount_wait"
	StepAmount         = "amount"
	StepOffice         = "office"
	StepDate           = "date"
	StepDateDefault    = "date_default"
	StepUsernameAuto   = "username_auto"
	StepUsernameManual = "username_manual"
	StepSummary        = "summary"
	StepDone           = "done"
)

// InProgressSteps are the markers that make an abandoned draft eligible for
// the inactivity nudge.
var InProgressSteps = []string{
	StepAmountWait,
	StepAmount,
	StepOffice,
	StepDate,
	StepDateDefault,
	StepUsernameAuto,
	StepUsernameManual,
}
