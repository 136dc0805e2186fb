package errs

import "errors"

// Domain-specific sentinel errors for the funnel and nudge usecases
var (
	// Draft errors
	ErrDraftNotFound = errors.New("draft not found")
	ErrDraftNotReady = errors.New("draft not ready")
	ErrBadDirection  = errors.New("bad direction")

	// Order errors
	ErrOrderNotFound = errors.New("order not found")

	// Reply errors
	ErrUnknownAction = errors.New("unknown callback action")

	// CRM errors
	ErrCRMTemporary = errors.New("crm temporary failure")
	ErrCRMPermanent = errors.New("crm permanent failure")

	// Validation errors
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrDateInPast      = errors.New("date is in the past")
	ErrInvalidUsername = errors.New("invalid username")
)
