package domain

import "errors"

// Ledger error taxonomy. Handlers map these onto HTTP statuses; callers
// use errors.Is to distinguish recoverable input errors from structural ones.
var (
	ErrInvalidAmount     = errors.New("amount must be a positive value")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownAccount    = errors.New("account not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrOfferUnavailable  = errors.New("lending offer is no longer available")
	ErrSelfDeal          = errors.New("counterparty must be a different user")
)
