package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. All are local and
// recoverable: the mutation is refused, the process keeps running.

var (
	// Validation errors
	ErrInvalidName    = errors.New("member name must not be empty")
	ErrInvalidPhone   = errors.New("phone number format is invalid")
	ErrInvalidDate    = errors.New("birthday must be YYYY-MM-DD or empty")
	ErrDuplicatePhone = errors.New("phone number already used by an active member")
	ErrInvalidAmount  = errors.New("amount must be a positive number")

	// Ledger errors
	ErrNotFound            = errors.New("member not found")
	ErrMemberNotActive     = errors.New("member status does not permit this operation")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidRedemption   = errors.New("invalid points redemption request")
	ErrInsufficientPoints  = errors.New("points below the redemption minimum")
	ErrNegativeResult      = errors.New("points may not go negative")
	ErrEmptyReason         = errors.New("adjustment reason must not be empty")

	// Persistence errors
	ErrCorrupt     = errors.New("data file is corrupt")
	ErrWriteFailed = errors.New("write to data file failed")
)
