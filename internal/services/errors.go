package services

import (
	"errors"

	"github.com/coachdesk/coachdesk-api/internal/feeledger"
)

// Common service errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("a fee record already exists for this roll number")
	ErrConflict        = errors.New("record was changed by another session, reload and retry")
	ErrUnauthorized    = errors.New("not authorized for this operation")
	ErrInvalidState    = errors.New("invalid status transition")
	ErrInvalidMode     = errors.New("unknown payment mode")
	ErrInvalidPassword = errors.New("invalid credentials")
	ErrValidation      = errors.New("validation failed")
)

// Ledger validation errors, re-exported so callers can match them without
// importing feeledger directly.
var (
	ErrInvalidAmount   = feeledger.ErrInvalidAmount
	ErrInvalidDiscount = feeledger.ErrInvalidDiscount
	ErrOverpayment     = feeledger.ErrOverpayment
)
